package email

import (
	"context"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Inputs carries the per-lead context for one generation run.
type Inputs struct {
	ProfileText string // formatted person block
	CompanyText string // formatted company block
	LeadName    string
	Offer       string
	CTA         string
	SellerName  string
}

// Workflow runs the staged email generation: profile analysis and
// company analysis first (independent of each other), then draft
// composition over both analyses, then a quality review whose output is
// the final artifact. Any stage failure aborts the run and discards
// partial output.
type Workflow struct {
	exec    Executor
	prompts *promptConfig
	agents  []Agent
}

// NewWorkflow creates a Workflow from the embedded prompt templates.
func NewWorkflow(exec Executor) (*Workflow, error) {
	cfg, err := loadPromptConfig()
	if err != nil {
		return nil, err
	}

	agents := make([]Agent, 0, len(cfg.Agents))
	for name, a := range cfg.Agents {
		agents = append(agents, Agent{
			Name:            name,
			Role:            a.Role,
			Goal:            a.Goal,
			Backstory:       a.Backstory,
			AllowDelegation: a.AllowDelegation,
		})
	}

	return &Workflow{exec: exec, prompts: cfg, agents: agents}, nil
}

// Run executes the full workflow and returns the raw text of the final
// stage.
func (w *Workflow) Run(ctx context.Context, in Inputs) (string, error) {
	vars := map[string]string{
		"lead_name":        in.LeadName,
		"seller_name":      in.SellerName,
		"offer":            in.Offer,
		"cta":              in.CTA,
		"linkedin_profile": in.ProfileText,
		"company_profile":  in.CompanyText,
	}

	tasks, err := w.renderTasks(vars)
	if err != nil {
		return "", err
	}

	// Tasks without upstream context form the independent analysis round;
	// the rest run in order on top of those outputs.
	var analysis, composition []Task
	for _, t := range tasks {
		if len(t.Context) == 0 {
			analysis = append(analysis, t)
		} else {
			composition = append(composition, t)
		}
	}
	if len(composition) == 0 {
		return "", eris.New("email: workflow defines no composition stage")
	}

	upstream := map[string]string{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, task := range analysis {
		g.Go(func() error {
			res, execErr := w.exec.Execute(gctx, w.agents, []Task{task}, nil)
			if execErr != nil {
				return execErr
			}
			mu.Lock()
			for name, out := range res.Outputs {
				upstream[name] = out
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", eris.Wrap(err, "email: analysis stage")
	}

	res, err := w.exec.Execute(ctx, w.agents, composition, upstream)
	if err != nil {
		return "", eris.Wrap(err, "email: composition stage")
	}
	if strings.TrimSpace(res.Final) == "" {
		return "", eris.New("email: workflow produced empty output")
	}

	zap.L().Info("email: workflow complete",
		zap.String("lead", in.LeadName),
		zap.Int("stages", len(tasks)),
	)
	return res.Final, nil
}

// renderTasks renders every task description against vars. Rendering is
// strict, so a template drift surfaces before any backend call is made.
func (w *Workflow) renderTasks(vars map[string]string) ([]Task, error) {
	tasks := make([]Task, 0, len(w.prompts.Tasks))
	for _, tc := range w.prompts.Tasks {
		desc, err := renderTemplate(tc.Description, vars)
		if err != nil {
			return nil, eris.Wrapf(err, "email: render task %s", tc.Name)
		}
		tasks = append(tasks, Task{
			Name:           tc.Name,
			Agent:          tc.Agent,
			Description:    desc,
			ExpectedOutput: tc.ExpectedOutput,
			Context:        tc.Context,
		})
	}
	return tasks, nil
}
