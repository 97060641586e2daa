package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/pkg/anthropic"
)

// Agent is a named role participating in the generation workflow.
type Agent struct {
	Name            string
	Role            string
	Goal            string
	Backstory       string
	AllowDelegation bool
}

// Task is one ordered unit of work assigned to an agent. Context names
// upstream tasks whose raw output is injected into this task's prompt.
type Task struct {
	Name           string
	Agent          string
	Description    string
	ExpectedOutput string
	Context        []string
}

// Result carries per-task raw text and the overall final raw text.
type Result struct {
	Outputs map[string]string
	Final   string
	Usage   anthropic.TokenUsage
}

// Executor runs an ordered list of tasks against a text-generation
// backend. Upstream seeds outputs from tasks completed in a prior call,
// so a workflow can split execution into rounds.
type Executor interface {
	Execute(ctx context.Context, agents []Agent, tasks []Task, upstream map[string]string) (*Result, error)
}

// anthropicExecutor implements Executor against the Anthropic API. Tasks
// run strictly in order; calls are rate limited because the backend is
// costly and quota-bound.
type anthropicExecutor struct {
	client  anthropic.Client
	cfg     config.AnthropicConfig
	limiter *rate.Limiter
}

// NewAnthropicExecutor creates an Executor backed by the Anthropic API.
func NewAnthropicExecutor(client anthropic.Client, cfg config.AnthropicConfig) Executor {
	rpm := cfg.RequestsPerMin
	if rpm <= 0 {
		rpm = 30
	}
	return &anthropicExecutor{
		client:  client,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
	}
}

func (e *anthropicExecutor) Execute(ctx context.Context, agents []Agent, tasks []Task, upstream map[string]string) (*Result, error) {
	byName := make(map[string]Agent, len(agents))
	for _, a := range agents {
		byName[a.Name] = a
	}

	result := &Result{Outputs: map[string]string{}}
	for _, task := range tasks {
		agent, ok := byName[task.Agent]
		if !ok {
			return nil, eris.Errorf("email: task %s assigned to unknown agent %s", task.Name, task.Agent)
		}

		prompt, err := buildTaskPrompt(task, result.Outputs, upstream)
		if err != nil {
			return nil, err
		}

		if err := e.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrapf(err, "email: rate limit wait for task %s", task.Name)
		}

		temp := e.cfg.Temperature
		resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:       e.cfg.Model,
			MaxTokens:   e.cfg.MaxTokens,
			System:      agentSystemPrompt(agent),
			Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
			Temperature: &temp,
		})
		if err != nil {
			return nil, eris.Wrapf(err, "email: execute task %s", task.Name)
		}
		if strings.TrimSpace(resp.Text) == "" {
			return nil, eris.Errorf("email: task %s produced no text (stop reason %s)", task.Name, resp.StopReason)
		}

		result.Outputs[task.Name] = resp.Text
		result.Final = resp.Text
		result.Usage.Add(resp.Usage)

		zap.L().Debug("email: task complete",
			zap.String("task", task.Name),
			zap.String("agent", agent.Name),
			zap.Int64("output_tokens", resp.Usage.OutputTokens),
		)
	}

	result.Usage.LogCost(e.cfg.Model, "email_workflow")
	return result, nil
}

// agentSystemPrompt renders an agent as a system prompt.
func agentSystemPrompt(a Agent) string {
	return fmt.Sprintf("You are a %s.\nGoal: %s\n%s", a.Role, a.Goal, strings.TrimSpace(a.Backstory))
}

// buildTaskPrompt assembles the user message for a task: upstream
// context blocks first, then the rendered description and the expected
// output contract. A context reference that resolves to nothing is a
// wiring defect and fails the run.
func buildTaskPrompt(task Task, outputs, upstream map[string]string) (string, error) {
	var b strings.Builder
	for _, name := range task.Context {
		text, ok := outputs[name]
		if !ok {
			text, ok = upstream[name]
		}
		if !ok {
			return "", eris.Errorf("email: task %s requires output of %s which has not run", task.Name, name)
		}
		fmt.Fprintf(&b, "Output of %s:\n%s\n\n", name, strings.TrimSpace(text))
	}

	b.WriteString(strings.TrimSpace(task.Description))
	if task.ExpectedOutput != "" {
		fmt.Fprintf(&b, "\n\nExpected output: %s", strings.TrimSpace(task.ExpectedOutput))
	}
	return b.String(), nil
}
