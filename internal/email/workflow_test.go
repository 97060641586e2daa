package email

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExecutor records Execute calls and replies with canned output per
// task name.
type fakeExecutor struct {
	mu      sync.Mutex
	calls   [][]string // task names per Execute call
	outputs map[string]string
	failOn  string
}

func (f *fakeExecutor) Execute(ctx context.Context, agents []Agent, tasks []Task, upstream map[string]string) (*Result, error) {
	f.mu.Lock()
	names := make([]string, len(tasks))
	for i, t := range tasks {
		names[i] = t.Name
	}
	f.calls = append(f.calls, names)
	f.mu.Unlock()

	res := &Result{Outputs: map[string]string{}}
	for _, task := range tasks {
		if task.Name == f.failOn {
			return nil, assert.AnError
		}
		for _, c := range task.Context {
			if _, ok := res.Outputs[c]; ok {
				continue
			}
			if _, ok := upstream[c]; !ok {
				return nil, assert.AnError
			}
		}
		out := f.outputs[task.Name]
		if out == "" {
			out = "output of " + task.Name
		}
		res.Outputs[task.Name] = out
		res.Final = out
	}
	return res, nil
}

func testInputs() Inputs {
	return Inputs{
		ProfileText: "first_name: Jane\n",
		CompanyText: "company: Acme\n",
		LeadName:    "Jane Doe",
		Offer:       "training services",
		CTA:         "book a call",
		SellerName:  "Sam Seller",
	}
}

func TestWorkflowRun(t *testing.T) {
	exec := &fakeExecutor{outputs: map[string]string{
		"quality_review": "Subject: Hi\nEmail: Hello Jane",
	}}
	w, err := NewWorkflow(exec)
	require.NoError(t, err)

	out, err := w.Run(context.Background(), testInputs())
	require.NoError(t, err)
	assert.Equal(t, "Subject: Hi\nEmail: Hello Jane", out)

	// Two single-task analysis calls, then one composition call with both
	// remaining tasks in order.
	require.Len(t, exec.calls, 3)
	analysisCalls := []string{}
	for _, c := range exec.calls[:2] {
		require.Len(t, c, 1)
		analysisCalls = append(analysisCalls, c[0])
	}
	assert.ElementsMatch(t, []string{"profile_analysis", "company_analysis"}, analysisCalls)
	assert.Equal(t, []string{"email_creation", "quality_review"}, exec.calls[2])
}

func TestWorkflowAnalysisFailureAborts(t *testing.T) {
	exec := &fakeExecutor{failOn: "company_analysis"}
	w, err := NewWorkflow(exec)
	require.NoError(t, err)

	_, err = w.Run(context.Background(), testInputs())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analysis stage")

	// The composition round never ran.
	for _, call := range exec.calls {
		assert.NotContains(t, call, "email_creation")
	}
}

func TestWorkflowCompositionFailureAborts(t *testing.T) {
	exec := &fakeExecutor{failOn: "quality_review"}
	w, err := NewWorkflow(exec)
	require.NoError(t, err)

	_, err = w.Run(context.Background(), testInputs())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "composition stage")
}

func TestWorkflowEmptyFinalOutput(t *testing.T) {
	exec := &fakeExecutor{outputs: map[string]string{
		"quality_review": "   \n",
	}}
	w, err := NewWorkflow(exec)
	require.NoError(t, err)

	_, err = w.Run(context.Background(), testInputs())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty output")
}

func TestWorkflowRendersTaskDescriptions(t *testing.T) {
	var captured []Task
	var mu sync.Mutex
	exec := &captureExecutor{onExecute: func(tasks []Task) {
		mu.Lock()
		captured = append(captured, tasks...)
		mu.Unlock()
	}}
	w, err := NewWorkflow(exec)
	require.NoError(t, err)

	_, err = w.Run(context.Background(), testInputs())
	require.NoError(t, err)

	byName := map[string]Task{}
	for _, task := range captured {
		byName[task.Name] = task
	}
	assert.Contains(t, byName["profile_analysis"].Description, "Jane Doe")
	assert.Contains(t, byName["profile_analysis"].Description, "first_name: Jane")
	assert.Contains(t, byName["company_analysis"].Description, "company: Acme")
	assert.Contains(t, byName["email_creation"].Description, "training services")
	assert.Contains(t, byName["email_creation"].Description, "book a call")
	assert.Contains(t, byName["email_creation"].Description, "Sam Seller")
	assert.NotContains(t, byName["email_creation"].Description, "{offer}")
}

// captureExecutor forwards task lists to a callback and returns generic
// output for each task.
type captureExecutor struct {
	onExecute func(tasks []Task)
}

func (c *captureExecutor) Execute(ctx context.Context, agents []Agent, tasks []Task, upstream map[string]string) (*Result, error) {
	c.onExecute(tasks)
	res := &Result{Outputs: map[string]string{}}
	for _, task := range tasks {
		res.Outputs[task.Name] = "output of " + task.Name
		res.Final = res.Outputs[task.Name]
	}
	return res, nil
}
