package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/pkg/anthropic"
)

// fakeAnthropicClient replies with canned text per request index.
type fakeAnthropicClient struct {
	requests  []anthropic.MessageRequest
	responses []string
	err       error
}

func (f *fakeAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	idx := len(f.requests)
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	text := "response"
	if idx < len(f.responses) {
		text = f.responses[idx]
	}
	return &anthropic.MessageResponse{
		Text:       text,
		StopReason: "end_turn",
		Usage:      anthropic.TokenUsage{InputTokens: 100, OutputTokens: 50},
	}, nil
}

func testExecutorConfig() config.AnthropicConfig {
	return config.AnthropicConfig{
		Model:          "claude-sonnet-4-5-20250929",
		MaxTokens:      1024,
		Temperature:    0.7,
		RequestsPerMin: 6000, // keep the limiter out of the way in tests
	}
}

var testAgents = []Agent{
	{Name: "analyst", Role: "Profile Analyst", Goal: "analyze", Backstory: "You analyze profiles."},
	{Name: "writer", Role: "Copywriter", Goal: "write", Backstory: "You write emails."},
}

func TestExecutorRunsTasksInOrder(t *testing.T) {
	client := &fakeAnthropicClient{responses: []string{"analysis output", "draft output"}}
	exec := NewAnthropicExecutor(client, testExecutorConfig())

	res, err := exec.Execute(context.Background(), testAgents, []Task{
		{Name: "analyze", Agent: "analyst", Description: "Analyze the profile."},
		{Name: "draft", Agent: "writer", Description: "Write the email.", Context: []string{"analyze"}},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "analysis output", res.Outputs["analyze"])
	assert.Equal(t, "draft output", res.Outputs["draft"])
	assert.Equal(t, "draft output", res.Final)
	assert.Equal(t, int64(200), res.Usage.InputTokens)
	assert.Equal(t, int64(100), res.Usage.OutputTokens)

	require.Len(t, client.requests, 2)
	// Agent identity lands in the system prompt.
	assert.Contains(t, client.requests[0].System, "Profile Analyst")
	assert.Contains(t, client.requests[1].System, "Copywriter")
	// Upstream output is injected into the dependent task's prompt.
	require.Len(t, client.requests[1].Messages, 1)
	assert.Contains(t, client.requests[1].Messages[0].Content, "analysis output")
	assert.Contains(t, client.requests[1].Messages[0].Content, "Write the email.")
}

func TestExecutorUsesUpstreamOutputs(t *testing.T) {
	client := &fakeAnthropicClient{}
	exec := NewAnthropicExecutor(client, testExecutorConfig())

	_, err := exec.Execute(context.Background(), testAgents, []Task{
		{Name: "draft", Agent: "writer", Description: "Write it.", Context: []string{"analyze"}},
	}, map[string]string{"analyze": "prior round output"})
	require.NoError(t, err)

	require.Len(t, client.requests, 1)
	assert.Contains(t, client.requests[0].Messages[0].Content, "prior round output")
}

func TestExecutorMissingContext(t *testing.T) {
	client := &fakeAnthropicClient{}
	exec := NewAnthropicExecutor(client, testExecutorConfig())

	_, err := exec.Execute(context.Background(), testAgents, []Task{
		{Name: "draft", Agent: "writer", Description: "Write it.", Context: []string{"never_ran"}},
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "never_ran")
	assert.Empty(t, client.requests)
}

func TestExecutorUnknownAgent(t *testing.T) {
	client := &fakeAnthropicClient{}
	exec := NewAnthropicExecutor(client, testExecutorConfig())

	_, err := exec.Execute(context.Background(), testAgents, []Task{
		{Name: "draft", Agent: "nobody", Description: "Write it."},
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown agent")
}

func TestExecutorBackendError(t *testing.T) {
	client := &fakeAnthropicClient{err: assert.AnError}
	exec := NewAnthropicExecutor(client, testExecutorConfig())

	_, err := exec.Execute(context.Background(), testAgents, []Task{
		{Name: "analyze", Agent: "analyst", Description: "Analyze."},
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analyze")
}

func TestExecutorEmptyResponse(t *testing.T) {
	client := &fakeAnthropicClient{responses: []string{"   "}}
	exec := NewAnthropicExecutor(client, testExecutorConfig())

	_, err := exec.Execute(context.Background(), testAgents, []Task{
		{Name: "analyze", Agent: "analyst", Description: "Analyze."},
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "produced no text")
}

func TestBuildTaskPromptExpectedOutput(t *testing.T) {
	prompt, err := buildTaskPrompt(Task{
		Name:           "draft",
		Description:    "Write the email.",
		ExpectedOutput: "Subject and Email labels.",
	}, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Write the email.")
	assert.Contains(t, prompt, "Expected output: Subject and Email labels.")
}
