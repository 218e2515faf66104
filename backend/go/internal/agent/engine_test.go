package agent

import (
	"SafetyCompliance/backend/go/internal/config"
	"SafetyCompliance/backend/go/internal/models"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_MissingCredentialCostsNothing(t *testing.T) {
	env := newTestEnv(t)
	model := &scriptedModel{responses: []*models.ChatResponse{finalTurn("never")}}
	e := NewEngine(config.AgentConfig{}, config.LLMConfig{Provider: "anthropic"}, model, env.store, env.dispatcher)

	res := e.Run(context.Background(), "Assess risks")
	assert.Equal(t, "", res.TaskID)
	assert.Equal(t, models.TaskStatusFailed, res.Status)
	assert.Equal(t, "Error: ANTHROPIC_API_KEY not configured. Run 'scm config init' and set your API key.", res.Result)
	assert.Zero(t, res.Iterations)
	assert.Zero(t, res.TokensUsed)
	assert.Zero(t, model.calls())

	tasks, err := env.store.ListTasks(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestRun_MissingCredentialNamesProviderEnv(t *testing.T) {
	env := newTestEnv(t)
	e := NewEngine(config.AgentConfig{}, config.LLMConfig{Provider: "openai"}, &scriptedModel{}, env.store, env.dispatcher)
	res := e.Run(context.Background(), "x")
	assert.True(t, strings.HasPrefix(res.Result, "Error: OPENAI_API_KEY not configured."))
}

func TestRun_AssessRiskThenDone(t *testing.T) {
	env := newTestEnv(t)
	model := &scriptedModel{responses: []*models.ChatResponse{
		toolTurn(toolUse("tu_1", ToolAssessRisk, `{"title":"Phishing","likelihood":3,"impact":4}`)),
		finalTurn("Done"),
	}}
	res := env.engine(model, 20).Run(context.Background(), "Perform a risk assessment.")

	assert.Equal(t, models.TaskStatusCompleted, res.Status)
	assert.Equal(t, "Done", res.Result)
	assert.Equal(t, 2, res.Iterations)
	assert.Equal(t, 120+155, res.TokensUsed)
	require.NotEmpty(t, res.TaskID)

	risks, err := env.store.ListRisks(context.Background())
	require.NoError(t, err)
	require.Len(t, risks, 1)
	assert.Equal(t, 12, risks[0].Score)

	task, err := env.store.GetTask(context.Background(), res.TaskID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, task.Status)
	assert.Equal(t, "Done", task.Result)
	assert.Equal(t, 2, task.Iterations)
	assert.NotNil(t, task.CompletedAt)

	execs, err := env.store.ListToolExecutions(context.Background(), res.TaskID)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, ToolAssessRisk, execs[0].Name)
	assert.False(t, execs[0].IsError)

	first := model.requests[0]
	assert.True(t, strings.HasPrefix(first.System, SystemPrompt))
	assert.True(t, strings.HasSuffix(first.System, "\n\nCurrent System State:\nNo existing data."))
	assert.Len(t, first.Tools, 11)
	assert.Equal(t, 1024, first.MaxTokens)
	assert.Equal(t, first.System, model.requests[1].System, "snapshot is built once per invocation")
}

func TestRun_StopsAtIterationCapAsCompleted(t *testing.T) {
	env := newTestEnv(t)
	model := &scriptedModel{responses: []*models.ChatResponse{
		toolTurn(models.TextBlock("Still working"), toolUse("tu", ToolQueryRisks, `{}`)),
	}}
	res := env.engine(model, 3).Run(context.Background(), "loop forever")

	assert.Equal(t, models.TaskStatusCompleted, res.Status)
	assert.Equal(t, 3, res.Iterations)
	assert.Equal(t, 3, model.calls())
	assert.Equal(t, "Still working", res.Result)
	assert.Equal(t, 3*120, res.TokensUsed)
}

func TestRun_UnknownToolDoesNotStopLoop(t *testing.T) {
	env := newTestEnv(t)
	model := &scriptedModel{responses: []*models.ChatResponse{
		toolTurn(toolUse("tu_x", "foo", `{}`)),
		finalTurn("Recovered"),
	}}
	res := env.engine(model, 5).Run(context.Background(), "call foo")

	assert.Equal(t, models.TaskStatusCompleted, res.Status)
	assert.Equal(t, 2, res.Iterations)
	msgs := model.requests[1].Messages
	last := msgs[len(msgs)-1]
	require.Len(t, last.Content, 1)
	assert.Equal(t, `{"error": "Unknown tool: foo"}`, last.Content[0].Content)
	assert.Equal(t, "tu_x", last.Content[0].ToolUseID)
}

func TestRun_ToolResultsKeepEmissionOrder(t *testing.T) {
	env := newTestEnv(t)
	model := &scriptedModel{responses: []*models.ChatResponse{
		toolTurn(
			toolUse("tu_a", ToolQueryAudits, `{}`),
			toolUse("tu_b", "nope", `{}`),
			toolUse("tu_c", ToolQueryPolicies, `{}`),
		),
		finalTurn("ok"),
	}}
	res := env.engine(model, 5).Run(context.Background(), "three tools")
	require.Equal(t, models.TaskStatusCompleted, res.Status)

	msgs := model.requests[1].Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)
	assert.Len(t, msgs[1].Content, 3)

	results := msgs[2].Content
	require.Len(t, results, 3)
	for i, id := range []string{"tu_a", "tu_b", "tu_c"} {
		assert.Equal(t, models.BlockToolResult, results[i].Type)
		assert.Equal(t, id, results[i].ToolUseID)
	}
	assert.Equal(t, "[]", results[0].Content)
	assert.True(t, results[1].IsError)
}

func TestRun_ProviderErrorFailsTask(t *testing.T) {
	env := newTestEnv(t)
	model := &scriptedModel{err: errProvider}
	res := env.engine(model, 5).Run(context.Background(), "anything")

	assert.Equal(t, models.TaskStatusFailed, res.Status)
	assert.Equal(t, "Error: "+errProvider.Error(), res.Result)
	assert.Equal(t, 1, res.Iterations)
	assert.Zero(t, res.TokensUsed)

	task, err := env.store.GetTask(context.Background(), res.TaskID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusFailed, task.Status)
	assert.Equal(t, errProvider.Error(), task.Error)
	assert.NotNil(t, task.CompletedAt)
}

func TestRun_NoToolUseEndsEvenWithoutEndTurn(t *testing.T) {
	env := newTestEnv(t)
	model := &scriptedModel{responses: []*models.ChatResponse{{
		Content:    []models.ContentBlock{models.TextBlock("partial"), models.TextBlock("answer")},
		StopReason: models.StopMaxTokens,
	}}}
	res := env.engine(model, 5).Run(context.Background(), "x")
	assert.Equal(t, models.TaskStatusCompleted, res.Status)
	assert.Equal(t, 1, res.Iterations)
	assert.Equal(t, "partial\nanswer", res.Result)
}

func TestRun_ToolPanicStillFinishesTask(t *testing.T) {
	env := newTestEnvWith(t, panicGenerator{})
	model := &scriptedModel{responses: []*models.ChatResponse{
		toolTurn(toolUse("tu_doc", ToolGenerateDocument, `{"doc_type":"risk_register","format":"xlsx"}`)),
		finalTurn("Could not produce the register"),
	}}
	res := env.engine(model, 5).Run(context.Background(), "Generate the risk register")

	assert.Equal(t, models.TaskStatusCompleted, res.Status)
	assert.Equal(t, 2, res.Iterations)
	msgs := model.requests[1].Messages
	last := msgs[len(msgs)-1]
	require.Len(t, last.Content, 1)
	assert.True(t, last.Content[0].IsError)
	assert.Equal(t, `{"error": "xlsx writer exploded"}`, last.Content[0].Content)

	task, err := env.store.GetTask(context.Background(), res.TaskID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, task.Status)
}

func TestRun_DropsEmptyTextBlocksFromAssistantTurn(t *testing.T) {
	env := newTestEnv(t)
	model := &scriptedModel{responses: []*models.ChatResponse{
		toolTurn(models.TextBlock(""), toolUse("tu_1", ToolQueryRisks, `{}`)),
		finalTurn("ok"),
	}}
	res := env.engine(model, 5).Run(context.Background(), "x")
	require.Equal(t, models.TaskStatusCompleted, res.Status)

	assistant := model.requests[1].Messages[1]
	require.Equal(t, models.RoleAssistant, assistant.Role)
	require.Len(t, assistant.Content, 1)
	assert.Equal(t, models.BlockToolUse, assistant.Content[0].Type)
}

type recordingProgress struct {
	statuses []models.TaskLogStatus
}

func (p *recordingProgress) LogTaskProgress(_ context.Context, e *models.TaskLogEntry) error {
	p.statuses = append(p.statuses, e.Status)
	return nil
}

type recordingTranscripts struct {
	saved []*models.Transcript
}

func (a *recordingTranscripts) SaveTranscript(_ context.Context, t *models.Transcript) error {
	a.saved = append(a.saved, t)
	return nil
}

func TestRun_PublishesProgressAndArchivesTranscript(t *testing.T) {
	env := newTestEnv(t)
	progress := &recordingProgress{}
	transcripts := &recordingTranscripts{}
	model := &scriptedModel{responses: []*models.ChatResponse{
		toolTurn(toolUse("tu_1", ToolQueryRisks, `{}`)),
		finalTurn("Done"),
	}}
	llmCfg := config.LLMConfig{Provider: "anthropic", Anthropic: config.ProviderConfig{APIKey: "k"}}
	e := NewEngine(config.AgentConfig{MaxIterations: 5}, llmCfg, model, env.store, env.dispatcher,
		WithProgressPublisher(progress), WithTranscriptArchiver(transcripts))

	res := e.Run(context.Background(), "list risks")
	require.Equal(t, models.TaskStatusCompleted, res.Status)
	assert.Equal(t, []models.TaskLogStatus{
		models.StatusThinking, models.StatusCallingTool, models.StatusObserving,
		models.StatusThinking, models.StatusFinished,
	}, progress.statuses)

	require.Len(t, transcripts.saved, 1)
	tr := transcripts.saved[0]
	assert.Equal(t, res.TaskID, tr.TaskID)
	assert.Len(t, tr.Messages, 3)
}
