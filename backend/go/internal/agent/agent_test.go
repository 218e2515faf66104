package agent

import (
	"SafetyCompliance/backend/go/internal/compliance_service/service"
	"SafetyCompliance/backend/go/internal/compliance_service/store"
	"SafetyCompliance/backend/go/internal/config"
	"SafetyCompliance/backend/go/internal/database"
	"SafetyCompliance/backend/go/internal/database/sqlite"
	"SafetyCompliance/backend/go/internal/models"
	"SafetyCompliance/backend/go/internal/office"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// nopGenerator 返回固定路径，不写文件。
type nopGenerator struct{}

func (nopGenerator) AuditReportDocx(a *models.Audit) (string, error) {
	return "/out/audit_" + models.ShortID(a.ID) + ".docx", nil
}
func (nopGenerator) AuditFindingsXlsx(a *models.Audit) (string, error) {
	return "/out/audit_" + models.ShortID(a.ID) + ".xlsx", nil
}
func (nopGenerator) RiskRegisterXlsx([]models.Risk) (string, error) {
	return "/out/risk_register.xlsx", nil
}
func (nopGenerator) PolicyDocx(p *models.Policy) (string, error) {
	return "/out/policy_" + models.ShortID(p.ID) + ".docx", nil
}
func (nopGenerator) ExecutiveSummaryPptx([]models.Audit, []models.Risk) (string, error) {
	return "/out/executive_summary.pptx", nil
}

// scriptedModel 依次返回预设的回复，用完后重复最后一个。
type scriptedModel struct {
	mu        sync.Mutex
	responses []*models.ChatResponse
	err       error
	requests  []models.ChatRequest
}

func (m *scriptedModel) CreateMessage(_ context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, *req)
	if m.err != nil {
		return nil, m.err
	}
	i := len(m.requests) - 1
	if i >= len(m.responses) {
		i = len(m.responses) - 1
	}
	return m.responses[i], nil
}

func (m *scriptedModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func toolUse(id, name, input string) models.ContentBlock {
	return models.ToolUseBlock(id, name, json.RawMessage(input))
}

func toolTurn(blocks ...models.ContentBlock) *models.ChatResponse {
	return &models.ChatResponse{
		Content:    blocks,
		StopReason: models.StopToolUse,
		Usage:      models.Usage{InputTokens: 100, OutputTokens: 20},
	}
}

func finalTurn(text string) *models.ChatResponse {
	return &models.ChatResponse{
		Content:    []models.ContentBlock{models.TextBlock(text)},
		StopReason: models.StopEndTurn,
		Usage:      models.Usage{InputTokens: 150, OutputTokens: 5},
	}
}

type testEnv struct {
	store      *store.Store
	svc        *service.Service
	dispatcher *Dispatcher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, nopGenerator{})
}

func newTestEnvWith(t *testing.T, gen office.Generator) *testEnv {
	t.Helper()
	db, err := sqlite.Open(sqlite.MemoryDSN)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	st := store.NewStore(db)
	svc := service.NewService(st, gen)
	return &testEnv{store: st, svc: svc, dispatcher: NewDispatcher(svc, nil)}
}

func (env *testEnv) engine(model *scriptedModel, maxIter int) *Engine {
	llmCfg := config.LLMConfig{Provider: "anthropic", Anthropic: config.ProviderConfig{APIKey: "test-key"}}
	return NewEngine(config.AgentConfig{MaxIterations: maxIter, MaxTokens: 1024}, llmCfg, model, env.store, env.dispatcher)
}

func (env *testEnv) seedFramework(t *testing.T) *models.ComplianceFramework {
	t.Helper()
	fw, _, err := env.svc.ImportFramework(context.Background(), []byte(`
name: GDPR
version: "2016/679"
controls:
  - id: Art.5
    title: Principles relating to processing
    description: Lawfulness, fairness and transparency
    category: Principles
  - id: Art.32
    title: Security of processing
    category: Security
`))
	require.NoError(t, err)
	return fw
}

var errProvider = errors.New("overloaded_error: Overloaded")
