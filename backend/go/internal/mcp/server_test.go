package mcp

import (
	"SafetyCompliance/backend/go/internal/agent"
	"SafetyCompliance/backend/go/internal/compliance_service/service"
	"SafetyCompliance/backend/go/internal/compliance_service/store"
	"SafetyCompliance/backend/go/internal/database"
	"SafetyCompliance/backend/go/internal/database/sqlite"
	"SafetyCompliance/backend/go/internal/models"
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noDocs struct{}

func (noDocs) AuditReportDocx(*models.Audit) (string, error)   { return "", nil }
func (noDocs) AuditFindingsXlsx(*models.Audit) (string, error) { return "", nil }
func (noDocs) RiskRegisterXlsx([]models.Risk) (string, error)  { return "", nil }
func (noDocs) PolicyDocx(*models.Policy) (string, error)       { return "", nil }
func (noDocs) ExecutiveSummaryPptx([]models.Audit, []models.Risk) (string, error) {
	return "", nil
}

func newTestServer(t *testing.T) *server.MCPServer {
	t.Helper()
	db, err := sqlite.Open(sqlite.MemoryDSN)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	svc := service.NewService(store.NewStore(db), noDocs{})
	return NewServer(agent.NewDispatcher(svc, nil), "test")
}

type rpcResponse struct {
	Result struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func call(t *testing.T, s *server.MCPServer, msg string) rpcResponse {
	t.Helper()
	out := s.HandleMessage(context.Background(), json.RawMessage(msg))
	b, err := json.Marshal(out)
	require.NoError(t, err)
	var resp rpcResponse
	require.NoError(t, json.Unmarshal(b, &resp), string(b))
	return resp
}

func TestServer_ListsAgentTools(t *testing.T) {
	s := newTestServer(t)
	resp := call(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	require.Nil(t, resp.Error)
	names := map[string]bool{}
	for _, tool := range resp.Result.Tools {
		names[tool.Name] = true
	}
	assert.Len(t, names, len(agent.Tools()))
	assert.True(t, names[agent.ToolAssessRisk])
	assert.True(t, names[agent.ToolGenerateDocument])
}

func TestServer_CallTool(t *testing.T) {
	s := newTestServer(t)
	resp := call(t, s, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"assess_risk","arguments":{"title":"Vendor breach","likelihood":3,"impact":4}}}`)
	require.Nil(t, resp.Error)
	require.Len(t, resp.Result.Content, 1)
	assert.False(t, resp.Result.IsError)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resp.Result.Content[0].Text), &payload))
	assert.EqualValues(t, 12, payload["score"])
	assert.Equal(t, "Vendor breach", payload["title"])
}

func TestServer_CallToolErrorResult(t *testing.T) {
	s := newTestServer(t)
	resp := call(t, s, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"complete_audit","arguments":{"audit_id":"nope","summary":"x"}}}`)
	require.Nil(t, resp.Error)
	assert.True(t, resp.Result.IsError)
	require.Len(t, resp.Result.Content, 1)
	assert.Equal(t, `{"error": "Audit not found"}`, resp.Result.Content[0].Text)
}

func TestServe_UnsupportedTransport(t *testing.T) {
	err := Serve(newTestServer(t), "carrier-pigeon", ":0")
	assert.EqualError(t, err, "unsupported transport type: 'carrier-pigeon'")
}
