package cmd

import (
	"SafetyCompliance/backend/go/internal/models"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, h http.HandlerFunc) *apiClient {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return newAPIClient(ts.URL, "secret", nil)
}

func TestCheck_UsesErrorField(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Audit not found"})
	})
	_, err := c.getAudit("missing")
	assert.EqualError(t, err, "Audit not found")
}

func TestCheck_FallsBackToStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "upstream down")
	})
	_, err := c.listRisks()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestClient_SendsBearerTokenAndBasePath(t *testing.T) {
	var gotAuth, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		writeJSON(w, http.StatusOK, []models.Audit{})
	})
	_, err := c.listAudits()
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "/api/v1/audits", gotPath)
}

func TestExecute_DecodesRunResult(t *testing.T) {
	var instruction string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		instruction = body["instruction"]
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"task_id": "t1", "status": "completed", "result": "done", "iterations": 3, "tokens_used": 120,
		})
	})
	res, err := c.execute("List frameworks")
	require.NoError(t, err)
	assert.Equal(t, "List frameworks", instruction)
	assert.Equal(t, models.TaskStatusCompleted, res.Status)
	assert.Equal(t, 3, res.Iterations)
	assert.Equal(t, 120, res.TokensUsed)
}

func TestRunAgent_FailedTaskIsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "failed", "result": "Error: ANTHROPIC_API_KEY not configured."})
	})
	_, err := runAgent(c, "anything")
	assert.EqualError(t, err, "Error: ANTHROPIC_API_KEY not configured.")
}

func TestFindFramework(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/frameworks":
			writeJSON(w, http.StatusOK, []models.ComplianceFramework{{ID: "f1", Name: "GDPR"}})
		case "/api/v1/frameworks/f1":
			writeJSON(w, http.StatusOK, models.ComplianceFramework{
				ID: "f1", Name: "GDPR",
				Controls: []models.FrameworkControl{{ControlID: "Art.5", Title: "Principles"}},
			})
		default:
			http.NotFound(w, r)
		}
	})

	fw, err := c.findFramework("GDPR")
	require.NoError(t, err)
	require.Len(t, fw.Controls, 1)
	assert.Equal(t, "Art.5", fw.Controls[0].ControlID)

	_, err = c.findFramework("HIPAA")
	assert.EqualError(t, err, "Framework 'HIPAA' not found")
}

func TestImportFramework_CreatedVersusExisting(t *testing.T) {
	status := http.StatusCreated
	var contentType, body string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		writeJSON(w, status, models.ComplianceFramework{ID: "f1", Name: "SOC 2"})
	})
	path := filepath.Join(t.TempDir(), "soc2.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: SOC 2\n"), 0o644))

	fw, created, err := c.importFramework(path)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "SOC 2", fw.Name)
	assert.Equal(t, "application/x-yaml", contentType)
	assert.Equal(t, "name: SOC 2\n", body)

	status = http.StatusOK
	_, created, err = c.importFramework(path)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestDistributePolicy(t *testing.T) {
	var got struct {
		Channel    string   `json:"channel"`
		Recipients []string `json:"recipients"`
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, map[string]interface{}{"distributed": len(got.Recipients), "channel": got.Channel})
	})
	n, err := c.distributePolicy("p1", "teams", []string{"a@example.com", "b@example.com"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "teams", got.Channel)
}

func TestDownloadReport(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/reports/r1":
			writeJSON(w, http.StatusOK, models.Report{ID: "r1", FilePath: "/srv/output/risk_register.xlsx", Format: models.FormatXlsx})
		case "/api/v1/reports/r1/download":
			w.Header().Set("Content-Type", models.FormatXlsx.ContentType())
			io.WriteString(w, "xlsx-bytes")
		default:
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Report not found"})
		}
	})
	dir := t.TempDir()
	path, err := c.downloadReport("r1", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "risk_register.xlsx"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "xlsx-bytes", string(data))

	_, err = c.downloadReport("missing", dir)
	assert.EqualError(t, err, "Report not found")
}
