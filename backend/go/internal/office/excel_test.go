package office

import (
	"SafetyCompliance/backend/go/internal/models"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestRiskRegisterXlsx(t *testing.T) {
	g := NewFileGenerator(filepath.Join(t.TempDir(), "out"))
	risks := []models.Risk{
		{ID: "11111111-aaaa", Title: "Ransomware", Category: "Security", Likelihood: 4, Impact: 5, Score: 20, Status: "identified", Owner: "CISO"},
		{ID: "22222222-bbbb", Title: "Vendor outage", Likelihood: 2, Impact: 3, Score: 6, Status: "identified"},
	}

	path, err := g.RiskRegisterXlsx(risks)
	require.NoError(t, err)
	assert.Equal(t, "risk_register.xlsx", filepath.Base(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Risk Register")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Risk ID", "Title", "Category", "Likelihood", "Impact", "Score", "Status", "Owner", "Description"}, rows[0])
	assert.Equal(t, "11111111", rows[1][0])
	assert.Equal(t, "Ransomware", rows[1][1])
	assert.Equal(t, "20", rows[1][5])

	v, err := f.GetCellValue("Risk Register", "B3")
	require.NoError(t, err)
	assert.Equal(t, "Vendor outage", v)
}

func TestAuditFindingsXlsx(t *testing.T) {
	g := NewFileGenerator(t.TempDir())
	audit := &models.Audit{
		ID:    "abcdef12-3456",
		Title: "GDPR review",
		Findings: []models.AuditFinding{
			{ControlID: "Art.32", Title: "No encryption", Severity: models.SeverityCritical, Status: "open"},
			{ControlID: "Art.5", Title: "Retention undefined", Severity: models.SeverityLow, Status: "open", Recommendation: "Define schedule"},
		},
	}

	path, err := g.AuditFindingsXlsx(audit)
	require.NoError(t, err)
	assert.Equal(t, "audit_abcdef12.xlsx", filepath.Base(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Audit Findings")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Severity", rows[0][0])
	assert.Equal(t, "CRITICAL", rows[1][0])
	assert.Equal(t, "Art.32", rows[1][1])
	assert.Equal(t, "LOW", rows[2][0])
	assert.Equal(t, "Define schedule", rows[2][4])
}

func TestScoreColor(t *testing.T) {
	assert.Equal(t, "FF0000", ScoreColor(16))
	assert.Equal(t, "FF0000", ScoreColor(25))
	assert.Equal(t, "FFCC00", ScoreColor(9))
	assert.Equal(t, "FFCC00", ScoreColor(15))
	assert.Equal(t, "92D050", ScoreColor(8))
}

func TestSortedFindings_StableBySeverity(t *testing.T) {
	in := []models.AuditFinding{
		{Title: "a", Severity: models.SeverityLow},
		{Title: "b", Severity: models.SeverityCritical},
		{Title: "c", Severity: models.SeverityLow},
		{Title: "d", Severity: "unknown"},
		{Title: "e", Severity: models.SeverityHigh},
	}
	out := SortedFindings(in)
	var titles []string
	for _, f := range out {
		titles = append(titles, f.Title)
	}
	assert.Equal(t, []string{"b", "e", "a", "c", "d"}, titles)
	assert.Equal(t, "a", in[0].Title)
}

func TestSummarizeAndTopRisks(t *testing.T) {
	audits := []models.Audit{{Status: models.AuditCompleted}, {Status: models.AuditPending}}
	risks := []models.Risk{{Title: "r1", Score: 4}, {Title: "r2", Score: 20}, {Title: "r3", Score: 12}, {Title: "r4", Score: 16}}

	s := Summarize(audits, risks)
	assert.Equal(t, SummaryStats{TotalAudits: 2, CompletedAudits: 1, TotalRisks: 4, HighRisks: 2, MediumRisks: 1}, s)
	assert.Equal(t, "Total Audits: 2 (1 completed)", s.OverviewLines()[0])
	assert.Equal(t, "High Risks (16+): 2", s.OverviewLines()[2])

	top := TopRisks(risks, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "r2", top[0].Title)
	assert.Equal(t, "r4", top[1].Title)
}
