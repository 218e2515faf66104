package service

import (
	"SafetyCompliance/backend/go/internal/compliance_service/store"
	"SafetyCompliance/backend/go/internal/database"
	"SafetyCompliance/backend/go/internal/database/sqlite"
	"SafetyCompliance/backend/go/internal/models"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gdprYAML = `
name: GDPR
version: "2016/679"
description: General Data Protection Regulation
controls:
  - id: Art.5
    title: Principles relating to processing
    category: Principles
  - id: Art.32
    title: Security of processing
    category: Security
`

// stubGenerator 记录调用并返回固定路径，不写文件。
type stubGenerator struct {
	calls []string
	fail  bool
}

func (g *stubGenerator) out(name string) (string, error) {
	g.calls = append(g.calls, name)
	if g.fail {
		return "", errors.New("disk full")
	}
	return "/tmp/" + name, nil
}

func (g *stubGenerator) AuditReportDocx(a *models.Audit) (string, error) {
	return g.out("audit_" + models.ShortID(a.ID) + ".docx")
}
func (g *stubGenerator) AuditFindingsXlsx(a *models.Audit) (string, error) {
	return g.out("audit_" + models.ShortID(a.ID) + ".xlsx")
}
func (g *stubGenerator) RiskRegisterXlsx([]models.Risk) (string, error) {
	return g.out("risk_register.xlsx")
}
func (g *stubGenerator) PolicyDocx(p *models.Policy) (string, error) {
	return g.out("policy_" + models.ShortID(p.ID) + ".docx")
}
func (g *stubGenerator) ExecutiveSummaryPptx([]models.Audit, []models.Risk) (string, error) {
	return g.out("executive_summary.pptx")
}

type recordingPublisher struct {
	reqs []models.DistributionRequest
}

func (p *recordingPublisher) PublishDistributions(_ context.Context, reqs []models.DistributionRequest) error {
	p.reqs = append(p.reqs, reqs...)
	return nil
}

type recordingArchive struct {
	paths []string
}

func (a *recordingArchive) Archive(_ context.Context, localPath, _ string) (string, error) {
	a.paths = append(a.paths, localPath)
	return "reports/" + filepath.Base(localPath), nil
}

func newTestService(t *testing.T, opts ...Option) (*Service, *stubGenerator) {
	t.Helper()
	db, err := sqlite.Open(sqlite.MemoryDSN)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	gen := &stubGenerator{}
	return NewService(store.NewStore(db), gen, opts...), gen
}

func importGDPR(t *testing.T, s *Service) *models.ComplianceFramework {
	t.Helper()
	fw, created, err := s.ImportFramework(context.Background(), []byte(gdprYAML))
	require.NoError(t, err)
	require.True(t, created)
	return fw
}

func TestParseFramework(t *testing.T) {
	fw, err := ParseFramework([]byte("name: SOC 2\ncontrols:\n  - id: CC1.1\n    title: Integrity\n"))
	require.NoError(t, err)
	assert.Equal(t, "SOC 2", fw.Name)
	assert.Equal(t, "1.0", fw.Version)
	require.Len(t, fw.Controls, 1)
	assert.Equal(t, "CC1.1", fw.Controls[0].ControlID)

	_, err = ParseFramework([]byte("version: 1"))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = ParseFramework([]byte("name: X\ncontrols:\n  - title: no id\n"))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestImportFramework_SkipsExistingName(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	first := importGDPR(t, s)
	assert.Len(t, first.Controls, 2)

	again, created, err := s.ImportFramework(ctx, []byte(gdprYAML))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	all, err := s.ListFrameworks(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestImportAllFrameworks_MatchesPatternInOrder(t *testing.T) {
	s, _ := newTestService(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b_soc2.yaml"), []byte("name: SOC 2\ncontrols:\n  - id: CC1.1\n    title: Integrity\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_gdpr.yaml"), []byte(gdprYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	fws, err := s.ImportAllFrameworks(context.Background(), dir, "*.yaml")
	require.NoError(t, err)
	require.Len(t, fws, 2)
	assert.Equal(t, "GDPR", fws[0].Name)
	assert.Equal(t, "SOC 2", fws[1].Name)

	none, err := s.ImportAllFrameworks(context.Background(), filepath.Join(dir, "missing"), "*.yaml")
	require.NoError(t, err)
	assert.Empty(t, none)
}

// 仓库自带的框架目录
func TestImportAllFrameworks_SeedCatalogue(t *testing.T) {
	s, _ := newTestService(t)
	fws, err := s.ImportAllFrameworks(context.Background(), filepath.Join("..", "..", "..", "..", "..", "data", "frameworks"), "*.yaml")
	require.NoError(t, err)
	require.Len(t, fws, 3)
	assert.Equal(t, "GDPR", fws[0].Name)
	assert.Equal(t, "ISO 27001", fws[1].Name)
	assert.Equal(t, "SOC 2", fws[2].Name)
	for _, fw := range fws {
		assert.NotEmpty(t, fw.Controls, fw.Name)
		assert.NotEmpty(t, fw.Categories(), fw.Name)
	}
}

func TestAuditLifecycle(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	fw := importGDPR(t, s)

	audit, err := s.CreateAudit(ctx, AuditInput{FrameworkID: fw.ID})
	require.NoError(t, err)
	assert.Equal(t, DefaultAuditTitle, audit.Title)
	assert.Equal(t, models.AuditPending, audit.Status)

	_, err = s.CreateAudit(ctx, AuditInput{FrameworkID: "nope"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.AddFinding(ctx, FindingInput{AuditID: audit.ID, Title: "x", Severity: "urgent"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	f, err := s.AddFinding(ctx, FindingInput{AuditID: audit.ID, ControlID: "Art.32", Title: "No encryption"})
	require.NoError(t, err)
	assert.Equal(t, models.SeverityMedium, f.Severity)

	_, err = s.AddFinding(ctx, FindingInput{AuditID: "missing", Title: "x", Severity: models.SeverityLow})
	assert.ErrorIs(t, err, store.ErrNotFound)

	done, err := s.CompleteAudit(ctx, audit.ID, "One gap found")
	require.NoError(t, err)
	assert.Equal(t, models.AuditCompleted, done.Status)
	assert.NotNil(t, done.CompletedAt)
	assert.Len(t, done.Findings, 1)
}

func TestCreateRisk_ValidatesScale(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.CreateRisk(ctx, RiskInput{Title: "r", Likelihood: 0, Impact: 3})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = s.CreateRisk(ctx, RiskInput{Title: "r", Likelihood: 3, Impact: 6})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	r, err := s.CreateRisk(ctx, RiskInput{Title: "Data breach", Likelihood: 4, Impact: 5})
	require.NoError(t, err)
	assert.Equal(t, 20, r.Score)
	assert.Equal(t, models.RiskStatusIdentified, r.Status)

	updated, err := s.UpdateRisk(ctx, r.ID, RiskUpdate{Likelihood: 2, Impact: 2, Status: "mitigating"})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Score)
	assert.Equal(t, "mitigating", updated.Status)

	m, err := s.AddMitigation(ctx, r.ID, MitigationInput{Action: "Encrypt backups"})
	require.NoError(t, err)
	assert.Equal(t, "planned", m.Status)
}

func TestBuildRiskMatrix(t *testing.T) {
	m := BuildRiskMatrix([]models.Risk{
		{Title: "a", Likelihood: 1, Impact: 5},
		{Title: "b", Likelihood: 5, Impact: 1},
		{Title: "c", Likelihood: 9, Impact: 0},
	})
	require.Len(t, m[4][0], 1)
	assert.Equal(t, "a", m[4][0][0].Title)
	require.Len(t, m[0][4], 2)
	assert.Equal(t, "c", m[0][4][1].Title)
}

func TestPolicy_HTMLContentAndDistribution(t *testing.T) {
	pub := &recordingPublisher{}
	s, _ := newTestService(t, WithDistributionPublisher(pub))
	ctx := context.Background()

	p, err := s.CreatePolicy(ctx, PolicyInput{
		Title:         "Access Control Policy",
		Content:       "<h1>Access</h1><p>Use <strong>MFA</strong>.</p>",
		ContentFormat: ContentHTML,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PolicyDraft, p.Status)

	got, err := s.GetPolicy(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Versions, 1)
	v := got.Versions[0]
	assert.Equal(t, 1, v.VersionNumber)
	assert.Equal(t, InitialChangeSummary, v.ChangeSummary)
	assert.Contains(t, v.Content, "# Access")
	assert.Contains(t, v.Content, "**MFA**")
	assert.NotContains(t, v.Content, "<p>")

	v2, err := s.AddPolicyVersion(ctx, p.ID, "Updated text", ContentMarkdown, "Tightened")
	require.NoError(t, err)
	assert.Equal(t, 2, v2.VersionNumber)

	approved, err := s.ApprovePolicy(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PolicyApproved, approved.Status)

	_, err = s.DistributePolicy(ctx, p.ID, "fax", []string{"a@example.com"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	ds, err := s.DistributePolicy(ctx, p.ID, models.ChannelEmail, []string{"a@example.com", "b@example.com"})
	require.NoError(t, err)
	assert.Len(t, ds, 2)
	require.Len(t, pub.reqs, 2)
	assert.Equal(t, p.ID, pub.reqs[0].PolicyID)
	assert.Equal(t, 2, pub.reqs[0].Version)
	assert.Equal(t, ds[1].ID, pub.reqs[1].DistributionID)
}

func TestGenerateDocument(t *testing.T) {
	arch := &recordingArchive{}
	s, gen := newTestService(t, WithReportArchive(arch))
	ctx := context.Background()
	fw := importGDPR(t, s)
	audit, err := s.CreateAudit(ctx, AuditInput{FrameworkID: fw.ID})
	require.NoError(t, err)

	r, err := s.GenerateDocument(ctx, DocumentRequest{DocType: models.DocAuditReport, Format: models.FormatXlsx, SourceID: audit.ID})
	require.NoError(t, err)
	assert.Equal(t, "audit_report document", r.Title)
	assert.Equal(t, "/tmp/audit_"+models.ShortID(audit.ID)+".xlsx", r.FilePath)
	assert.Equal(t, []string{r.FilePath}, arch.paths)

	r, err = s.GenerateDocument(ctx, DocumentRequest{DocType: models.DocRiskRegister, Format: models.FormatXlsx, Title: "Q3 register"})
	require.NoError(t, err)
	assert.Equal(t, "Q3 register", r.Title)

	cases := []DocumentRequest{
		{DocType: models.DocRiskRegister, Format: models.FormatDocx},
		{DocType: models.DocAuditReport, Format: models.FormatDocx},
		{DocType: models.DocAuditReport, Format: models.FormatDocx, SourceID: "missing"},
		{DocType: models.DocPolicyDocument, Format: models.FormatXlsx, SourceID: audit.ID},
	}
	for _, c := range cases {
		_, err := s.GenerateDocument(ctx, c)
		assert.ErrorIs(t, err, ErrUnsupportedDocument, "%s/%s", c.DocType, c.Format)
	}
	_, err = s.GenerateDocument(ctx, cases[0])
	assert.EqualError(t, err, "unsupported document: Could not generate risk_register in docx format")

	reports, err := s.ListReports(ctx)
	require.NoError(t, err)
	assert.Len(t, reports, 2)
	assert.Len(t, gen.calls, 2)

	gen.fail = true
	_, err = s.GenerateDocument(ctx, DocumentRequest{DocType: models.DocExecutiveSummary, Format: models.FormatPptx})
	assert.Error(t, err)
	reports, err = s.ListReports(ctx)
	require.NoError(t, err)
	assert.Len(t, reports, 2)
}
