package store

import (
	"SafetyCompliance/backend/go/internal/database"
	"SafetyCompliance/backend/go/internal/database/sqlite"
	"SafetyCompliance/backend/go/internal/models"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sqlite.Open(sqlite.MemoryDSN)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewStore(db)
}

func seedFramework(t *testing.T, s *Store) *models.ComplianceFramework {
	t.Helper()
	fw := &models.ComplianceFramework{
		Name:    "GDPR",
		Version: "2016/679",
		Controls: []models.FrameworkControl{
			{ControlID: "Art.5", Title: "Principles", Category: "Principles"},
			{ControlID: "Art.32", Title: "Security of processing", Category: "Security"},
			{ControlID: "Art.6", Title: "Lawfulness", Category: "Principles"},
		},
	}
	require.NoError(t, s.CreateFramework(context.Background(), fw))
	return fw
}

func TestFramework_ControlsKeepFileOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fw := seedFramework(t, s)

	got, err := s.GetFrameworkByName(ctx, "GDPR")
	require.NoError(t, err)
	assert.Equal(t, fw.ID, got.ID)
	require.Len(t, got.Controls, 3)
	assert.Equal(t, "Art.5", got.Controls[0].ControlID)
	assert.Equal(t, "Art.32", got.Controls[1].ControlID)
	assert.Equal(t, "Art.6", got.Controls[2].ControlID)
	assert.Equal(t, []string{"Principles", "Security"}, got.Categories())

	_, err = s.GetFrameworkByName(ctx, "gdpr")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAudit_FindingMovesToInProgressAndComplete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fw := seedFramework(t, s)

	audit := &models.Audit{Title: "Q1", FrameworkID: fw.ID}
	require.NoError(t, s.CreateAudit(ctx, audit))
	assert.Equal(t, models.AuditPending, audit.Status)

	f := &models.AuditFinding{AuditID: audit.ID, Title: "No DPO", Severity: models.SeverityHigh}
	require.NoError(t, s.AddFinding(ctx, f))

	got, err := s.GetAudit(ctx, audit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AuditInProgress, got.Status)
	require.Len(t, got.Findings, 1)
	assert.Equal(t, "open", got.Findings[0].Status)

	done, err := s.CompleteAudit(ctx, audit.ID, "All good")
	require.NoError(t, err)
	assert.Equal(t, models.AuditCompleted, done.Status)
	assert.Equal(t, "All good", done.Summary)
	require.NotNil(t, done.CompletedAt)

	_, err = s.CompleteAudit(ctx, "missing", "x")
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.AddFinding(ctx, &models.AuditFinding{AuditID: "missing", Title: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRisk_ScoreRecomputedOnSave(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := &models.Risk{Title: "Phishing", Likelihood: 3, Impact: 4}
	require.NoError(t, s.CreateRisk(ctx, r))
	assert.Equal(t, 12, r.Score)
	assert.Equal(t, models.RiskStatusIdentified, r.Status)

	r.Likelihood = 5
	r.Impact = 5
	require.NoError(t, s.SaveRisk(ctx, r))

	got, err := s.GetRisk(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, got.Score)

	require.NoError(t, s.AddMitigation(ctx, &models.RiskMitigation{RiskID: r.ID, Action: "Training"}))
	got, err = s.GetRisk(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, got.Mitigations, 1)
	assert.Equal(t, "planned", got.Mitigations[0].Status)

	assert.ErrorIs(t, s.AddMitigation(ctx, &models.RiskMitigation{RiskID: "missing", Action: "x"}), ErrNotFound)
}

func TestRisk_ListOrderedByScore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, r := range []*models.Risk{
		{Title: "low", Likelihood: 1, Impact: 2},
		{Title: "high", Likelihood: 5, Impact: 4},
		{Title: "mid", Likelihood: 3, Impact: 3},
	} {
		require.NoError(t, s.CreateRisk(ctx, r))
	}
	risks, err := s.ListRisks(ctx)
	require.NoError(t, err)
	require.Len(t, risks, 3)
	assert.Equal(t, "high", risks[0].Title)
	assert.Equal(t, "mid", risks[1].Title)
	assert.Equal(t, "low", risks[2].Title)
}

func TestRisk_ListTieBrokenByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, r := range []*models.Risk{
		{ID: "risk-b", Title: "second", Likelihood: 2, Impact: 2, CreatedAt: created},
		{ID: "risk-a", Title: "first", Likelihood: 2, Impact: 2, CreatedAt: created},
	} {
		require.NoError(t, s.CreateRisk(ctx, r))
	}
	risks, err := s.ListRisks(ctx)
	require.NoError(t, err)
	require.Len(t, risks, 2)
	assert.Equal(t, "risk-a", risks[0].ID)
	assert.Equal(t, "risk-b", risks[1].ID)
}

func TestPolicy_VersionsAndStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := &models.Policy{Title: "Access Control"}
	require.NoError(t, s.CreatePolicy(ctx, p, &models.PolicyVersion{Content: "v1", ChangeSummary: "Initial draft"}))
	assert.Equal(t, models.PolicyDraft, p.Status)
	assert.Equal(t, 1, p.CurrentVersion)

	require.NoError(t, s.AddVersion(ctx, p.ID, &models.PolicyVersion{Content: "v2", ChangeSummary: "Tightened"}))
	require.NoError(t, s.SetPolicyStatus(ctx, p.ID, models.PolicyApproved))

	got, err := s.GetPolicy(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentVersion)
	assert.Equal(t, models.PolicyApproved, got.Status)
	require.Len(t, got.Versions, 2)
	assert.Equal(t, "v2", got.LatestVersion().Content)
	assert.Equal(t, "system", got.Versions[0].CreatedBy)

	assert.ErrorIs(t, s.SetPolicyStatus(ctx, "missing", models.PolicyApproved), ErrNotFound)
	assert.ErrorIs(t, s.AddVersion(ctx, "missing", &models.PolicyVersion{Content: "x"}), ErrNotFound)
}

func TestTask_FinishOnlyOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	task := &models.AgentTask{Instruction: "do it"}
	require.NoError(t, s.CreateTask(ctx, task))
	assert.Equal(t, models.TaskStatusRunning, task.Status)

	now := time.Now().UTC()
	task.Status = models.TaskStatusCompleted
	task.Result = "Done"
	task.Iterations = 2
	task.TokensUsed = 30
	task.CompletedAt = &now
	require.NoError(t, s.FinishTask(ctx, task))

	task.Status = models.TaskStatusFailed
	assert.ErrorIs(t, s.FinishTask(ctx, task), ErrNotFound)

	got, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, got.Status)
	assert.Equal(t, 2, got.Iterations)
	assert.Equal(t, 30, got.TokensUsed)
	require.NotNil(t, got.CompletedAt)
}
