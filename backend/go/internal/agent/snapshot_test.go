package agent

import (
	"SafetyCompliance/backend/go/internal/compliance_service/service"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSnapshot_Empty(t *testing.T) {
	env := newTestEnv(t)
	s, err := BuildSnapshot(context.Background(), env.store)
	require.NoError(t, err)
	assert.Equal(t, EmptySnapshot, s)
}

func TestBuildSnapshot_OmitsEmptySections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for i := 1; i <= 6; i++ {
		_, err := env.svc.CreateRisk(ctx, service.RiskInput{Title: fmt.Sprintf("Risk %d", i), Likelihood: i%5 + 1, Impact: 2})
		require.NoError(t, err)
	}

	s, err := BuildSnapshot(ctx, env.store)
	require.NoError(t, err)
	assert.NotContains(t, s, "Available Compliance Frameworks:")
	assert.NotContains(t, s, "Recent Audits")
	assert.NotContains(t, s, "Policies (")
	assert.True(t, strings.HasPrefix(s, "\nCurrent Risks (6):"))
	assert.Equal(t, 5, strings.Count(s, "  - [Score: "))
	assert.Contains(t, s, "  - [Score: 10] ")
}

func TestBuildSnapshot_AllSections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	fw := env.seedFramework(t)
	audit, err := env.svc.CreateAudit(ctx, service.AuditInput{Title: "Q1 Audit", FrameworkID: fw.ID})
	require.NoError(t, err)
	_, err = env.svc.CreatePolicy(ctx, service.PolicyInput{Title: "Access Policy", Content: "MFA"})
	require.NoError(t, err)

	s, err := BuildSnapshot(ctx, env.store)
	require.NoError(t, err)
	lines := strings.Split(s, "\n")
	assert.Equal(t, "Available Compliance Frameworks:", lines[0])
	assert.Equal(t, fmt.Sprintf("  - GDPR (v2016/679, id=%s)", fw.ID), lines[1])
	assert.Contains(t, s, "\nRecent Audits (1):\n  - [pending] Q1 Audit (id="+audit.ID+")")
	assert.Contains(t, s, "\nPolicies (1):\n  - [draft] Access Policy (id=")
}

func TestBuildSystemPrompt(t *testing.T) {
	p := BuildSystemPrompt("No existing data.")
	assert.True(t, strings.HasPrefix(p, "You are an AI Safety & Compliance Management agent."))
	assert.True(t, strings.HasSuffix(p, "requirements.\n\n\nCurrent System State:\nNo existing data."))
}
