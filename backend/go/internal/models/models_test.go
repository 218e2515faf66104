package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRiskScoreAndLevel(t *testing.T) {
	for l := RiskScaleMin; l <= RiskScaleMax; l++ {
		for i := RiskScaleMin; i <= RiskScaleMax; i++ {
			assert.Equal(t, l*i, RiskScore(l, i))
		}
	}
	assert.Equal(t, "low", RiskLevel(8))
	assert.Equal(t, "medium", RiskLevel(9))
	assert.Equal(t, "medium", RiskLevel(15))
	assert.Equal(t, "high", RiskLevel(16))
}

func TestSeverity(t *testing.T) {
	assert.True(t, SeverityCritical.Valid())
	assert.True(t, SeverityInfo.Valid())
	assert.False(t, Severity("urgent").Valid())
	assert.Less(t, SeverityCritical.Rank(), SeverityHigh.Rank())
	assert.Less(t, SeverityLow.Rank(), SeverityInfo.Rank())
}

func TestDistributionChannel(t *testing.T) {
	assert.True(t, ChannelEmail.Valid())
	assert.True(t, ChannelTeams.Valid())
	assert.True(t, ChannelSharePoint.Valid())
	assert.False(t, DistributionChannel("fax").Valid())
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abc", ShortID("abc"))
	id := NewID()
	assert.Len(t, id, 36)
	assert.Equal(t, id[:8], ShortID(id))
}

func TestPolicyLatestVersion(t *testing.T) {
	p := Policy{}
	assert.Nil(t, p.LatestVersion())

	p.Versions = []PolicyVersion{{VersionNumber: 2, Content: "v2"}, {VersionNumber: 3, Content: "v3"}, {VersionNumber: 1, Content: "v1"}}
	assert.Equal(t, "v3", p.LatestVersion().Content)
}

func TestFrameworkCategories(t *testing.T) {
	fw := ComplianceFramework{Controls: []FrameworkControl{
		{ControlID: "A", Category: "Security"},
		{ControlID: "B", Category: "Principles"},
		{ControlID: "C", Category: "Security"},
		{ControlID: "D"},
	}}
	assert.Equal(t, []string{"Principles", "Security"}, fw.Categories())
	assert.Len(t, fw.ControlsByCategory("Security"), 2)
}

func TestTaskStatusTerminal(t *testing.T) {
	assert.False(t, TaskStatusRunning.Terminal())
	assert.True(t, TaskStatusCompleted.Terminal())
	assert.True(t, TaskStatusFailed.Terminal())
}

func TestToolUseBlock_DefaultsEmptyInput(t *testing.T) {
	b := ToolUseBlock("tu_1", "query_risks", nil)
	assert.JSONEq(t, `{}`, string(b.Input))

	data, err := json.Marshal(ToolResultBlock("tu_1", "[]", false))
	assert.NoError(t, err)
	assert.JSONEq(t, `{"type":"tool_result","tool_use_id":"tu_1","content":"[]"}`, string(data))
}

func TestChatResponseHelpers(t *testing.T) {
	r := &ChatResponse{Content: []ContentBlock{
		TextBlock("first"),
		ToolUseBlock("tu_1", "query_audits", json.RawMessage(`{"limit":5}`)),
		TextBlock("second"),
	}, Usage: Usage{InputTokens: 10, OutputTokens: 5}}

	assert.Equal(t, "first\nsecond", r.Text())
	assert.Len(t, r.ToolUses(), 1)
	assert.Equal(t, 15, r.Usage.Total())
}
