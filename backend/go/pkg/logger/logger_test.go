package logger

import (
	"SafetyCompliance/backend/go/internal/models"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, l := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if l == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(l), &m), l)
		out = append(out, m)
	}
	return out
}

func TestLogger_JSONFieldsAndImmutability(t *testing.T) {
	var buf bytes.Buffer
	InitWithOutput(logrus.DebugLevel, &buf)

	base := New("agent", "task-1", "")
	base.WithPayload(map[string]interface{}{"tool": "query_risks"}).Info("Tool executed")
	base.WithError(models.ErrorInfo{Message: "boom", Type: "tool_error"}).Warn("Tool failed")
	base.Debug("plain")

	entries := lines(t, &buf)
	require.Len(t, entries, 3)

	assert.Equal(t, "Tool executed", entries[0]["message"])
	assert.Equal(t, "info", entries[0]["level"])
	assert.Equal(t, "agent", entries[0]["service_name"])
	assert.Equal(t, "task-1", entries[0]["trace_id"])
	assert.Contains(t, entries[0], "timestamp")
	assert.Equal(t, map[string]interface{}{"tool": "query_risks"}, entries[0]["payload"])

	errInfo, ok := entries[1]["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "tool_error", errInfo["type"])
	assert.NotContains(t, entries[1], "payload")

	// With* 返回新实例，不影响 base
	assert.NotContains(t, entries[2], "payload")
	assert.NotContains(t, entries[2], "error")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, logrus.WarnLevel, ParseLevel("WARN"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("verbose"))
}
