package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Observe(t *testing.T) {
	m := New()
	m.ObserveRun("completed", 2, 150)
	m.ObserveRun("failed", 1, 10)
	m.ObserveTool("assess_risk", false, 5*time.Millisecond)
	m.ObserveTool("assess_risk", true, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.agentRuns.WithLabelValues("completed")))
	assert.Equal(t, 160.0, testutil.ToFloat64(m.llmTokens))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.toolCalls.WithLabelValues("assess_risk", "error")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRun("completed", 1, 1)
		m.ObserveTool("x", false, 0)
		m.ObserveHTTP("GET", "/health", "200")
	})
}
