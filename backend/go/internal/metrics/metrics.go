package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 汇总了 agent 运行与工具调用的 Prometheus 指标。
// nil 的 *Metrics 可以安全调用，所有记录方法都会直接返回。
type Metrics struct {
	registry *prometheus.Registry

	agentRuns    *prometheus.CounterVec
	iterations   prometheus.Histogram
	llmTokens    prometheus.Counter
	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
}

// New 创建并注册全部指标到一个独立的 Registry。
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		agentRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scm",
			Name:      "agent_runs_total",
			Help:      "Agent invocations by terminal status.",
		}, []string{"status"}),
		iterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "scm",
			Name:      "agent_iterations",
			Help:      "Model rounds per agent invocation.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 20, 30},
		}),
		llmTokens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scm",
			Name:      "llm_tokens_total",
			Help:      "Input plus output tokens consumed by the agent.",
		}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scm",
			Name:      "tool_calls_total",
			Help:      "Tool dispatches by tool name and outcome.",
		}, []string{"tool", "outcome"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "scm",
			Name:      "tool_duration_seconds",
			Help:      "Tool dispatch latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scm",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
	}
	reg.MustRegister(m.agentRuns, m.iterations, m.llmTokens, m.toolCalls, m.toolDuration, m.httpRequests)
	return m
}

// Registry 返回底层的 Registry。
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler 返回 /metrics 的处理器。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRun 记录一次 agent 调用的终态。
func (m *Metrics) ObserveRun(status string, iterations, tokens int) {
	if m == nil {
		return
	}
	m.agentRuns.WithLabelValues(status).Inc()
	m.iterations.Observe(float64(iterations))
	m.llmTokens.Add(float64(tokens))
}

// ObserveTool 记录一次工具调用。
func (m *Metrics) ObserveTool(name string, isError bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if isError {
		outcome = "error"
	}
	m.toolCalls.WithLabelValues(name, outcome).Inc()
	m.toolDuration.WithLabelValues(name).Observe(d.Seconds())
}

// ObserveHTTP 记录一次 HTTP 请求。
func (m *Metrics) ObserveHTTP(method, route, code string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, code).Inc()
}
