package pipeline

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RunnerMetrics provides Prometheus-compatible metrics for a Runner,
// grounded on the teacher's PrometheusMetrics (graph/metrics.go), scaled
// down to five signals: concurrency, level queue depth, step latency,
// retries, and budget exhaustion (the last fed by the fallback package).
//
// All metrics are namespaced "virta_pipeline_".
type RunnerMetrics struct {
	activeSteps    prometheus.Gauge
	levelQueue     prometheus.Gauge
	stepLatencyMs  *prometheus.HistogramVec
	retriesTotal   *prometheus.CounterVec
	budgetExhausted *prometheus.CounterVec

	mu sync.RWMutex
}

// NewRunnerMetrics registers the pipeline's metrics with registry and
// returns a handle the runner updates during execution. Pass
// prometheus.DefaultRegisterer to use the global registry.
func NewRunnerMetrics(registry prometheus.Registerer) *RunnerMetrics {
	factory := promauto.With(registry)
	return &RunnerMetrics{
		activeSteps: factory.NewGauge(prometheus.GaugeOpts{
			Name: "virta_pipeline_active_steps",
			Help: "Number of steps currently executing within the current level.",
		}),
		levelQueue: factory.NewGauge(prometheus.GaugeOpts{
			Name: "virta_pipeline_level_queue_depth",
			Help: "Number of levels remaining to execute in the current run.",
		}),
		stepLatencyMs: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "virta_pipeline_step_latency_ms",
			Help:    "Step execution duration in milliseconds.",
			Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		}, []string{"run_id", "status"}),
		retriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "virta_pipeline_retries_total",
			Help: "Cumulative retry attempts across all steps.",
		}, []string{"run_id"}),
		budgetExhausted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "virta_pipeline_budget_exhausted_total",
			Help: "Budget-exhausted failures raised by the fallback monitor.",
		}, []string{"run_id"}),
	}
}

func (m *RunnerMetrics) setActiveSteps(n int) {
	if m == nil {
		return
	}
	m.activeSteps.Set(float64(n))
}

func (m *RunnerMetrics) setLevelQueue(n int) {
	if m == nil {
		return
	}
	m.levelQueue.Set(float64(n))
}

func (m *RunnerMetrics) observeLatency(runID, status string, ms float64) {
	if m == nil {
		return
	}
	m.stepLatencyMs.WithLabelValues(runID, status).Observe(ms)
}

func (m *RunnerMetrics) incRetries(runID string) {
	if m == nil {
		return
	}
	m.retriesTotal.WithLabelValues(runID).Inc()
}

// IncBudgetExhausted records a budget-exhausted failure for runID. The
// fallback package calls this when its Monitor raises a
// verr.KindBudgetExhausted failure, since budget tracking lives outside
// the pipeline package proper.
func (m *RunnerMetrics) IncBudgetExhausted(runID string) {
	if m == nil {
		return
	}
	m.budgetExhausted.WithLabelValues(runID).Inc()
}

// BudgetExhaustedCounter exposes the per-run counter so callers (and
// tests, via prometheus/testutil) can inspect it directly.
func (m *RunnerMetrics) BudgetExhaustedCounter(runID string) prometheus.Counter {
	return m.budgetExhausted.WithLabelValues(runID)
}

// RetriesCounter exposes the per-run retry counter so callers (and
// tests, via prometheus/testutil) can inspect it directly.
func (m *RunnerMetrics) RetriesCounter(runID string) prometheus.Counter {
	return m.retriesTotal.WithLabelValues(runID)
}
