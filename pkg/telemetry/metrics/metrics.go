package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics tracks dispatch-level metrics.
//
// Metrics:
//   - <ns>_requests_total: request count by intent and terminal status
//   - <ns>_request_duration_seconds: dispatch duration histogram by intent
//   - <ns>_tokens_total: tokens processed by direction (input/output)
//   - <ns>_memory_ops_total: memory store operations by op and outcome
type EngineMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	tokensTotal     *prometheus.CounterVec
	memoryOps       *prometheus.CounterVec
}

// New creates and registers engine metrics with the provided registry.
func New(namespace string, registry *prometheus.Registry) *EngineMetrics {
	m := &EngineMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of engine requests dispatched",
			},
			[]string{"intent", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of engine dispatches in seconds",
				Buckets:   []float64{.005, .025, .1, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"intent"},
		),

		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tokens_total",
				Help:      "Total number of tokens processed",
			},
			[]string{"direction"},
		),

		memoryOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "memory_ops_total",
				Help:      "Total number of memory store operations",
			},
			[]string{"op", "outcome"},
		),
	}

	registry.MustRegister(m.requestsTotal, m.requestDuration, m.tokensTotal, m.memoryOps)
	return m
}

// ObserveRequest records one completed dispatch. Safe on a nil receiver
// so callers can run without metrics.
func (m *EngineMetrics) ObserveRequest(intent, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(intent, status).Inc()
	m.requestDuration.WithLabelValues(intent).Observe(duration.Seconds())
}

// AddTokens records token consumption for one completion.
func (m *EngineMetrics) AddTokens(input, output int) {
	if m == nil {
		return
	}
	m.tokensTotal.WithLabelValues("input").Add(float64(input))
	m.tokensTotal.WithLabelValues("output").Add(float64(output))
}

// ObserveMemoryOp records one memory store operation.
func (m *EngineMetrics) ObserveMemoryOp(op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.memoryOps.WithLabelValues(op, outcome).Inc()
}
