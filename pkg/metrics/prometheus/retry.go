package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/safefs/pkg/metrics"
	"github.com/marmos91/safefs/pkg/retry"
)

func init() {
	metrics.RegisterRetryMetricsConstructor(func() retry.Metrics {
		if m := NewRetryMetrics(); m != nil {
			return m
		}
		return nil
	})
}

// retryMetrics is the Prometheus implementation of retry.Metrics.
type retryMetrics struct {
	attempts *prometheus.CounterVec
	outcomes *prometheus.CounterVec
	tries    *prometheus.HistogramVec
	elapsed  *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// NewRetryMetrics creates a new Prometheus-backed retry.Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewRetryMetrics() *retryMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &retryMetrics{
		attempts: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metrics.Namespace,
				Name:      "retry_attempts_total",
				Help:      "Delete and migrate attempts by operation and result",
			},
			[]string{"kind", "result"}, // result: ok, missing, locked, error
		),
		outcomes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metrics.Namespace,
				Name:      "retry_chains_total",
				Help:      "Finished retry chains by operation and terminal state",
			},
			[]string{"kind", "state"},
		),
		tries: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metrics.Namespace,
				Name:      "retry_chain_attempts",
				Help:      "Attempts made by a finished retry chain",
				Buckets:   []float64{1, 2, 3, 4, 5, 7, 10, 20},
			},
			[]string{"kind"},
		),
		elapsed: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metrics.Namespace,
				Name:      "retry_chain_duration_seconds",
				Help:      "Time from the first attempt to the terminal state",
				Buckets:   []float64{0.01, 0.1, 1, 10, 30, 60, 120, 300},
			},
			[]string{"kind", "state"},
		),
		inFlight: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: metrics.Namespace,
				Name:      "retry_chains_in_flight",
				Help:      "Retry chains waiting for their next attempt",
			},
		),
	}
}

func (m *retryMetrics) RecordAttempt(kind retry.Kind, result retry.AttemptResult) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(string(kind), string(result)).Inc()
}

func (m *retryMetrics) RecordOutcome(kind retry.Kind, state retry.State, attempts int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(string(kind), state.String()).Inc()
	m.tries.WithLabelValues(string(kind)).Observe(float64(attempts))
	m.elapsed.WithLabelValues(string(kind), state.String()).Observe(elapsed.Seconds())
}

func (m *retryMetrics) SetInFlight(n int) {
	if m == nil {
		return
	}
	m.inFlight.Set(float64(n))
}
