package prometheus

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/safefs/pkg/metrics"
	"github.com/marmos91/safefs/pkg/watch"
)

func init() {
	metrics.RegisterWatchMetricsConstructor(func() watch.Metrics {
		if m := NewWatchMetrics(); m != nil {
			return m
		}
		return nil
	})
}

// watchMetrics is the Prometheus implementation of watch.Metrics.
type watchMetrics struct {
	events      *prometheus.CounterVec
	watchedDirs prometheus.Gauge
}

// NewWatchMetrics creates a new Prometheus-backed watch.Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewWatchMetrics() *watchMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &watchMetrics{
		events: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metrics.Namespace,
				Name:      "watch_events_total",
				Help:      "File events reported by the watcher",
			},
			[]string{"op", "initial"},
		),
		watchedDirs: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: metrics.Namespace,
				Name:      "watch_directories",
				Help:      "Directories currently watched",
			},
		),
	}
}

func (m *watchMetrics) RecordEvent(op watch.Op, initial bool) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(string(op), strconv.FormatBool(initial)).Inc()
}

func (m *watchMetrics) SetWatchedDirs(n int) {
	if m == nil {
		return
	}
	m.watchedDirs.Set(float64(n))
}
