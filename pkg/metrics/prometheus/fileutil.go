package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/safefs/pkg/fileutil"
	"github.com/marmos91/safefs/pkg/metrics"
)

func init() {
	metrics.RegisterFileMetricsConstructor(func() fileutil.Metrics {
		if m := NewFileMetrics(); m != nil {
			return m
		}
		return nil
	})
}

// fileMetrics is the Prometheus implementation of fileutil.Metrics.
type fileMetrics struct {
	walkEntries    *prometheus.CounterVec
	copyOperations *prometheus.CounterVec
	copyDuration   *prometheus.HistogramVec
	copyBytes      prometheus.Counter
}

// NewFileMetrics creates a new Prometheus-backed fileutil.Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewFileMetrics() *fileMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &fileMetrics{
		walkEntries: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metrics.Namespace,
				Name:      "walk_entries_total",
				Help:      "Directory entries seen by the walker, by decision",
			},
			[]string{"event"}, // file, skipped, tracked, bundle, cycle, error
		),
		copyOperations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metrics.Namespace,
				Name:      "copy_operations_total",
				Help:      "Streaming copies by result",
			},
			[]string{"result"}, // ok, cancelled, error
		),
		copyDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metrics.Namespace,
				Name:      "copy_duration_seconds",
				Help:      "Duration of streaming copies",
				Buckets: []float64{
					0.01, // small sidecar files
					0.1,
					0.5,
					1,
					5,
					15,
					60,
					300, // multi-GB media over a slow disk
				},
			},
			[]string{"result"},
		),
		copyBytes: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: metrics.Namespace,
				Name:      "copy_bytes_total",
				Help:      "Bytes written by streaming copies",
			},
		),
	}
}

func (m *fileMetrics) RecordWalkEvent(event fileutil.WalkEvent) {
	if m == nil {
		return
	}
	m.walkEntries.WithLabelValues(string(event)).Inc()
}

func (m *fileMetrics) ObserveCopy(bytes int64, duration time.Duration, result fileutil.CopyResult) {
	if m == nil {
		return
	}
	m.copyOperations.WithLabelValues(string(result)).Inc()
	m.copyDuration.WithLabelValues(string(result)).Observe(duration.Seconds())
	if bytes > 0 {
		m.copyBytes.Add(float64(bytes))
	}
}
