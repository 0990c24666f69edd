package metrics

import (
	"github.com/marmos91/safefs/pkg/retry"
	"github.com/marmos91/safefs/pkg/watch"
)

// NewRetryMetrics creates a Prometheus-backed retry.Metrics instance, or
// nil when metrics are not enabled.
func NewRetryMetrics() retry.Metrics {
	if !IsEnabled() || newPrometheusRetryMetrics == nil {
		return nil
	}
	return newPrometheusRetryMetrics()
}

// NewWatchMetrics creates a Prometheus-backed watch.Metrics instance, or
// nil when metrics are not enabled.
func NewWatchMetrics() watch.Metrics {
	if !IsEnabled() || newPrometheusWatchMetrics == nil {
		return nil
	}
	return newPrometheusWatchMetrics()
}

var (
	newPrometheusRetryMetrics func() retry.Metrics
	newPrometheusWatchMetrics func() watch.Metrics
)

// RegisterRetryMetricsConstructor registers the Prometheus retry metrics
// constructor.
func RegisterRetryMetricsConstructor(constructor func() retry.Metrics) {
	newPrometheusRetryMetrics = constructor
}

// RegisterWatchMetricsConstructor registers the Prometheus watch metrics
// constructor.
func RegisterWatchMetricsConstructor(constructor func() watch.Metrics) {
	newPrometheusWatchMetrics = constructor
}
