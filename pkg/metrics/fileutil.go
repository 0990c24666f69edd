package metrics

import (
	"github.com/marmos91/safefs/pkg/fileutil"
)

// NewFileMetrics creates a Prometheus-backed fileutil.Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called) or the
// prometheus package was not linked in. When nil is returned, pass it
// straight to fileutil.WithMetrics; the FS then records nothing.
func NewFileMetrics() fileutil.Metrics {
	if !IsEnabled() || newPrometheusFileMetrics == nil {
		return nil
	}
	return newPrometheusFileMetrics()
}

// newPrometheusFileMetrics is implemented in pkg/metrics/prometheus/fileutil.go.
// This indirection avoids import cycles while keeping the API clean.
var newPrometheusFileMetrics func() fileutil.Metrics

// RegisterFileMetricsConstructor registers the Prometheus walker and copy
// metrics constructor. Called by pkg/metrics/prometheus during package
// initialization.
func RegisterFileMetricsConstructor(constructor func() fileutil.Metrics) {
	newPrometheusFileMetrics = constructor
}
