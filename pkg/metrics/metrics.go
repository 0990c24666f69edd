// Package metrics wires optional Prometheus collection into safefs.
//
// Metrics are off until InitRegistry is called. Before that every New*
// constructor returns nil, and the packages consuming the metrics treat a
// nil interface as "do not record", so a disabled build pays nothing.
//
// Example usage:
//
//	metrics.InitRegistry()
//	fsys := fileutil.New(fileutil.WithMetrics(metrics.NewFileMetrics()))
//	mgr := retry.New(fsys, sched, retry.WithMetrics(metrics.NewRetryMetrics()))
//
// The Prometheus implementations live in pkg/metrics/prometheus, which
// registers its constructors here from init. Import it for side effects.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Namespace prefixes every metric name.
const Namespace = "safefs"

var (
	registryMu sync.RWMutex
	registry   *prometheus.Registry
)

// InitRegistry enables metrics with a fresh registry holding the Go runtime
// and process collectors. Calling it again replaces the registry.
func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	registryMu.Lock()
	registry = reg
	registryMu.Unlock()
	return reg
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry != nil
}

// GetRegistry returns the active registry, or nil when metrics are off.
func GetRegistry() *prometheus.Registry {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry
}

// Reset disables metrics. Collectors created earlier keep working but are
// no longer exported.
func Reset() {
	registryMu.Lock()
	registry = nil
	registryMu.Unlock()
}
