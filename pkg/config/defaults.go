package config

import (
	"strings"
	"time"

	"github.com/marmos91/safefs/internal/bytesize"
	"github.com/marmos91/safefs/pkg/fileutil"
	"github.com/marmos91/safefs/pkg/metrics"
	"github.com/marmos91/safefs/pkg/retry"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Zero values are replaced with defaults and explicit values are preserved.
// Retry.For is the exception: zero is a meaningful budget (no retries), so
// it is left alone; Load gets its default from the key defaults instead.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyMetricsDefaults(&cfg.Metrics)
	applyRetryDefaults(&cfg.Retry)
	applyWalkDefaults(&cfg.Walk)
	applyCopyDefaults(&cfg.Copy)

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)
	if cfg.Level == "WARNING" {
		cfg.Level = "WARN"
	}

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	cfg.Format = strings.ToLower(cfg.Format)

	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	if cfg.Profiling.Endpoint == "" {
		cfg.Profiling.Endpoint = "http://localhost:4040"
	}
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = metrics.DefaultPort
	}
}

func applyRetryDefaults(cfg *RetryConfig) {
	if cfg.After == 0 {
		cfg.After = retry.DefaultRetryAfter
	}
	cfg.RestartCommand = strings.TrimSpace(cfg.RestartCommand)
}

func applyWalkDefaults(cfg *WalkConfig) {
	if cfg.SkipNames == nil {
		cfg.SkipNames = append([]string(nil), fileutil.DefaultSkipNames...)
	}
	if cfg.IncompleteDir == "" {
		cfg.IncompleteDir = fileutil.DefaultIncompleteDir
	}
	if cfg.BundleExtensions == nil {
		cfg.BundleExtensions = append([]string{}, fileutil.DefaultBundleExtensions...)
	}
}

func applyCopyDefaults(cfg *CopyConfig) {
	if cfg.BlockSize == 0 {
		cfg.BlockSize = bytesize.ByteSize(fileutil.DefaultBlockSize)
	}
	if cfg.Sync == nil {
		on := true
		cfg.Sync = &on
	}
}

// GetDefaultConfig returns a Config with all default values applied.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Retry: RetryConfig{
			After: retry.DefaultRetryAfter,
			For:   retry.DefaultRetryFor,
		},
		Telemetry: TelemetryConfig{
			Insecure: true,
		},
	}
	ApplyDefaults(cfg)
	return cfg
}
