package config

import (
	"github.com/marmos91/safefs/internal/logger"
	"github.com/marmos91/safefs/internal/telemetry"
	"github.com/marmos91/safefs/pkg/fileutil"
	"github.com/marmos91/safefs/pkg/hooks"
	"github.com/marmos91/safefs/pkg/pathmap"
	"github.com/marmos91/safefs/pkg/retry"
)

// LoggerConfig returns the logger settings.
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		Output: c.Logging.Output,
	}
}

// TracingConfig returns the OpenTelemetry settings for the given version.
func (c *Config) TracingConfig(version string) telemetry.Config {
	tc := telemetry.DefaultConfig()
	tc.Enabled = c.Telemetry.Enabled
	tc.Endpoint = c.Telemetry.Endpoint
	tc.Insecure = c.Telemetry.Insecure
	tc.SampleRate = c.Telemetry.SampleRate
	if version != "" {
		tc.ServiceVersion = version
	}
	return tc
}

// ProfilingConfig returns the Pyroscope settings for the given version.
func (c *Config) ProfilingConfig(version string) telemetry.ProfilingConfig {
	tc := telemetry.DefaultConfig()
	return telemetry.ProfilingConfig{
		Enabled:        c.Telemetry.Profiling.Enabled,
		ServiceName:    tc.ServiceName,
		ServiceVersion: version,
		Endpoint:       c.Telemetry.Profiling.Endpoint,
		ProfileTypes:   c.Telemetry.Profiling.ProfileTypes,
	}
}

// Mapper builds the path mapper described by the path_mapping section.
func (c *Config) Mapper() *pathmap.Mapper {
	return pathmap.New(c.PathMapping.Enabled, c.PathMapping.Rules...)
}

// FileOptions returns the fileutil options for the walk, copy and
// path_mapping sections. Callers append their own, e.g. WithFs or
// WithMetrics.
func (c *Config) FileOptions() []fileutil.Option {
	return []fileutil.Option{
		fileutil.WithMapper(c.Mapper()),
		fileutil.WithSkipNames(c.Walk.SkipNames...),
		fileutil.WithIncompleteDir(c.Walk.IncompleteDir),
		fileutil.WithBundleFunc(fileutil.ExtensionBundle(c.Walk.BundleExtensions...)),
		fileutil.WithBlockSize(c.Copy.BlockSize.Int()),
		fileutil.WithSyncWrites(c.Copy.SyncWrites()),
	}
}

// RetryPolicy returns the configured retry policy.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{After: c.Retry.After, For: c.Retry.For}
}

// RetryOptions returns the retry manager options for the retry section,
// including the restart hook.
func (c *Config) RetryOptions() ([]retry.Option, error) {
	restarter, err := hooks.FromConfig(c.Retry.RestartCommand)
	if err != nil {
		return nil, err
	}
	return []retry.Option{
		retry.WithPolicy(c.RetryPolicy()),
		retry.WithKeepTrackedOnAbandon(c.Retry.KeepTrackedOnAbandon),
		retry.WithRestarter(restarter),
	}, nil
}
