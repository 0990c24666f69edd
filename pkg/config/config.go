// Package config loads safefs settings from a file, the environment and
// built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/safefs/internal/bytesize"
	"github.com/marmos91/safefs/pkg/pathmap"
)

// EnvPrefix prefixes every environment override, e.g. SAFEFS_RETRY_AFTER=5s.
const EnvPrefix = "SAFEFS"

// Config represents the safefs configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (SAFEFS_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging" json:"logging"`

	// Telemetry controls OpenTelemetry tracing and Pyroscope profiling
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry" json:"telemetry"`

	// Metrics contains Prometheus metrics server configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics" json:"metrics"`

	// PathMapping redirects virtual path prefixes to real directories
	PathMapping PathMappingConfig `mapstructure:"path_mapping" yaml:"path_mapping" json:"path_mapping"`

	// Retry bounds delete and migrate retries of files held open elsewhere
	Retry RetryConfig `mapstructure:"retry" yaml:"retry" json:"retry"`

	// Walk controls which entries directory listings and walks skip
	Walk WalkConfig `mapstructure:"walk" yaml:"walk" json:"walk"`

	// Copy tunes streaming copies
	Copy CopyConfig `mapstructure:"copy" yaml:"copy" json:"copy"`

	// ShutdownTimeout is the maximum time to wait for pending retries and
	// servers when a long-running command stops
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR" yaml:"level" json:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format" json:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output" json:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled
	// Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port)
	// Default: "localhost:4317"
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`

	// Insecure controls whether to use a non-TLS connection
	Insecure bool `mapstructure:"insecure" yaml:"insecure" json:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0)
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate" json:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling" json:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling of long-running
// commands such as watch.
type ProfilingConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`

	// Endpoint is the Pyroscope server URL
	// Default: "http://localhost:4040"
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`

	// ProfileTypes specifies which profile types to collect
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types" json:"profile_types"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
// When Enabled is false, no metrics are collected.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`

	// Port is the HTTP port for the metrics endpoint
	// Default: 9090
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port" json:"port"`
}

// PathMappingConfig lists virtual prefixes and the directories they stand
// for. Rules only apply while Enabled is true.
type PathMappingConfig struct {
	Enabled bool           `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Rules   []pathmap.Rule `mapstructure:"rules" yaml:"rules" json:"rules"`
}

// RetryConfig bounds retries of deletes and migrations that hit a file in
// use.
type RetryConfig struct {
	// After is the delay between attempts
	// Default: 10s
	After time.Duration `mapstructure:"after" validate:"gt=0" yaml:"after" json:"after"`

	// For is the total budget for retries; a retry is only scheduled while
	// the remaining budget covers another delay
	// Default: 60s
	For time.Duration `mapstructure:"for" validate:"gte=0" yaml:"for" json:"for"`

	// KeepTrackedOnAbandon keeps an abandoned delete target hidden from
	// listings until the process exits
	KeepTrackedOnAbandon bool `mapstructure:"keep_tracked_on_abandon" yaml:"keep_tracked_on_abandon" json:"keep_tracked_on_abandon"`

	// RestartCommand is run once per delete that hits a lock, so an
	// external worker pool drops its file handles. Parsed with shell
	// quoting rules, never run through a shell. Empty disables the hook.
	RestartCommand string `mapstructure:"restart_command" yaml:"restart_command,omitempty" json:"restart_command,omitempty"`
}

// WalkConfig controls directory listing and walking.
type WalkConfig struct {
	// SkipNames are file names never reported, compared case-insensitively
	// Default: ["thumbs.db"]
	SkipNames []string `mapstructure:"skip_names" yaml:"skip_names" json:"skip_names"`

	// IncompleteDir is a directory name skipped at every level of a walk
	// Default: "Incomplete Downloads"
	IncompleteDir string `mapstructure:"incomplete_dir" yaml:"incomplete_dir" json:"incomplete_dir"`

	// BundleExtensions mark directories walked as a single opaque unit
	// Default: the platform's package extensions (empty outside macOS)
	BundleExtensions []string `mapstructure:"bundle_extensions" yaml:"bundle_extensions" json:"bundle_extensions"`
}

// CopyConfig tunes CopyWithProgress.
type CopyConfig struct {
	// BlockSize is the size of each copied block
	// Supports human-readable formats: "32KiB", "1Mi"
	// Default: 32KiB
	BlockSize bytesize.ByteSize `mapstructure:"block_size" yaml:"block_size" json:"block_size"`

	// Sync opens the destination for synchronous writes
	// Default: true
	Sync *bool `mapstructure:"sync" yaml:"sync" json:"sync"`
}

// SyncWrites reports whether copies write synchronously.
func (c CopyConfig) SyncWrites() bool {
	return c.Sync == nil || *c.Sync
}

// Load loads configuration from file, environment, and defaults.
//
// An empty configPath searches the default location. A missing file is
// not an error: the defaults, with environment overrides, are returned.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad is Load for an explicitly named file: the file must exist.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		return Load("")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please create the configuration file:\n"+
			"  safefs config init --config %s",
			configPath, configPath)
	}
	return Load(configPath)
}

// SaveConfig writes cfg to path as YAML, creating parent directories.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setupViper configures viper with environment variables and config file
// settings.
func setupViper(v *viper.Viper, configPath string) {
	// Every key needs a default for AutomaticEnv to see it during
	// Unmarshal, so register the whole default tree.
	for key, value := range defaultKeys() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(getConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

// defaultKeys flattens the default configuration into dotted viper keys.
func defaultKeys() map[string]any {
	d := GetDefaultConfig()
	return map[string]any{
		"logging.level":                     d.Logging.Level,
		"logging.format":                    d.Logging.Format,
		"logging.output":                    d.Logging.Output,
		"telemetry.enabled":                 d.Telemetry.Enabled,
		"telemetry.endpoint":                d.Telemetry.Endpoint,
		"telemetry.insecure":                d.Telemetry.Insecure,
		"telemetry.sample_rate":             d.Telemetry.SampleRate,
		"telemetry.profiling.enabled":       d.Telemetry.Profiling.Enabled,
		"telemetry.profiling.endpoint":      d.Telemetry.Profiling.Endpoint,
		"telemetry.profiling.profile_types": d.Telemetry.Profiling.ProfileTypes,
		"metrics.enabled":                   d.Metrics.Enabled,
		"metrics.port":                      d.Metrics.Port,
		"path_mapping.enabled":              d.PathMapping.Enabled,
		"retry.after":                       d.Retry.After.String(),
		"retry.for":                         d.Retry.For.String(),
		"retry.keep_tracked_on_abandon":     d.Retry.KeepTrackedOnAbandon,
		"retry.restart_command":             d.Retry.RestartCommand,
		"walk.skip_names":                   d.Walk.SkipNames,
		"walk.incomplete_dir":               d.Walk.IncompleteDir,
		"walk.bundle_extensions":            d.Walk.BundleExtensions,
		"copy.block_size":                   d.Copy.BlockSize.String(),
		"copy.sync":                         d.Copy.SyncWrites(),
		"shutdown_timeout":                  d.ShutdownTimeout.String(),
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// byteSizeDecodeHook converts strings and numbers to bytesize.ByteSize, so
// config files may say "32KiB" or 32768.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.Parse(v)
		case int:
			if v < 0 {
				return nil, fmt.Errorf("negative byte size %d", v)
			}
			return bytesize.ByteSize(v), nil
		case int64:
			if v < 0 {
				return nil, fmt.Errorf("negative byte size %d", v)
			}
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			if v < 0 {
				return nil, fmt.Errorf("negative byte size %v", v)
			}
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook converts strings such as "30s" or "5m" to
// time.Duration. Raw integers are taken as nanoseconds.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns $XDG_CONFIG_HOME/safefs, ~/.config/safefs, or "."
// when no home directory is known.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "safefs")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "safefs")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
