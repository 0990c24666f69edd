package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/safefs/internal/bytesize"
	"github.com/marmos91/safefs/pkg/pathmap"
	"github.com/marmos91/safefs/pkg/retry"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// isolate points the default config location at an empty directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stderr", cfg.Logging.Output)
	assert.Equal(t, retry.DefaultRetryAfter, cfg.Retry.After)
	assert.Equal(t, retry.DefaultRetryFor, cfg.Retry.For)
	assert.False(t, cfg.Retry.KeepTrackedOnAbandon)
	assert.Equal(t, []string{"thumbs.db"}, cfg.Walk.SkipNames)
	assert.Equal(t, "Incomplete Downloads", cfg.Walk.IncompleteDir)
	assert.Equal(t, 32*bytesize.KiB, cfg.Copy.BlockSize)
	assert.True(t, cfg.Copy.SyncWrites())
	assert.Equal(t, 9090, cfg.Metrics.Port)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.PathMapping.Enabled)
}

func TestLoad_FromFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
logging:
  level: debug
  format: JSON
path_mapping:
  enabled: true
  rules:
    - prefix: "%APPDATA%"
      dir: /u3/appdata
retry:
  after: 5s
  for: 20s
  keep_tracked_on_abandon: true
  restart_command: systemctl restart "media worker"
walk:
  skip_names: [thumbs.db, desktop.ini]
  incomplete_dir: Partial
copy:
  block_size: 1MiB
  sync: false
shutdown_timeout: 1m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.PathMapping.Enabled)
	require.Len(t, cfg.PathMapping.Rules, 1)
	assert.Equal(t, pathmap.Rule{Prefix: "%APPDATA%", Dir: "/u3/appdata"}, cfg.PathMapping.Rules[0])
	assert.Equal(t, 5*time.Second, cfg.Retry.After)
	assert.Equal(t, 20*time.Second, cfg.Retry.For)
	assert.True(t, cfg.Retry.KeepTrackedOnAbandon)
	assert.Equal(t, `systemctl restart "media worker"`, cfg.Retry.RestartCommand)
	assert.Equal(t, []string{"thumbs.db", "desktop.ini"}, cfg.Walk.SkipNames)
	assert.Equal(t, "Partial", cfg.Walk.IncompleteDir)
	assert.Equal(t, bytesize.MiB, cfg.Copy.BlockSize)
	assert.False(t, cfg.Copy.SyncWrites())
	assert.Equal(t, time.Minute, cfg.ShutdownTimeout)
}

func TestLoad_DefaultLocation(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "safefs"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "safefs", "config.yaml"), []byte("retry:\n  after: 3s\n"), 0644))

	assert.True(t, DefaultConfigExists())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.Retry.After)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "retry:\n  after: 5s\n")

	t.Setenv("SAFEFS_RETRY_AFTER", "2s")
	t.Setenv("SAFEFS_RETRY_FOR", "0s")
	t.Setenv("SAFEFS_LOGGING_LEVEL", "warning")
	t.Setenv("SAFEFS_COPY_BLOCK_SIZE", "64KiB")
	t.Setenv("SAFEFS_WALK_SKIP_NAMES", "a.db,b.db")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Retry.After)
	assert.Zero(t, cfg.Retry.For, "a zero budget must survive defaults")
	assert.Equal(t, "WARN", cfg.Logging.Level)
	assert.Equal(t, 64*bytesize.KiB, cfg.Copy.BlockSize)
	assert.Equal(t, []string{"a.db", "b.db"}, cfg.Walk.SkipNames)
}

func TestLoad_Errors(t *testing.T) {
	isolate(t)

	t.Run("InvalidYAML", func(t *testing.T) {
		_, err := Load(writeConfig(t, "retry: [unterminated"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("BadDuration", func(t *testing.T) {
		_, err := Load(writeConfig(t, "retry:\n  after: soon\n"))
		require.Error(t, err)
	})

	t.Run("NegativeBlockSize", func(t *testing.T) {
		_, err := Load(writeConfig(t, "copy:\n  block_size: -1\n"))
		require.Error(t, err)
	})

	t.Run("RelativeRuleDir", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
path_mapping:
  enabled: true
  rules:
    - prefix: "%X%"
      dir: relative/dir
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not absolute")
	})
}

func TestMustLoad(t *testing.T) {
	isolate(t)

	_, err := MustLoad(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file not found")

	cfg, err := MustLoad(writeConfig(t, "retry:\n  after: 1s\n"))
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.Retry.After)
}

func TestSaveConfig(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.Retry.After = 7 * time.Second
	cfg.Copy.BlockSize = 4 * bytesize.KiB
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, loaded.Retry.After)
	assert.Equal(t, 4*bytesize.KiB, loaded.Copy.BlockSize)
}

func TestApplyDefaults(t *testing.T) {
	t.Run("PreservesExplicitValues", func(t *testing.T) {
		off := false
		cfg := &Config{
			Logging: LoggingConfig{Level: "error", Output: "stdout"},
			Retry:   RetryConfig{After: time.Second, RestartCommand: "  restart  "},
			Walk:    WalkConfig{SkipNames: []string{}},
			Copy:    CopyConfig{BlockSize: 8 * bytesize.KiB, Sync: &off},
		}
		ApplyDefaults(cfg)

		assert.Equal(t, "ERROR", cfg.Logging.Level)
		assert.Equal(t, "stdout", cfg.Logging.Output)
		assert.Equal(t, time.Second, cfg.Retry.After)
		assert.Zero(t, cfg.Retry.For)
		assert.Equal(t, "restart", cfg.Retry.RestartCommand)
		assert.Empty(t, cfg.Walk.SkipNames, "an explicit empty list disables skipping")
		assert.Equal(t, 8*bytesize.KiB, cfg.Copy.BlockSize)
		assert.False(t, cfg.Copy.SyncWrites())
	})

	t.Run("DefaultConfigIsValid", func(t *testing.T) {
		require.NoError(t, Validate(GetDefaultConfig()))
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"BadLevel", func(c *Config) { c.Logging.Level = "LOUD" }, "oneof"},
		{"BadFormat", func(c *Config) { c.Logging.Format = "xml" }, "oneof"},
		{"ZeroRetryAfter", func(c *Config) { c.Retry.After = 0 }, "gt=0"},
		{"NegativeRetryFor", func(c *Config) { c.Retry.For = -time.Second }, "gte=0"},
		{"PortOutOfRange", func(c *Config) { c.Metrics.Port = 70000 }, "max=65535"},
		{"SampleRateAboveOne", func(c *Config) { c.Telemetry.SampleRate = 1.5 }, "lte=1"},
		{"TinyBlockSize", func(c *Config) { c.Copy.BlockSize = 100 }, "block_size"},
		{"EmptyRulePrefix", func(c *Config) {
			c.PathMapping.Rules = []pathmap.Rule{{Prefix: " ", Dir: "/data"}}
		}, "prefix is empty"},
		{"UnknownProfileType", func(c *Config) {
			c.Telemetry.Profiling.Enabled = true
			c.Telemetry.Profiling.ProfileTypes = []string{"cpu", "gpu"}
		}, "profile_types"},
		{"UnbalancedRestartQuote", func(c *Config) { c.Retry.RestartCommand = `restart "worker` }, "restart_command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("Nil", func(t *testing.T) {
		assert.Error(t, Validate(nil))
	})

	t.Run("ZeroRetryForIsValid", func(t *testing.T) {
		cfg := GetDefaultConfig()
		cfg.Retry.For = 0
		assert.NoError(t, Validate(cfg))
	})
}

func TestInitConfig(t *testing.T) {
	dir := isolate(t)

	path, err := InitConfig(false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "safefs", "config.yaml"), path)
	assert.FileExists(t, path)

	_, err = InitConfig(false)
	require.ErrorIs(t, err, ErrConfigExists)

	_, err = InitConfig(true)
	require.NoError(t, err)
}

func TestRenderDefault(t *testing.T) {
	isolate(t)

	data, err := RenderDefault()
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.HasPrefix(text, "# safefs configuration file"))
	assert.Contains(t, text, "SAFEFS_RETRY_AFTER")
	assert.Contains(t, text, "block_size: 32KiB")
	assert.Contains(t, text, "after: 10s")

	var generic map[string]any
	require.NoError(t, yaml.Unmarshal(data, &generic))
	for key := range sectionComments {
		assert.Contains(t, generic, key)
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, data, 0644))
	cfg, err := Load(path)
	require.NoError(t, err)

	want := GetDefaultConfig()
	assert.Equal(t, want.Retry, cfg.Retry)
	assert.Equal(t, want.Logging, cfg.Logging)
	assert.Equal(t, want.Copy.BlockSize, cfg.Copy.BlockSize)
	assert.Equal(t, want.Walk.SkipNames, cfg.Walk.SkipNames)
	assert.Equal(t, want.ShutdownTimeout, cfg.ShutdownTimeout)
}
