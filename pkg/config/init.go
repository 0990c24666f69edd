package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrConfigExists is returned by InitConfig when the file is already there
// and force is not set.
var ErrConfigExists = errors.New("configuration file already exists")

// sectionComments annotate the top-level keys of a generated file.
var sectionComments = map[string]string{
	"logging":          "Log level (DEBUG, INFO, WARN, ERROR), format (text, json) and output (stdout, stderr or a file)",
	"telemetry":        "OpenTelemetry tracing to an OTLP collector, plus optional Pyroscope profiling",
	"metrics":          "Prometheus /metrics endpoint, served by long-running commands such as watch",
	"path_mapping":     "Virtual prefixes such as %APPDATA% and the directories they expand to",
	"retry":            "Deletes and moves of files held open elsewhere are retried every `after`\nwhile the `for` budget lasts",
	"walk":             "Entries skipped by listings and walks",
	"copy":             "Streaming copy block size and synchronous writes",
	"shutdown_timeout": "How long long-running commands wait for pending work on exit",
}

// InitConfig writes a default configuration file to the default location
// and returns its path.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	return path, InitConfigToPath(path, force)
}

// InitConfigToPath writes a default configuration file to path.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s (use --force to overwrite)", ErrConfigExists, path)
		}
	}

	data, err := RenderDefault()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// RenderDefault returns the default configuration as commented YAML.
func RenderDefault() ([]byte, error) {
	var body yaml.Node
	if err := body.Encode(GetDefaultConfig()); err != nil {
		return nil, fmt.Errorf("failed to encode default config: %w", err)
	}
	for i := 0; i+1 < len(body.Content); i += 2 {
		key := body.Content[i]
		if comment, ok := sectionComments[key.Value]; ok {
			key.HeadComment = comment
		}
	}

	doc := &yaml.Node{
		Kind: yaml.DocumentNode,
		HeadComment: "safefs configuration file\n\n" +
			"Every setting can be overridden from the environment with the " + EnvPrefix + "_ prefix,\n" +
			"e.g. " + EnvPrefix + "_RETRY_AFTER=5s or " + EnvPrefix + "_LOGGING_LEVEL=DEBUG.",
		Content: []*yaml.Node{&body},
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
