package output

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"
)

const indent = 2

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintJSONCompact writes v as a single JSON line, the shape streamed by
// watch -o json.
func PrintJSONCompact(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

// PrintYAML writes v as a YAML document.
func PrintYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(indent)
	if err := enc.Encode(v); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}
