// Package output renders CLI results as tables, JSON, YAML or plain lines.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Format represents the output format type.
type Format string

const (
	// FormatTable outputs data in a formatted table.
	FormatTable Format = "table"
	// FormatJSON outputs data as JSON.
	FormatJSON Format = "json"
	// FormatYAML outputs data as YAML.
	FormatYAML Format = "yaml"
	// FormatPlain outputs one line per item, suitable for piping paths.
	FormatPlain Format = "plain"
)

// ValidFormats lists the accepted --output values.
var ValidFormats = []string{"table", "json", "yaml", "plain"}

// ParseFormat parses a string into a Format, returning an error if invalid.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "table", "":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "plain", "text":
		return FormatPlain, nil
	default:
		return "", fmt.Errorf("invalid output format: %q (valid: %s)", s, strings.Join(ValidFormats, ", "))
	}
}

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}

// Printer handles formatted output to a writer.
type Printer struct {
	out    io.Writer
	format Format
	color  bool
}

// NewPrinter creates a new Printer with the given options.
func NewPrinter(out io.Writer, format Format, color bool) *Printer {
	return &Printer{
		out:    out,
		format: format,
		color:  color,
	}
}

// DefaultPrinter creates a table Printer on stdout, colored when stdout is
// a terminal.
func DefaultPrinter() *Printer {
	return NewPrinter(os.Stdout, FormatTable, IsTerminal(os.Stdout))
}

// Format returns the printer's output format.
func (p *Printer) Format() Format {
	return p.format
}

// Writer returns the printer's output writer.
func (p *Printer) Writer() io.Writer {
	return p.out
}

// ColorEnabled returns whether color output is enabled.
func (p *Printer) ColorEnabled() bool {
	return p.color
}

// Print outputs data in the configured format.
//
// Table output needs a TableRenderer and plain output a LineRenderer; a
// TableRenderer printed plain becomes tab-separated rows. Anything else
// falls back to JSON.
func (p *Printer) Print(data any) error {
	switch p.format {
	case FormatTable:
		if renderer, ok := data.(TableRenderer); ok {
			return PrintTable(p.out, renderer)
		}
		return PrintJSON(p.out, data)
	case FormatPlain:
		switch r := data.(type) {
		case LineRenderer:
			return PrintLines(p.out, r.Lines())
		case TableRenderer:
			return PrintLines(p.out, tabRows(r.Rows()))
		}
		return PrintJSON(p.out, data)
	case FormatJSON:
		return PrintJSON(p.out, data)
	case FormatYAML:
		return PrintYAML(p.out, data)
	default:
		return fmt.Errorf("unknown format: %s", p.format)
	}
}

// Println prints a message followed by a newline.
func (p *Printer) Println(args ...any) {
	_, _ = fmt.Fprintln(p.out, args...)
}

// Printf prints a formatted message.
func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

// Success prints a success message in green.
func (p *Printer) Success(msg string) {
	p.colored(colorGreen, msg)
}

// Error prints an error message in red.
func (p *Printer) Error(msg string) {
	p.colored(colorRed, msg)
}

// Warning prints a warning message in yellow.
func (p *Printer) Warning(msg string) {
	p.colored(colorYellow, msg)
}

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
)

func (p *Printer) colored(color, msg string) {
	if p.color {
		_, _ = fmt.Fprintf(p.out, "%s%s%s\n", color, msg, colorReset)
		return
	}
	_, _ = fmt.Fprintln(p.out, msg)
}
