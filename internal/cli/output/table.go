package output

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// TableRenderer is implemented by results that print as a table.
type TableRenderer interface {
	Headers() []string
	Rows() [][]string
}

// newTable returns a borderless, left-aligned writer whose columns are
// joined by sep.
func newTable(w io.Writer, sep string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetAutoWrapText(false)
	t.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	t.SetCenterSeparator("")
	t.SetColumnSeparator(sep)
	t.SetRowSeparator("")
	t.SetHeaderLine(false)
	t.SetBorder(false)
	t.SetTablePadding("  ")
	t.SetNoWhiteSpace(true)
	return t
}

// PrintTable renders data with upper-cased headers. Paths are never wrapped.
func PrintTable(w io.Writer, data TableRenderer) error {
	t := newTable(w, "")
	t.SetAutoFormatHeaders(true)
	t.SetHeader(data.Headers())
	t.AppendBulk(data.Rows())
	t.Render()
	return nil
}

// SimpleTable renders "key: value" pairs, as used by config validate.
func SimpleTable(w io.Writer, pairs [][2]string) error {
	t := newTable(w, ":")
	t.SetAutoFormatHeaders(false)
	for _, p := range pairs {
		t.Append(p[:])
	}
	t.Render()
	return nil
}

// TableData is an ad-hoc TableRenderer.
type TableData struct {
	headers []string
	rows    [][]string
}

func NewTableData(headers ...string) *TableData {
	return &TableData{headers: headers, rows: [][]string{}}
}

func (t *TableData) AddRow(cells ...string) { t.rows = append(t.rows, cells) }

func (t *TableData) Headers() []string { return t.headers }

func (t *TableData) Rows() [][]string { return t.rows }
