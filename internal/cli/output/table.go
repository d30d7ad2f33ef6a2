// Package output renders tabular CLI output, used by the plan subcommand to
// print the computed backup plan.
package output

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// TableRenderer is implemented by types that know how to lay themselves out
// as a table.
type TableRenderer interface {
	Headers() []string
	Rows() [][]string
}

// PrintTable writes data as a borderless, left-aligned table to w.
func PrintTable(w io.Writer, data TableRenderer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(data.Headers())

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, row := range data.Rows() {
		table.Append(row)
	}
	table.Render()
}

// ActionTable adapts a slice of planner.BackupAction-shaped rows into a
// TableRenderer without the CLI package depending on internal/planner
// directly (callers build rows themselves via AddRow).
type ActionTable struct {
	headers []string
	rows    [][]string
}

// NewActionTable builds an empty table with the given column headers.
func NewActionTable(headers ...string) *ActionTable {
	return &ActionTable{headers: headers}
}

// AddRow appends one row of already-formatted column values.
func (t *ActionTable) AddRow(row ...string) {
	t.rows = append(t.rows, row)
}

func (t *ActionTable) Headers() []string { return t.headers }
func (t *ActionTable) Rows() [][]string  { return t.rows }
