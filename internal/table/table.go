// Package table loads tabular price sources (delimited text or workbook
// sheets) into a generic header-plus-rows structure.
package table

import (
	"strings"
)

// Cell is a single source value. Text is the value as a reader of the
// source sees it; Number is set when the source stores the value as a
// number.
type Cell struct {
	Text   string
	Number *float64
}

// Value returns the native numeric value when present, otherwise the text.
func (c Cell) Value() any {
	if c.Number != nil {
		return *c.Number
	}
	return c.Text
}

// IsEmpty reports whether the cell carries no data.
func (c Cell) IsEmpty() bool {
	return c.Number == nil && strings.TrimSpace(c.Text) == ""
}

// TextCell builds a string cell with quote characters stripped.
func TextCell(s string) Cell {
	return Cell{Text: StripQuotes(s)}
}

// NumberCell builds a numeric cell.
func NumberCell(v float64, text string) Cell {
	return Cell{Text: text, Number: &v}
}

// Table is an ordered header plus rows. Rows are padded to the header width.
type Table struct {
	Columns []string
	Rows    [][]Cell
}

// Index returns the position of the first column whose header satisfies
// match, or -1.
func (t *Table) Index(match func(string) bool) int {
	for i, c := range t.Columns {
		if match(c) {
			return i
		}
	}
	return -1
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// StripQuotes trims surrounding whitespace and any leading or trailing
// single and double quote characters.
func StripQuotes(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}

func newTable(header []string, records [][]Cell) *Table {
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = StripQuotes(h)
	}

	rows := make([][]Cell, 0, len(records))
	for _, rec := range records {
		row := make([]Cell, len(cols))
		copy(row, rec)
		rows = append(rows, row)
	}
	return &Table{Columns: cols, Rows: rows}
}

func isBlankRow(row []Cell) bool {
	for _, c := range row {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}
