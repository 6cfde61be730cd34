package cli

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Align is a column alignment.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

// Table renders rows as space-separated columns sized to their widest cell.
type Table struct {
	headers []string
	align   []Align
	rows    [][]string
	padding int
}

// NewTable creates a table with the given headers, all left-aligned.
func NewTable(headers ...string) *Table {
	return &Table{
		headers: headers,
		align:   make([]Align, len(headers)),
		padding: 2,
	}
}

// RightAlign right-aligns the given columns, typically counts.
func (t *Table) RightAlign(cols ...int) *Table {
	for _, c := range cols {
		if c >= 0 && c < len(t.align) {
			t.align[c] = AlignRight
		}
	}
	return t
}

// AddRow appends a row, padding or truncating it to the header count.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Render writes the table to w.
func (t *Table) Render(w io.Writer) error {
	if len(t.headers) == 0 {
		return nil
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
	}

	rule := make([]string, len(widths))
	for i, width := range widths {
		rule[i] = strings.Repeat("-", width)
	}

	lines := make([][]string, 0, len(t.rows)+2)
	lines = append(lines, t.headers, rule)
	lines = append(lines, t.rows...)

	sep := strings.Repeat(" ", t.padding)
	for _, line := range lines {
		parts := make([]string, len(line))
		for i, cell := range line {
			parts[i] = t.pad(cell, widths[i], t.align[i])
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, sep), " ")); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) pad(s string, width int, align Align) string {
	gap := width - utf8.RuneCountInString(s)
	if gap <= 0 {
		return s
	}
	if align == AlignRight {
		return strings.Repeat(" ", gap) + s
	}
	return s + strings.Repeat(" ", gap)
}
