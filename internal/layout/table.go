package layout

import (
	"sort"
	"strings"
)

// TableRow is one fragment flattened into a positional record.
type TableRow struct {
	Left   int
	Top    int
	Width  int
	Height int
	Right  int
	Bottom int
	Fields []Field
}

// Table is a sortable positional view over a set of fragments. Extractors
// use it when a bill section holds several charge groups in the same
// vertical band (a mid-cycle rate change splits the section) and only one
// group, identified by position, is authoritative.
type Table struct {
	Rows []TableRow
}

// NewTable builds a Table from fragments, carrying over geometry and the
// normalized fields.
func NewTable(frags []Fragment) Table {
	rows := make([]TableRow, 0, len(frags))
	for _, f := range frags {
		rows = append(rows, TableRow{
			Left:   f.Left,
			Top:    f.Top,
			Width:  f.Width,
			Height: f.Height,
			Right:  f.Right(),
			Bottom: f.Bottom(),
			Fields: f.Fields,
		})
	}
	return Table{Rows: rows}
}

// SortByPosition orders rows by (top, left) and returns the table for
// chaining.
func (t Table) SortByPosition() Table {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		if t.Rows[i].Top != t.Rows[j].Top {
			return t.Rows[i].Top < t.Rows[j].Top
		}
		return t.Rows[i].Left < t.Rows[j].Left
	})
	return t
}

// FilterLeftAfter keeps rows positioned strictly right of left.
func (t Table) FilterLeftAfter(left int) Table {
	var rows []TableRow
	for _, r := range t.Rows {
		if r.Left > left {
			rows = append(rows, r)
		}
	}
	return Table{Rows: rows}
}

// First returns the first row matching the predicate.
func (t Table) First(match func(TableRow) bool) (TableRow, bool) {
	for _, r := range t.Rows {
		if match(r) {
			return r, true
		}
	}
	return TableRow{}, false
}

// Last returns the final matching row. With rows sorted by position this
// selects the bottom/rightmost group, which on a rate-change bill is the
// cumulative one.
func (t Table) Last(match func(TableRow) bool) (TableRow, bool) {
	for i := len(t.Rows) - 1; i >= 0; i-- {
		if match(t.Rows[i]) {
			return t.Rows[i], true
		}
	}
	return TableRow{}, false
}

// FieldTexts flattens a row's fields to their text form.
func (r TableRow) FieldTexts() []string {
	out := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		out[i] = f.Text
	}
	return out
}

// HasFieldContaining reports whether any field's text contains substr.
func (r TableRow) HasFieldContaining(substr string) bool {
	for _, f := range r.Fields {
		if strings.Contains(f.Text, substr) {
			return true
		}
	}
	return false
}
