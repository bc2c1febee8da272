package domain

import "strings"

// Table is an untyped tabular result: a header and rows of text cells. It is
// the shape produced by CSV files and by SQL queries alike.
type Table struct {
	Columns []string
	Rows    [][]string
}

// NewTable builds a Table from a header and its rows.
func NewTable(columns []string, rows [][]string) Table {
	return Table{Columns: columns, Rows: rows}
}

// Len returns the number of data rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// StripColumnNames returns a copy of t with surrounding whitespace removed from
// every column name.
func (t Table) StripColumnNames() Table {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = strings.TrimSpace(c)
	}
	return Table{Columns: cols, Rows: t.Rows}
}

// Index returns the position of the named column, or -1.
func (t Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Has reports whether every named column exists.
func (t Table) Has(names ...string) bool {
	for _, n := range names {
		if t.Index(n) < 0 {
			return false
		}
	}
	return true
}

// FindColumn returns the first candidate present in the header. An exact match
// wins over a case-insensitive one for the same candidate.
func (t Table) FindColumn(candidates ...string) (string, bool) {
	for _, cand := range candidates {
		if t.Index(cand) >= 0 {
			return cand, true
		}
		for _, c := range t.Columns {
			if strings.EqualFold(c, cand) {
				return c, true
			}
		}
	}
	return "", false
}

// Column returns an accessor for the named column. Reading a column that does
// not exist, or a row shorter than the header, yields "".
func (t Table) Column(name string) func(row []string) string {
	idx := t.Index(name)
	return func(row []string) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return row[idx]
	}
}
