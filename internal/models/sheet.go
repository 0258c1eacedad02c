package models

import "strings"

// Sheet is a raw rectangular table read from a statement file.
// No row is assumed to be a header. Rows may be ragged.
type Sheet struct {
	Name string
	Rows [][]string
}

// NewSheet builds a sheet from raw rows.
func NewSheet(name string, rows [][]string) *Sheet {
	return &Sheet{Name: name, Rows: rows}
}

// Len returns the number of rows.
func (s *Sheet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Rows)
}

// Width returns the length of the widest row.
func (s *Sheet) Width() int {
	if s == nil {
		return 0
	}
	w := 0
	for _, r := range s.Rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// Cell returns the trimmed value at (row, col), or "" when out of range.
func (s *Sheet) Cell(row, col int) string {
	if s == nil || row < 0 || row >= len(s.Rows) {
		return ""
	}
	r := s.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[col])
}

// Row returns the row at index i with every cell trimmed, or nil.
func (s *Sheet) Row(i int) []string {
	if s == nil || i < 0 || i >= len(s.Rows) {
		return nil
	}
	out := make([]string, len(s.Rows[i]))
	for c, v := range s.Rows[i] {
		out[c] = strings.TrimSpace(v)
	}
	return out
}

// RowText joins the non-empty cells of a row with single spaces.
func (s *Sheet) RowText(i int) string {
	var parts []string
	for _, v := range s.Row(i) {
		if v != "" && !strings.EqualFold(v, "nan") {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// IsBlankRow reports whether every cell of row i is empty.
func (s *Sheet) IsBlankRow(i int) bool {
	for _, v := range s.Row(i) {
		if v != "" {
			return false
		}
	}
	return true
}
