package fetcher

import (
	"fmt"
	"strings"
)

// Table is a sheet with its first non-blank row taken as the header.
type Table struct {
	Headers []string
	Rows    [][]string
}

// NewTable builds a Table from raw rows. Header cells are trimmed, blank
// rows are dropped and short rows are padded to the header width.
func NewTable(raw [][]string) *Table {
	t := &Table{}
	start := -1
	for i, row := range raw {
		if !isBlank(row) {
			start = i
			break
		}
	}
	if start < 0 {
		return t
	}

	t.Headers = make([]string, len(raw[start]))
	for i, h := range raw[start] {
		t.Headers[i] = strings.TrimSpace(h)
	}

	for _, row := range raw[start+1:] {
		if isBlank(row) {
			continue
		}
		padded := make([]string, len(t.Headers))
		copy(padded, row)
		t.Rows = append(t.Rows, padded)
	}
	return t
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Index returns the position of col, matching exactly first and then
// ignoring case. It returns -1 when absent.
func (t *Table) Index(col string) int {
	for i, h := range t.Headers {
		if h == col {
			return i
		}
	}
	for i, h := range t.Headers {
		if strings.EqualFold(h, col) {
			return i
		}
	}
	return -1
}

// Has reports whether col is present.
func (t *Table) Has(col string) bool { return t.Index(col) >= 0 }

// Missing returns the columns of cols that are absent, in the given order.
func (t *Table) Missing(cols ...string) []string {
	var missing []string
	for _, c := range cols {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// Get returns the cell of row under col, or "" when col is absent.
func (t *Table) Get(row []string, col string) string {
	i := t.Index(col)
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// Maps returns every row keyed by header. Empty headers are skipped.
func (t *Table) Maps() []map[string]string {
	out := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		m := make(map[string]string, len(t.Headers))
		for i, h := range t.Headers {
			if h == "" {
				continue
			}
			if _, dup := m[h]; dup {
				continue
			}
			m[h] = row[i]
		}
		out = append(out, m)
	}
	return out
}

// MissingColumnsError reports required columns absent from a sheet.
type MissingColumnsError struct {
	Sheet   string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("En '%s' faltan columnas requeridas: [%s]", e.Sheet, strings.Join(e.Columns, ", "))
}

// Require returns a *MissingColumnsError when any of cols is absent.
func (t *Table) Require(sheet string, cols ...string) error {
	if missing := t.Missing(cols...); len(missing) > 0 {
		return &MissingColumnsError{Sheet: sheet, Columns: missing}
	}
	return nil
}
