package dataset

import (
	"sort"

	"github.com/unaq/indicator-report/internal/model"
)

// CountBy counts records by key, most frequent first. Ties keep the order in
// which keys first appear. Blank keys are skipped.
func CountBy(records []model.Record, key func(model.Record) string) []model.CountRow {
	idx := make(map[string]int)
	var rows []model.CountRow
	for _, r := range records {
		k := key(r)
		if k == "" {
			continue
		}
		i, ok := idx[k]
		if !ok {
			i = len(rows)
			idx[k] = i
			rows = append(rows, model.CountRow{Label: k})
		}
		rows[i].Count++
	}
	sort.SliceStable(rows, func(a, b int) bool { return rows[a].Count > rows[b].Count })
	return rows
}

// ByProgram counts records per program name.
func (d *Dataset) ByProgram() []model.CountRow {
	return CountBy(d.Records, model.Record.Name)
}

// ByLevel counts records per level. Every level in order is reported, zero
// counts included; any other level found follows in count order.
func (d *Dataset) ByLevel(order []string) []model.CountRow {
	counts := CountBy(d.Records, func(r model.Record) string { return r.Level })
	byLabel := make(map[string]int, len(counts))
	for _, c := range counts {
		byLabel[c.Label] = c.Count
	}

	listed := make(map[string]bool, len(order))
	out := make([]model.CountRow, 0, len(counts)+len(order))
	for _, lvl := range order {
		listed[lvl] = true
		out = append(out, model.CountRow{Label: lvl, Count: byLabel[lvl]})
	}
	for _, c := range counts {
		if !listed[c.Label] {
			out = append(out, c)
		}
	}
	return out
}

// ByProgramCode counts graduates per program code. Records without a code
// are excluded.
func (d *Dataset) ByProgramCode() map[model.ProgramCode]int {
	out := make(map[model.ProgramCode]int)
	for _, r := range d.Records {
		if r.Program == "" {
			continue
		}
		out[r.Program]++
	}
	return out
}
