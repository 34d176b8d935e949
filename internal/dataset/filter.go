package dataset

import (
	"strings"

	"github.com/unaq/indicator-report/internal/model"
)

// Filter maps a column to its selected values. A column with no selected
// values, or one absent from the dataset, does not filter.
type Filter map[string][]string

// GenerationFilter maps a graduate level to its selected generations. A
// level with no selection keeps every generation.
type GenerationFilter map[string][]string

// Apply returns a new Dataset holding the records that pass f.
func (d *Dataset) Apply(f Filter) *Dataset {
	type clause struct {
		col  string
		vals map[string]bool
	}
	var clauses []clause
	for col, vals := range f {
		c := canonical(d.Columns, col)
		if c == "" || len(vals) == 0 {
			continue
		}
		clauses = append(clauses, clause{col: c, vals: valueSet(vals)})
	}

	return d.keep(func(r model.Record) bool {
		for _, cl := range clauses {
			if !cl.vals[r.Get(cl.col)] {
				return false
			}
		}
		return true
	})
}

// ApplyGenerations keeps graduates whose generation is selected for their
// own level. Levels with no selection are left untouched. It is a no-op
// without a generation column.
func (d *Dataset) ApplyGenerations(g GenerationFilter) *Dataset {
	if !d.HasColumn(model.ColGeneration) || len(g) == 0 {
		return d
	}
	sets := make(map[string]map[string]bool, len(g))
	for level, vals := range g {
		if len(vals) == 0 {
			continue
		}
		sets[strings.ToLower(strings.TrimSpace(level))] = valueSet(vals)
	}

	return d.keep(func(r model.Record) bool {
		set, ok := sets[strings.ToLower(r.Level)]
		if !ok {
			return true
		}
		return set[r.Get(model.ColGeneration)]
	})
}

// Generations returns the distinct generations per graduate level.
func (d *Dataset) Generations() map[string][]string {
	if !d.HasColumn(model.ColGeneration) {
		return nil
	}
	out := make(map[string][]string)
	seen := make(map[string]bool)
	for _, r := range d.Records {
		gen := r.Get(model.ColGeneration)
		if gen == "" || seen[r.Level+"\x00"+gen] {
			continue
		}
		seen[r.Level+"\x00"+gen] = true
		out[r.Level] = append(out[r.Level], gen)
	}
	return out
}

func (d *Dataset) keep(pred func(model.Record) bool) *Dataset {
	out := &Dataset{Kind: d.Kind, Columns: d.Columns}
	for _, r := range d.Records {
		if pred(r) {
			out.Records = append(out.Records, r)
		}
	}
	return out
}

func valueSet(vals []string) map[string]bool {
	set := make(map[string]bool, len(vals))
	for _, v := range vals {
		set[strings.TrimSpace(v)] = true
	}
	return set
}
