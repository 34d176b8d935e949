package indicator

import (
	"github.com/unaq/indicator-report/internal/model"
	"github.com/unaq/indicator-report/internal/normalize"
)

// Classify assigns a status. A missing target is pending even when a result
// exists. Percentage rows compare on display scale, so a 0.85 proportion
// meets an 80% target.
func Classify(result, target model.Num, isPct bool) model.Status {
	if target.IsMissing() {
		return model.StatusPending
	}
	if result.IsMissing() {
		return model.StatusNoData
	}
	r, t := result.Value, target.Value
	if isPct {
		r, t = DisplayScale(r), DisplayScale(t)
	}
	if r >= t {
		return model.StatusOnTarget
	}
	return model.StatusBelowTarget
}

// DisplayScale maps a proportion in [0,1] onto 0..100.
func DisplayScale(v float64) float64 {
	if v >= 0 && v <= 1 {
		return v * 100
	}
	return v
}

// Diagnostic describes a target row with no exact result match.
type Diagnostic struct {
	Indicator   string `json:"indicador"`
	Responsible string `json:"responsable"`
	// Candidates are result rows whose keys only differ by accents, case or
	// inner whitespace.
	Candidates []model.ResultRow `json:"candidates,omitempty"`
}

// Reconciliation is the output of the join.
type Reconciliation struct {
	Rows      []model.ComparisonRow `json:"rows"`
	Unmatched []Diagnostic          `json:"unmatched,omitempty"`
	// Orphans are results that matched no target row.
	Orphans []model.ResultRow `json:"orphans,omitempty"`
}

// Counts tallies rows per status.
func (r *Reconciliation) Counts() map[model.Status]int {
	out := make(map[model.Status]int, 4)
	for _, row := range r.Rows {
		out[row.Status]++
	}
	return out
}

// Reconcile left-joins results onto targets by normalized key. Each target
// yields exactly one row in target order. Among results sharing a key the
// first with a value wins, otherwise the first one.
func Reconcile(targets []model.TargetRow, results []model.ResultRow, period model.Period) *Reconciliation {
	index := make(map[model.Key]int, len(results))
	folded := make(map[model.Key][]int)
	for i, res := range results {
		k := normalize.Key(res.Indicator, res.Responsible)
		if j, ok := index[k]; !ok || (!results[j].Result.Valid && res.Result.Valid) {
			index[k] = i
		}
		fk := normalize.FoldKey(res.Indicator, res.Responsible)
		folded[fk] = append(folded[fk], i)
	}

	col := period.Column()
	rec := &Reconciliation{Rows: make([]model.ComparisonRow, 0, len(targets))}
	used := make(map[model.Key]bool)
	for _, t := range targets {
		k := normalize.Key(t.Indicator, t.Responsible)
		row := model.ComparisonRow{
			Target:    t,
			Effective: EffectiveTarget(t, col),
		}
		if i, ok := index[k]; ok {
			row.Matched = true
			row.Result = results[i].Result
			row.Source = results[i].Source
			used[k] = true
		} else {
			d := Diagnostic{Indicator: t.Indicator, Responsible: t.Responsible}
			for _, i := range folded[normalize.FoldKey(t.Indicator, t.Responsible)] {
				d.Candidates = append(d.Candidates, results[i])
			}
			rec.Unmatched = append(rec.Unmatched, d)
		}
		row.Status = Classify(row.Result, row.Effective, t.IsPercent)
		rec.Rows = append(rec.Rows, row)
	}

	seen := make(map[model.Key]bool)
	for _, res := range results {
		k := normalize.Key(res.Indicator, res.Responsible)
		if used[k] || seen[k] {
			continue
		}
		seen[k] = true
		rec.Orphans = append(rec.Orphans, results[index[k]])
	}
	return rec
}
