// Package capture manages manually captured indicator values. Each entry
// holds a denominator (v1), a numerator (v2), a comment and a percentage
// flag; the result is v2 / v1.
package capture

import (
	"context"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/unaq/indicator-report/internal/fetcher"
	"github.com/unaq/indicator-report/internal/model"
	"github.com/unaq/indicator-report/internal/normalize"
	"github.com/unaq/indicator-report/internal/store"
)

// Entry fields as stored under an indicator's base key.
const (
	FieldV1      = "v1"
	FieldV2      = "v2"
	FieldComment = "com"
	FieldPct     = "pct"
	FieldResult  = "res"
)

var allFields = []string{FieldV1, FieldV2, FieldComment, FieldPct, FieldResult}

// KeyPrefix starts every capture key.
const KeyPrefix = "ind::"

// BaseKey returns "ind::<indicator>::<responsible>" with both parts normalized.
func BaseKey(indicator, responsible string) string {
	k := normalize.Key(indicator, responsible)
	return KeyPrefix + k.Indicator + "::" + k.Responsible
}

// FieldKey returns the store key of one field.
func FieldKey(base, field string) string {
	return base + "::" + field
}

// ParseValue normalizes a captured value. With pct set, a value written as
// "50%" or greater than 1 is read as a percentage and divided by 100.
func ParseValue(text string, pct bool) model.Num {
	n := normalize.ParseNum(text)
	if n.IsMissing() || !pct {
		return n
	}
	if strings.HasSuffix(strings.TrimSpace(text), "%") || n.Value > 1 {
		return model.Some(n.Value / 100)
	}
	return n
}

// Compute returns v2 / v1, or missing when either is missing or v1 is zero.
func Compute(v1, v2 model.Num) model.Num {
	if v1.IsMissing() || v2.IsMissing() || v1.Value == 0 {
		return model.Missing()
	}
	return model.Some(v2.Value / v1.Value)
}

// Row is one manual-capture row from the indicators workbook.
type Row struct {
	Indicator   string `json:"indicador"`
	Responsible string `json:"responsable"`
}

// ManualSheet is the section name reported for capture-sheet errors.
const ManualSheet = "Captura"

// ParseRows reads the manual-capture sheet. Only Indicador is required; a
// missing Responsable column reads as blank. Rows without both parts and
// repeated keys are dropped.
func ParseRows(tbl *fetcher.Table) ([]Row, error) {
	if err := tbl.Require(ManualSheet, "Indicador"); err != nil {
		return nil, err
	}
	seen := make(map[model.Key]bool)
	var rows []Row
	for _, r := range tbl.Rows {
		ind := strings.TrimSpace(tbl.Get(r, "Indicador"))
		resp := strings.TrimSpace(tbl.Get(r, "Responsable"))
		if ind == "" && resp == "" {
			continue
		}
		k := normalize.Key(ind, resp)
		if seen[k] {
			continue
		}
		seen[k] = true
		rows = append(rows, Row{Indicator: ind, Responsible: resp})
	}
	return rows, nil
}

// Entry is the stored state of one capture row.
type Entry struct {
	Indicator   string `json:"indicador" yaml:"indicador"`
	Responsible string `json:"responsable" yaml:"responsable"`
	V1          string `json:"v1" yaml:"v1"`
	V2          string `json:"v2" yaml:"v2"`
	Comment     string `json:"comentario,omitempty" yaml:"comentario,omitempty"`
	Pct         bool   `json:"pct" yaml:"pct"`
	// Cached is the last saved result, missing when none was saved.
	Cached model.Num `json:"cached" yaml:"-"`
}

// Blank reports whether neither value was captured.
func (e Entry) Blank() bool {
	return strings.TrimSpace(e.V1) == "" && strings.TrimSpace(e.V2) == ""
}

// Result computes the entry's value. Blank entries fall back to the cached
// result.
func (e Entry) Result() model.Num {
	if e.Blank() {
		return e.Cached
	}
	return Compute(ParseValue(e.V1, e.Pct), ParseValue(e.V2, e.Pct))
}

// Service reads and writes capture entries through a Store.
type Service struct {
	store store.Store
}

// NewService wraps st.
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// Load returns the stored entry for a row. Missing fields are blank.
func (s *Service) Load(ctx context.Context, row Row) (Entry, error) {
	base := BaseKey(row.Indicator, row.Responsible)
	vals, err := s.store.List(ctx, base+"::")
	if err != nil {
		return Entry{}, eris.Wrap(err, "capture: load entry")
	}

	e := Entry{
		Indicator:   row.Indicator,
		Responsible: row.Responsible,
		V1:          vals[FieldKey(base, FieldV1)],
		V2:          vals[FieldKey(base, FieldV2)],
		Comment:     vals[FieldKey(base, FieldComment)],
	}
	e.Pct, _ = strconv.ParseBool(vals[FieldKey(base, FieldPct)])
	if res, ok := vals[FieldKey(base, FieldResult)]; ok {
		e.Cached = normalize.ParseNum(res)
	}
	return e, nil
}

// Save writes every field of e and the computed result. When the result
// cannot be computed the cached result is removed.
func (s *Service) Save(ctx context.Context, e Entry) (model.Num, error) {
	base := BaseKey(e.Indicator, e.Responsible)
	res := Compute(ParseValue(e.V1, e.Pct), ParseValue(e.V2, e.Pct))

	fields := map[string]string{
		FieldKey(base, FieldV1):      e.V1,
		FieldKey(base, FieldV2):      e.V2,
		FieldKey(base, FieldComment): e.Comment,
		FieldKey(base, FieldPct):     strconv.FormatBool(e.Pct),
	}
	if res.Valid {
		fields[FieldKey(base, FieldResult)] = strconv.FormatFloat(res.Value, 'g', -1, 64)
	}
	if err := s.store.SetMany(ctx, fields); err != nil {
		return model.Missing(), eris.Wrap(err, "capture: save entry")
	}
	if !res.Valid {
		if err := s.store.Delete(ctx, FieldKey(base, FieldResult)); err != nil {
			return model.Missing(), eris.Wrap(err, "capture: drop cached result")
		}
	}
	return res, nil
}

// SaveAll saves entries in order and stops at the first failure.
func (s *Service) SaveAll(ctx context.Context, entries []Entry) (int, error) {
	for i, e := range entries {
		if _, err := s.Save(ctx, e); err != nil {
			return i, err
		}
	}
	return len(entries), nil
}

// Clear removes every field of the row's entry.
func (s *Service) Clear(ctx context.Context, row Row) error {
	base := BaseKey(row.Indicator, row.Responsible)
	keys := make([]string, len(allFields))
	for i, f := range allFields {
		keys[i] = FieldKey(base, f)
	}
	return eris.Wrap(s.store.Delete(ctx, keys...), "capture: clear entry")
}

// Results builds one manual result row per capture row.
func (s *Service) Results(ctx context.Context, rows []Row) ([]model.ResultRow, error) {
	out := make([]model.ResultRow, 0, len(rows))
	for _, row := range rows {
		e, err := s.Load(ctx, row)
		if err != nil {
			return nil, err
		}
		out = append(out, model.ResultRow{
			Indicator:   row.Indicator,
			Responsible: row.Responsible,
			Result:      e.Result(),
			Source:      model.SourceManual,
		})
	}
	return out, nil
}
