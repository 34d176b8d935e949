// Package dataset turns enrollment and graduate sheets into classified
// records, applies the report filters and produces value counts.
package dataset

import (
	"sort"
	"strings"

	"github.com/unaq/indicator-report/internal/classify"
	"github.com/unaq/indicator-report/internal/fetcher"
	"github.com/unaq/indicator-report/internal/model"
)

// Kind tells which classifier a dataset uses.
type Kind string

const (
	KindEnrollment Kind = "enrollment"
	KindGraduates  Kind = "graduates"
)

// SheetName returns the display name used in section errors.
func (k Kind) SheetName() string {
	if k == KindGraduates {
		return "Egresados"
	}
	return "Inscritos"
}

var knownColumns = []string{
	model.ColProgram,
	model.ColSex,
	model.ColPeriod,
	model.ColGroup,
	model.ColCycle,
	model.ColGeneration,
}

// Dataset is a classified sheet.
type Dataset struct {
	Kind    Kind
	Records []model.Record
	// Columns lists the recognized columns present in the sheet.
	Columns []string
}

// FromTable classifies every row of tbl. The program column is required.
func FromTable(kind Kind, tbl *fetcher.Table) (*Dataset, error) {
	if err := tbl.Require(kind.SheetName(), model.ColProgram); err != nil {
		return nil, err
	}

	ds := &Dataset{Kind: kind}
	for _, col := range knownColumns {
		if tbl.Has(col) {
			ds.Columns = append(ds.Columns, col)
		}
	}

	for _, row := range tbl.Rows {
		fields := make(map[string]string, len(tbl.Headers))
		for i, h := range tbl.Headers {
			if h == "" {
				continue
			}
			if _, dup := fields[h]; !dup {
				fields[h] = row[i]
			}
		}
		// Canonical names win over header spelling.
		for _, col := range ds.Columns {
			fields[col] = tbl.Get(row, col)
		}
		rec := model.Record{Fields: fields}
		name := rec.Name()
		switch kind {
		case KindGraduates:
			rec.Level = classify.GraduateLevel(name)
			rec.Program = classify.ProgramCode(name)
		default:
			rec.Level = classify.EnrollmentLevel(name)
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds, nil
}

// HasColumn reports whether col was present in the source sheet.
func (d *Dataset) HasColumn(col string) bool {
	return canonical(d.Columns, col) != ""
}

func canonical(cols []string, col string) string {
	col = strings.TrimSpace(col)
	for _, c := range cols {
		if strings.EqualFold(c, col) {
			return c
		}
	}
	return ""
}

// Distinct returns the sorted distinct non-blank values of col.
func (d *Dataset) Distinct(col string) []string {
	col = canonical(d.Columns, col)
	if col == "" {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, r := range d.Records {
		v := r.Get(col)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.Records) }
