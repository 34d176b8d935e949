package indicator

import (
	"github.com/unaq/indicator-report/internal/classify"
	"github.com/unaq/indicator-report/internal/model"
)

// Indicator names of the auto-derived metrics.
const (
	EnrollmentIndicator = "Matrícula por nivel Educativo"
	EfficiencyIndicator = "Eficiencia Terminal por cohorte por Programa Educativo"
)

// EnrollmentMetrics turns level counts into one result per reported level.
// Levels absent from counts report zero.
func EnrollmentMetrics(counts []model.CountRow) []model.ResultRow {
	byLevel := make(map[string]int, len(counts))
	for _, c := range counts {
		byLevel[c.Label] = c.Count
	}
	out := make([]model.ResultRow, 0, len(classify.EnrollmentLevels))
	for _, lvl := range classify.EnrollmentLevels {
		out = append(out, model.ResultRow{
			Indicator:   EnrollmentIndicator,
			Responsible: lvl,
			Result:      model.Some(float64(byLevel[lvl])),
			Source:      model.SourceEnrollment,
		})
	}
	return out
}

// Efficiency computes graduates / admissions for every program code.
// Programs without admissions get a missing efficiency.
func Efficiency(graduates, admissions map[model.ProgramCode]int) []model.EfficiencyRow {
	out := make([]model.EfficiencyRow, 0, len(model.ProgramCodes))
	for _, code := range model.ProgramCodes {
		row := model.EfficiencyRow{
			Program:    code,
			Graduates:  graduates[code],
			Admissions: admissions[code],
		}
		if row.Admissions > 0 {
			row.Efficiency = model.Some(float64(row.Graduates) / float64(row.Admissions))
		}
		out = append(out, row)
	}
	return out
}

// EfficiencyMetrics turns efficiency rows into results keyed by program code.
func EfficiencyMetrics(rows []model.EfficiencyRow) []model.ResultRow {
	out := make([]model.ResultRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.ResultRow{
			Indicator:   EfficiencyIndicator,
			Responsible: string(r.Program),
			Result:      r.Efficiency,
			Source:      model.SourceGraduates,
		})
	}
	return out
}

// Aggregate pools results in source order: manual, enrollment, graduates.
func Aggregate(manual, enrollment, graduates []model.ResultRow) []model.ResultRow {
	out := make([]model.ResultRow, 0, len(manual)+len(enrollment)+len(graduates))
	out = append(out, manual...)
	out = append(out, enrollment...)
	out = append(out, graduates...)
	return out
}
