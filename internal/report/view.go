// Package report renders a pipeline result as the corporate XLSX workbook,
// the landscape PDF report and JSON.
package report

import (
	"strconv"
	"strings"

	"github.com/unaq/indicator-report/internal/format"
	"github.com/unaq/indicator-report/internal/model"
	"github.com/unaq/indicator-report/internal/pipeline"
)

// DefaultTitle prefixes the PDF title; the report year is appended.
const DefaultTitle = "Matriz de Seguimiento a Metas e Indicadores"

// Options carries presentation settings.
type Options struct {
	Title       string
	Institution string
	// LogoPath is optional; a missing file is skipped.
	LogoPath string
}

// Comparison table headers, in output order.
const (
	HdrIndicator   = "Indicador"
	HdrProcess     = "Proceso"
	HdrPeriodicity = "Periodicidad"
	HdrResponsible = "Responsable"
	HdrEffective   = "Meta efectiva"
	HdrResult      = "Resultado"
	HdrStatus      = "Estatus"
	HdrSemaphore   = "Semáforo"
)

// ComparisonHeaders lists every column of the comparison table.
var ComparisonHeaders = []string{
	HdrIndicator, HdrProcess, HdrPeriodicity, HdrResponsible,
	"Meta " + string(model.EneAbr), "Meta " + string(model.MayAgo), "Meta " + string(model.SepDic),
	HdrEffective, HdrResult, HdrStatus, HdrSemaphore,
}

// Scope and follow-up notes printed under the comparison.
const (
	ScopeTitle = "Alcance"
	ScopeText  = "Alcance de la certificación ISO 9001:2015 Servicio Educativo de Técnico Superior Universitario, " +
		"Ingeniería y Educación Continua."
	ActionText = "Para los valores meta que no se cumplan, el responsable del indicador toma acciones de " +
		"acuerdo al procedimiento P030-SIG-Servicio No Conforme, Acciones Correctivas y Mejora."
	SampleText = "Los criterios para determinar una muestra representativa son los determinados por la Dirección General de " +
		"Universidades Tecnológicas y Politécnicas (DGUTyP) en su Modelo de Evaluación de la Calidad del Subsistema " +
		"de Universidades Tecnológicas y Politécnicas (MECASUTyP)."
)

// Legend lines of the XLSX workbook.
var Legend = []string{
	"🟢 Cumple la meta planteada.",
	"🟡 Margen ± 1% la meta planteada.",
	"⚪ N/A No se aplica evaluación en el periodo.",
	"🔴 No cumple la meta.",
	"🔵 No cumple los criterios para determinar una muestra representativa.",
}

// Table is a titled grid of display strings.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Empty reports whether the table has no rows.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

// Column returns the cells of column i.
func (t Table) Column(i int) []string {
	out := make([]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		if i < len(r) {
			out = append(out, r[i])
		}
	}
	return out
}

// ComparisonLine is one formatted comparison row.
type ComparisonLine struct {
	Cells   []string
	Process string
	Status  model.Status
}

// Cell returns the value under header h.
func (l ComparisonLine) Cell(h string) string {
	for i, name := range ComparisonHeaders {
		if name == h && i < len(l.Cells) {
			return l.Cells[i]
		}
	}
	return ""
}

// View is a result prepared for rendering.
type View struct {
	Title       string
	SheetTitle  string
	PeriodLine  string
	Extended    string
	Institution string
	LogoPath    string

	Comparison []ComparisonLine

	Enrollment       Table
	Graduates        Table
	EnrollmentLevels Table
	GraduateLevels   Table
	Efficiency       Table

	Errors []string
}

// ComparisonTable returns the comparison as a plain table.
func (v *View) ComparisonTable() Table {
	t := Table{Title: "Indicadores (Comparativo)", Headers: ComparisonHeaders}
	for _, l := range v.Comparison {
		t.Rows = append(t.Rows, l.Cells)
	}
	return t
}

// NewView formats res.
func NewView(res *pipeline.Result, opts Options) *View {
	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}
	p := res.Period
	v := &View{
		Title:       title + " " + strconv.Itoa(p.Year),
		SheetTitle:  "METAS — " + p.Label(),
		PeriodLine:  "Periodo: " + p.Label() + " = " + p.Extended() + " — Generado el " + res.GeneratedAt.Format(format.Date),
		Extended:    p.Extended(),
		Institution: opts.Institution,
		LogoPath:    opts.LogoPath,
	}

	if res.Comparison != nil {
		for _, row := range res.Comparison.Rows {
			v.Comparison = append(v.Comparison, comparisonLine(row))
		}
	}

	if e := res.Enrollment; e != nil {
		v.Enrollment = countTable("Inscritos (conteo por carrera)", "Carrera", "Total de Alumnos", e.ByProgram)
		v.EnrollmentLevels = countTable("Inscritos por nivel", "Nivel", "Alcanzado", e.ByLevel)
	}
	if g := res.Graduates; g != nil {
		v.Graduates = countTable("Egresados (conteo por carrera)", "Carrera", "Total de Egresados", g.ByProgram)
		v.GraduateLevels = countTable("Egresados por nivel", "Nivel", "Alcanzado", g.ByLevel)
		v.Efficiency = efficiencyTable(g.Efficiency)
	}

	for _, se := range res.Errors {
		v.Errors = append(v.Errors, se.Error())
	}
	return v
}

func comparisonLine(row model.ComparisonRow) ComparisonLine {
	t := row.Target
	pct := t.IsPercent
	return ComparisonLine{
		Cells: []string{
			t.Indicator,
			t.Process,
			t.Periodicity,
			t.Responsible,
			format.Value(t.EneAbr, pct),
			format.Value(t.MayAgo, pct),
			format.Value(t.SepDic, pct),
			format.Value(row.Effective, pct),
			format.Value(row.Result, pct),
			row.Status.Label(),
			row.Status.Semaphore(),
		},
		Process: t.Process,
		Status:  row.Status,
	}
}

func countTable(title, labelHdr, countHdr string, rows []model.CountRow) Table {
	t := Table{Title: title, Headers: []string{labelHdr, countHdr}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.Label, strconv.Itoa(r.Count)})
	}
	return t
}

func efficiencyTable(rows []model.EfficiencyRow) Table {
	t := Table{
		Title:   "Eficiencia terminal por programa",
		Headers: []string{"Programa", "Egresados", "Ingresos", "Eficiencia", "Eficiencia (%)"},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			string(r.Program),
			strconv.Itoa(r.Graduates),
			strconv.Itoa(r.Admissions),
			format.Decimal(r.Efficiency, 3),
			format.Ratio(r.Efficiency),
		})
	}
	return t
}

// plainSemaphore drops the leading symbol of a semáforo label for fonts
// without emoji glyphs.
func plainSemaphore(s model.Status) string {
	label := s.Semaphore()
	if i := strings.IndexByte(label, ' '); i >= 0 {
		return label[i+1:]
	}
	return label
}
