package report

import (
	_ "image/jpeg" // logo decoders
	_ "image/png"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/unaq/indicator-report/internal/model"
)

// ComparisonSheet is the main sheet of the workbook.
const ComparisonSheet = "Comparativo"

// xlsxColumns are the comparison columns exported to the workbook.
var xlsxColumns = []string{
	HdrIndicator, HdrResponsible, HdrPeriodicity,
	"Meta Ene-Abr", "Meta May-Ago", "Meta Sep-Dic",
	HdrEffective, HdrResult, HdrStatus,
}

var xlsxWidths = map[string]float64{
	HdrIndicator:   48,
	HdrResponsible: 12,
	HdrPeriodicity: 12,
	"Meta Ene-Abr": 12,
	"Meta May-Ago": 12,
	"Meta Sep-Dic": 12,
	HdrEffective:   14,
	HdrResult:      12,
	HdrStatus:      12,
}

// headerRow is the 1-based row of the comparison header.
const headerRow = 8

type xlsxStyles struct {
	title      int
	bandTop    int
	bandBlue   int
	bandGray   int
	meta       int
	section    int
	header     int
	cell       int
	num        int
	scopeTitle int
	scopeDark  int
	text       int
	legend     int
	status     map[model.Status]int
}

var statusFills = map[model.Status]string{
	model.StatusOnTarget:    "#C6E0B4",
	model.StatusBelowTarget: "#F8CBAD",
	model.StatusPending:     "#FFE699",
	model.StatusNoData:      "#D9D9D9",
}

func border() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "#000000", Style: 1},
		{Type: "top", Color: "#000000", Style: 1},
		{Type: "right", Color: "#000000", Style: 1},
		{Type: "bottom", Color: "#000000", Style: 1},
	}
}

func fill(color string) excelize.Fill {
	return excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1}
}

func newStyles(f *excelize.File) (*xlsxStyles, error) {
	var err error
	style := func(s *excelize.Style) int {
		if err != nil {
			return 0
		}
		var id int
		id, err = f.NewStyle(s)
		return id
	}

	white := "#FFFFFF"
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center"}
	st := &xlsxStyles{
		title:      style(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16, Color: white}, Fill: fill("#58AAF7"), Alignment: center}),
		bandTop:    style(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 11, Color: white}, Fill: fill("#2E75B6"), Alignment: center}),
		bandBlue:   style(&excelize.Style{Font: &excelize.Font{Bold: true, Color: white}, Fill: fill("#2E75B6"), Border: border()}),
		bandGray:   style(&excelize.Style{Font: &excelize.Font{Bold: true, Color: white}, Fill: fill("#5F7383"), Border: border()}),
		meta:       style(&excelize.Style{Font: &excelize.Font{Size: 10, Italic: true}, Alignment: &excelize.Alignment{Horizontal: "left"}}),
		section:    style(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}}),
		header:     style(&excelize.Style{Font: &excelize.Font{Bold: true, Color: white}, Fill: fill("#0B2E59"), Alignment: center, Border: border()}),
		cell:       style(&excelize.Style{Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true}, Border: border()}),
		num:        style(&excelize.Style{Alignment: &excelize.Alignment{Horizontal: "right", Vertical: "center"}, Border: border()}),
		scopeTitle: style(&excelize.Style{Font: &excelize.Font{Bold: true, Color: white}, Fill: fill("#4F9ED1"), Alignment: center}),
		scopeDark:  style(&excelize.Style{Font: &excelize.Font{Bold: true, Color: white}, Fill: fill("#1F2E55"), Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true}}),
		text:       style(&excelize.Style{Alignment: &excelize.Alignment{Vertical: "top", WrapText: true}}),
		legend:     style(&excelize.Style{Alignment: &excelize.Alignment{Horizontal: "left"}}),
		status:     make(map[model.Status]int, len(statusFills)),
	}
	for status, color := range statusFills {
		st.status[status] = style(&excelize.Style{Fill: fill(color), Alignment: &excelize.Alignment{Horizontal: "center"}, Border: border()})
	}
	if err != nil {
		return nil, eris.Wrap(err, "report: create style")
	}
	return st, nil
}

// xlsxWriter wraps an excelize file and keeps the first error, so layout
// code can stay linear.
type xlsxWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (w *xlsxWriter) cell(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil && w.err == nil {
		w.err = err
	}
	return name
}

func (w *xlsxWriter) set(col, row int, value any, style int) {
	if w.err != nil {
		return
	}
	c := w.cell(col, row)
	if err := w.f.SetCellValue(w.sheet, c, value); err != nil {
		w.err = err
		return
	}
	if style != 0 {
		w.err = w.f.SetCellStyle(w.sheet, c, c, style)
	}
}

// merged writes value across columns 1..lastCol of row.
func (w *xlsxWriter) merged(row, lastCol int, value any, style int) {
	w.set(1, row, value, style)
	if w.err != nil || lastCol <= 1 {
		return
	}
	from, to := w.cell(1, row), w.cell(lastCol, row)
	if w.err = w.f.MergeCell(w.sheet, from, to); w.err != nil {
		return
	}
	w.err = w.f.SetCellStyle(w.sheet, from, to, style)
}

func (w *xlsxWriter) rowHeight(row int, h float64) {
	if w.err == nil {
		w.err = w.f.SetRowHeight(w.sheet, row, h)
	}
}

// WriteXLSX writes the corporate workbook: the comparison sheet grouped by
// process plus the count sheets that have rows.
func WriteXLSX(out io.Writer, v *View) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", ComparisonSheet); err != nil {
		return eris.Wrap(err, "report: rename sheet")
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   v.SheetTitle,
		Creator: v.Institution,
		Subject: v.Title,
	}); err != nil {
		return eris.Wrap(err, "report: doc props")
	}

	st, err := newStyles(f)
	if err != nil {
		return err
	}

	if err := writeComparisonSheet(f, st, v); err != nil {
		return eris.Wrap(err, "report: comparison sheet")
	}

	for _, t := range []struct {
		sheet string
		tbl   Table
	}{
		{"Inscritos", v.Enrollment},
		{"Egresados", v.Graduates},
		{"Eficiencia", v.Efficiency},
	} {
		if t.tbl.Empty() {
			continue
		}
		if err := writePlainSheet(f, st, t.sheet, t.tbl); err != nil {
			return eris.Wrapf(err, "report: %s sheet", t.sheet)
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(out); err != nil {
		return eris.Wrap(err, "report: write xlsx")
	}
	return nil
}

func writeComparisonSheet(f *excelize.File, st *xlsxStyles, v *View) error {
	w := &xlsxWriter{f: f, sheet: ComparisonSheet}
	last := len(xlsxColumns)

	for row, h := range map[int]float64{1: 32, 2: 24, 3: 18, 4: 18} {
		w.rowHeight(row, h)
	}

	// Title spans the first two rows.
	w.set(1, 1, v.SheetTitle, st.title)
	if w.err == nil {
		from, to := w.cell(1, 1), w.cell(last, 2)
		if w.err = f.MergeCell(ComparisonSheet, from, to); w.err == nil {
			w.err = f.SetCellStyle(ComparisonSheet, from, to, st.title)
		}
	}
	if w.err == nil && v.LogoPath != "" {
		if _, err := os.Stat(v.LogoPath); err == nil {
			w.err = f.AddPicture(ComparisonSheet, "A1", v.LogoPath, &excelize.GraphicOptions{
				ScaleX: 0.25, ScaleY: 0.25, OffsetX: 6, OffsetY: 4,
			})
		}
	}

	w.merged(3, last, "", st.bandTop)
	w.merged(4, last, v.PeriodLine, st.meta)
	w.merged(6, last, "Indicadores (Comparativo)", st.section)

	for j, name := range xlsxColumns {
		w.set(j+1, headerRow, name, st.header)
		if w.err == nil {
			col, _ := excelize.ColumnNumberToName(j + 1)
			w.err = f.SetColWidth(ComparisonSheet, col, col, xlsxWidths[name])
		}
	}

	row := headerRow + 1
	blue := true
	for _, g := range groupByProcess(v.Comparison) {
		band := st.bandBlue
		if !blue {
			band = st.bandGray
		}
		blue = !blue
		w.merged(row, last, "Proceso: "+g.process, band)
		row++
		for _, line := range g.lines {
			for j, name := range xlsxColumns {
				style := st.cell
				switch name {
				case HdrStatus:
					if s, ok := st.status[line.Status]; ok {
						style = s
					}
				case HdrIndicator, HdrResponsible, HdrPeriodicity:
				default:
					style = st.num
				}
				w.set(j+1, row, line.Cell(name), style)
			}
			row++
		}
	}

	row += 2
	w.merged(row, last, ScopeTitle, st.scopeTitle)
	row++
	w.merged(row, last, ScopeText, st.text)
	row++
	w.merged(row, last, ActionText, st.scopeDark)
	w.rowHeight(row, 30)
	row++
	w.merged(row, last, SampleText, st.text)
	w.rowHeight(row, 45)
	row += 2

	for _, item := range Legend {
		w.merged(row, last, item, st.legend)
		row++
	}
	return w.err
}

type processGroup struct {
	process string
	lines   []ComparisonLine
}

// groupByProcess groups lines by process, groups sorted by name and lines
// kept in input order.
func groupByProcess(lines []ComparisonLine) []processGroup {
	idx := make(map[string]int)
	var groups []processGroup
	for _, l := range lines {
		i, ok := idx[l.Process]
		if !ok {
			i = len(groups)
			idx[l.Process] = i
			groups = append(groups, processGroup{process: l.Process})
		}
		groups[i].lines = append(groups[i].lines, l)
	}
	sort.SliceStable(groups, func(a, b int) bool { return groups[a].process < groups[b].process })
	return groups
}

func writePlainSheet(f *excelize.File, st *xlsxStyles, sheet string, t Table) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	w := &xlsxWriter{f: f, sheet: sheet}
	for j, h := range t.Headers {
		w.set(j+1, 1, h, st.header)
		if w.err == nil {
			col, _ := excelize.ColumnNumberToName(j + 1)
			width := 16.0
			if j == 0 {
				width = 48
			}
			w.err = f.SetColWidth(sheet, col, col, width)
		}
	}
	for i, r := range t.Rows {
		for j, val := range r {
			style := st.cell
			if j > 0 {
				style = st.num
			}
			var cell any = val
			if n, err := strconv.Atoi(val); err == nil && j > 0 {
				cell = n
			}
			w.set(j+1, i+2, cell, style)
		}
	}
	return w.err
}
