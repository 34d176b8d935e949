package report

import (
	"fmt"
	"io"
	"os"

	"github.com/go-pdf/fpdf"
	"github.com/rotisserie/eris"

	"github.com/unaq/indicator-report/internal/model"
)

// Page geometry in points.
const (
	marginX     = 24.0
	marginY     = 36.0
	fontFamily  = "Helvetica"
	bodySize    = 7.0
	headerSize  = 8.0
	lineHeight  = 8.0
	cellPadding = 3.0
	sampleRows  = 30
)

var (
	headerFill = [3]int{0x00, 0x33, 0x66}
	zebraFill  = [3]int{0xf2, 0xf2, 0xf2}
)

var pdfStatusFills = map[model.Status][3]int{
	model.StatusOnTarget:    {0xC6, 0xE0, 0xB4},
	model.StatusBelowTarget: {0xF8, 0xCB, 0xAD},
	model.StatusPending:     {0xFF, 0xE6, 0x99},
	model.StatusNoData:      {0xD9, 0xD9, 0xD9},
}

type pdfWriter struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

// WritePDF writes the landscape letter report: title, period line, the
// comparison and count tables, and the scope notes.
func WritePDF(out io.Writer, v *View) error {
	pdf := fpdf.New("L", "pt", "Letter", "")
	pdf.SetMargins(marginX, marginY, marginX)
	pdf.SetAutoPageBreak(true, marginY)
	pdf.SetTitle(v.Title, true)
	if v.Institution != "" {
		pdf.SetAuthor(v.Institution, true)
	}

	w := &pdfWriter{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.SetFooterFunc(func() {
		pageW, pageH := pdf.GetPageSize()
		pdf.SetFont(fontFamily, "", 8)
		pdf.SetTextColor(0, 0, 0)
		text := w.tr(fmt.Sprintf("%s — Página %d", v.Extended, pdf.PageNo()))
		pdf.SetXY(marginX, pageH-18-lineHeight)
		pdf.CellFormat(pageW-2*marginX, lineHeight, text, "", 0, "R", false, 0, "")
	})

	pdf.AddPage()
	w.header(v)

	comparison := v.ComparisonTable()
	for i := range comparison.Rows {
		// Emoji glyphs are not available in the core fonts.
		row := append([]string(nil), comparison.Rows[i]...)
		row[len(row)-1] = plainSemaphore(v.Comparison[i].Status)
		comparison.Rows[i] = row
	}
	w.table(comparison, func(i, col int) ([3]int, bool) {
		if col != len(ComparisonHeaders)-1 {
			return [3]int{}, false
		}
		c, ok := pdfStatusFills[v.Comparison[i].Status]
		return c, ok
	})
	for _, t := range []Table{v.Enrollment, v.Graduates, v.EnrollmentLevels, v.GraduateLevels, v.Efficiency} {
		w.table(t, nil)
	}

	pdf.Ln(20)
	pdf.SetFont(fontFamily, "", 9)
	pdf.SetTextColor(0, 0, 0)
	for _, p := range []string{ScopeText, ActionText, SampleText} {
		pdf.MultiCell(0, 11, w.tr(p), "", "L", false)
	}

	if err := pdf.Output(out); err != nil {
		return eris.Wrap(err, "report: write pdf")
	}
	return nil
}

func (w *pdfWriter) header(v *View) {
	pdf := w.pdf
	pdf.SetTextColor(0, 0, 0)
	logo := false
	if v.LogoPath != "" {
		if _, err := os.Stat(v.LogoPath); err == nil {
			logo = true
		}
	}

	if logo {
		y := pdf.GetY()
		pdf.ImageOptions(v.LogoPath, marginX, y, 90, 45, false, fpdf.ImageOptions{ReadDpi: true}, 0, "")
		pdf.SetFont(fontFamily, "B", 18)
		pdf.SetXY(marginX+100, y)
		pdf.CellFormat(500, 45, w.tr(v.Title), "", 1, "L", false, 0, "")
	} else {
		pdf.SetFont(fontFamily, "B", 18)
		pdf.CellFormat(0, 30, w.tr(v.Title), "", 1, "C", false, 0, "")
	}

	pdf.SetFont(fontFamily, "", 10)
	pdf.CellFormat(0, 14, w.tr(v.PeriodLine), "", 1, "L", false, 0, "")
	pdf.Ln(12)
}

// table draws t with a repeated header row, zebra striping and widths
// proportional to content. fillFn may override a body cell's fill.
func (w *pdfWriter) table(t Table, fillFn func(row, col int) ([3]int, bool)) {
	if t.Empty() {
		return
	}
	pdf := w.pdf
	pageW, _ := pdf.GetPageSize()
	widths := w.columnWidths(t, pageW-2*marginX)

	// Keep the title with the header and first row.
	_, hh := w.lines(t.Headers, widths, true)
	_, rh := w.lines(t.Rows[0], widths, false)
	if !w.fits(20 + hh + rh) {
		pdf.AddPage()
	}

	pdf.SetFont(fontFamily, "B", 13)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 20, w.tr(t.Title), "", 1, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.25)
	w.row(t.Headers, widths, true, func(int) ([3]int, bool) { return headerFill, true })
	for i, cells := range t.Rows {
		fill := func(col int) ([3]int, bool) {
			if fillFn != nil {
				if c, ok := fillFn(i, col); ok {
					return c, true
				}
			}
			// Every other body row, counting the header as row 0.
			if (i+1)%2 == 0 {
				return zebraFill, true
			}
			return [3]int{}, false
		}
		if _, h := w.lines(cells, widths, false); !w.fits(h) {
			pdf.AddPage()
			w.row(t.Headers, widths, true, func(int) ([3]int, bool) { return headerFill, true })
		}
		w.row(cells, widths, false, fill)
	}
	pdf.Ln(12)
}

func (w *pdfWriter) font(header bool) {
	if header {
		w.pdf.SetFont(fontFamily, "B", bodySize)
		w.pdf.SetTextColor(255, 255, 255)
		return
	}
	w.pdf.SetFont(fontFamily, "", bodySize)
	w.pdf.SetTextColor(0, 0, 0)
}

func (w *pdfWriter) lines(cells []string, widths []float64, header bool) ([][]string, float64) {
	w.font(header)
	out := make([][]string, len(widths))
	maxLines := 1
	for j := range widths {
		text := ""
		if j < len(cells) {
			text = w.tr(cells[j])
		}
		var ls []string
		for _, l := range w.pdf.SplitLines([]byte(text), widths[j]-2*cellPadding) {
			ls = append(ls, string(l))
		}
		out[j] = ls
		if len(ls) > maxLines {
			maxLines = len(ls)
		}
	}
	return out, float64(maxLines)*lineHeight + 2*cellPadding
}

// fits reports whether h more points fit above the bottom margin.
func (w *pdfWriter) fits(h float64) bool {
	_, pageH := w.pdf.GetPageSize()
	return w.pdf.GetY()+h <= pageH-marginY
}

func (w *pdfWriter) row(cells []string, widths []float64, header bool, fill func(col int) ([3]int, bool)) {
	pdf := w.pdf
	wrapped, h := w.lines(cells, widths, header)
	x, y := marginX, pdf.GetY()
	for j, width := range widths {
		style := "D"
		if c, ok := fill(j); ok {
			pdf.SetFillColor(c[0], c[1], c[2])
			style = "FD"
		}
		pdf.Rect(x, y, width, h, style)
		for k, l := range wrapped[j] {
			pdf.SetXY(x+cellPadding, y+cellPadding+float64(k)*lineHeight)
			pdf.CellFormat(width-2*cellPadding, lineHeight, l, "", 0, "L", false, 0, "")
		}
		x += width
	}
	pdf.SetXY(marginX, y+h)
}

// columnWidths sizes each column by its widest header or sampled body
// cell, scales down to fit avail and gives any remainder to the last
// column.
func (w *pdfWriter) columnWidths(t Table, avail float64) []float64 {
	n := len(t.Headers)
	if n == 0 {
		return nil
	}
	widths := make([]float64, n)
	var total float64
	for j, h := range t.Headers {
		w.pdf.SetFont(fontFamily, "", headerSize)
		best := w.pdf.GetStringWidth(w.tr(h))
		w.pdf.SetFont(fontFamily, "", bodySize)
		for i, cell := range t.Column(j) {
			if i >= sampleRows {
				break
			}
			if cw := w.pdf.GetStringWidth(w.tr(cell)); cw > best {
				best = cw
			}
		}
		widths[j] = best + 12
		total += widths[j]
	}
	if total <= 0 {
		for j := range widths {
			widths[j] = avail / float64(n)
		}
		return widths
	}
	ratio := min(1.0, avail/total)
	var sum float64
	for j := range widths {
		widths[j] *= ratio
		sum += widths[j]
	}
	widths[n-1] += avail - sum
	return widths
}
