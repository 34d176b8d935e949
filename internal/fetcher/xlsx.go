package fetcher

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXOptions configures the XLSX parser.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
	// FallbackToIndex uses SheetIndex when SheetName is set but absent.
	FallbackToIndex bool
	SkipRows        int // number of leading rows to skip
}

// Workbook is an opened XLSX file from which several sheets can be read.
type Workbook struct {
	f *xlsx.File
}

// OpenWorkbook opens an XLSX file from disk.
func OpenWorkbook(path string) (*Workbook, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	return &Workbook{f: f}, nil
}

// OpenWorkbookBytes opens an XLSX file held in memory, e.g. an upload.
func OpenWorkbookBytes(data []byte) (*Workbook, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open binary")
	}
	return &Workbook{f: f}, nil
}

// SheetNames returns the sheet names in workbook order.
func (w *Workbook) SheetNames() []string {
	names := make([]string, 0, len(w.f.Sheets))
	for _, s := range w.f.Sheets {
		names = append(names, s.Name)
	}
	return names
}

// Rows returns all rows of the selected sheet as formatted cell text.
func (w *Workbook) Rows(opts XLSXOptions) ([][]string, error) {
	sheet, err := getSheet(w.f, opts)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for i, row := range sheet.Rows {
		if i < opts.SkipRows {
			continue
		}
		rows = append(rows, rowToStrings(row))
	}
	return rows, nil
}

// ReadXLSX reads an XLSX file and returns all rows as string slices.
func ReadXLSX(path string, opts XLSXOptions) ([][]string, error) {
	wb, err := OpenWorkbook(path)
	if err != nil {
		return nil, err
	}
	return wb.Rows(opts)
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if ok {
			return sheet, nil
		}
		if !opts.FallbackToIndex {
			return nil, eris.Errorf("xlsx: sheet %q not found", opts.SheetName)
		}
	}

	if opts.SheetIndex < 0 || opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

// rowToStrings uses the formatted value so that percent-formatted numbers
// keep their "%" sign.
func rowToStrings(row *xlsx.Row) []string {
	if row == nil {
		return nil
	}
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
