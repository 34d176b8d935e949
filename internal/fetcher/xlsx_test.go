package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

type testSheet struct {
	name string
	rows [][]string
}

// createTestXLSX writes the sheets in order and returns the file path.
func createTestXLSX(t *testing.T, sheets ...testSheet) string {
	t.Helper()
	f := xlsx.NewFile()
	for _, s := range sheets {
		sheet, err := f.AddSheet(s.name)
		require.NoError(t, err)
		for _, rowData := range s.rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSX_Basic(t *testing.T) {
	path := createTestXLSX(t, testSheet{"Sheet1", [][]string{
		{"Indicador", "Responsable"},
		{"Tasa de titulación", "IMA"},
	}})

	rows, err := ReadXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Indicador", "Responsable"}, rows[0])
	assert.Equal(t, []string{"Tasa de titulación", "IMA"}, rows[1])
}

func TestReadXLSX_SkipRows(t *testing.T) {
	path := createTestXLSX(t, testSheet{"Sheet1", [][]string{
		{"title"},
		{"a", "b"},
	}})

	rows, err := ReadXLSX(path, XLSXOptions{SkipRows: 1})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"a", "b"}, rows[0])
}

func TestWorkbook_SheetByName(t *testing.T) {
	path := createTestXLSX(t,
		testSheet{"Captura", [][]string{{"Indicador"}}},
		testSheet{"Hoja2", [][]string{{"Indicador", "proceso"}}},
	)

	wb, err := OpenWorkbook(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Captura", "Hoja2"}, wb.SheetNames())

	rows, err := wb.Rows(XLSXOptions{SheetName: "Hoja2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Indicador", "proceso"}, rows[0])
}

func TestWorkbook_FallbackToIndex(t *testing.T) {
	path := createTestXLSX(t,
		testSheet{"Captura", [][]string{{"first"}}},
		testSheet{"Metas", [][]string{{"second"}}},
	)

	wb, err := OpenWorkbook(path)
	require.NoError(t, err)

	rows, err := wb.Rows(XLSXOptions{SheetName: "Hoja2", SheetIndex: 1, FallbackToIndex: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"second"}, rows[0])

	_, err = wb.Rows(XLSXOptions{SheetName: "Hoja2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `sheet "Hoja2" not found`)
}

func TestWorkbook_IndexOutOfRange(t *testing.T) {
	path := createTestXLSX(t, testSheet{"Only", [][]string{{"x"}}})

	_, err := ReadXLSX(path, XLSXOptions{SheetIndex: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestReadXLSX_PercentFormatKeepsSign(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Hoja2")
	require.NoError(t, err)
	row := sheet.AddRow()
	row.AddCell().SetString("Meta")
	row = sheet.AddRow()
	cell := row.AddCell()
	cell.SetFloatWithFormat(0.8, "0%")
	path := filepath.Join(t.TempDir(), "pct.xlsx")
	require.NoError(t, f.Save(path))

	rows, err := ReadXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Contains(t, rows[1][0], "%")
}

func TestReadXLSX_FileNotFound(t *testing.T) {
	_, err := ReadXLSX("/nonexistent/file.xlsx", XLSXOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xlsx: open file")
}

func TestOpenWorkbookBytes_Invalid(t *testing.T) {
	_, err := OpenWorkbookBytes([]byte("not a zip"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xlsx: open binary")
}

func TestLoadFile_XLSX(t *testing.T) {
	path := createTestXLSX(t, testSheet{"Sheet1", [][]string{
		{" Carrera ", "Sexo"},
		{"TSU en Aviónica", "M"},
		{"", ""},
		{"IMA"},
	}})

	tbl, err := LoadFile(context.Background(), path, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Carrera", "Sexo"}, tbl.Headers)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, []string{"IMA", ""}, tbl.Rows[1])
}

func TestLoadFile_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inscritos.csv")
	require.NoError(t, os.WriteFile(path, []byte("Carrera\nIMA\nIAM\n"), 0o644))

	tbl, err := LoadFile(context.Background(), path, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(context.Background(), "/nonexistent/x.csv", LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetcher: read")
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"a.xlsx", FormatXLSX, false},
		{"A.XLSX", FormatXLSX, false},
		{"a.xlsm", FormatXLSX, false},
		{"a.csv", FormatCSV, false},
		{"a.xls", "", true},
		{"a.xlsb", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unsupported file format")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
