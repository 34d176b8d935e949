package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeWorkbook(t *testing.T, sheets map[string][][]string, order ...string) string {
	t.Helper()
	f := xlsx.NewFile()
	for _, name := range order {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, cells := range sheets[name] {
			row := sheet.AddRow()
			for _, c := range cells {
				row.AddCell().SetString(c)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "indicadores.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

var targetHeader = []string{"Indicador", "proceso", "Periodicidad", "Responsable", "Ene-Abr", "May-Ago", "Sep-Dic"}

func TestLoadInputs_AllFiles(t *testing.T) {
	dir := t.TempDir()
	enrollPath := filepath.Join(dir, "inscritos.csv")
	require.NoError(t, os.WriteFile(enrollPath, []byte("Carrera,Sexo\n"+ima+",F\n"), 0o644))

	indicators := writeWorkbook(t, map[string][][]string{
		"Captura": {{"Indicador", "Responsable"}, {"Tasa", "Escolar"}},
		"Hoja2":   {targetHeader, {"Tasa", "P", "Anual", "Escolar", "", "1", ""}},
	}, "Captura", "Hoja2")

	data, err := os.ReadFile(indicators)
	require.NoError(t, err)

	in, err := LoadInputs(context.Background(), Sources{
		Enrollment: File{Path: enrollPath},
		Indicators: File{Name: "indicadores.xlsx", Data: data},
	})
	require.NoError(t, err)

	assert.Empty(t, in.Errors)
	require.NotNil(t, in.Enrollment)
	assert.Equal(t, 1, in.Enrollment.Len())
	assert.Nil(t, in.Graduates)
	require.NotNil(t, in.Manual)
	assert.Equal(t, []string{"Indicador", "Responsable"}, in.Manual.Headers)
	require.NotNil(t, in.Targets)
	assert.Equal(t, targetHeader, in.Targets.Headers)
	assert.Equal(t, "Hoja2", in.TargetsSheet)
}

func TestLoadInputs_TargetsFallBackToSecondSheet(t *testing.T) {
	path := writeWorkbook(t, map[string][][]string{
		"Captura": {{"Indicador", "Responsable"}},
		"Metas":   {targetHeader},
	}, "Captura", "Metas")

	in, err := LoadInputs(context.Background(), Sources{Indicators: File{Path: path}})
	require.NoError(t, err)
	require.NotNil(t, in.Targets)
	assert.Equal(t, targetHeader, in.Targets.Headers)
}

func TestLoadInputs_SingleSheetDisablesTargetsOnly(t *testing.T) {
	path := writeWorkbook(t, map[string][][]string{
		"Captura": {{"Indicador", "Responsable"}},
	}, "Captura")

	in, err := LoadInputs(context.Background(), Sources{Indicators: File{Path: path}})
	require.NoError(t, err)
	assert.NotNil(t, in.Manual)
	assert.Nil(t, in.Targets)
	require.Len(t, in.Errors, 1)
	assert.Equal(t, SectionTargets, in.Errors[0].Section)
}

func TestLoadInputs_UnreadableFiles(t *testing.T) {
	in, err := LoadInputs(context.Background(), Sources{
		Enrollment: File{Path: filepath.Join(t.TempDir(), "missing.xlsx")},
		Graduates:  File{Name: "egresados.pdf", Data: []byte("%PDF")},
		Indicators: File{Name: "indicadores.csv", Data: []byte("a,b\n")},
	})
	require.NoError(t, err)

	assert.Nil(t, in.Enrollment)
	assert.Nil(t, in.Graduates)
	assert.Nil(t, in.Manual)
	assert.Nil(t, in.Targets)

	sections := make([]Section, 0, len(in.Errors))
	for _, e := range in.Errors {
		sections = append(sections, e.Section)
	}
	assert.Equal(t, []Section{SectionEnrollment, SectionGraduates, SectionCapture, SectionTargets}, sections)
	assert.Contains(t, in.Errors[1].Message, "egresados.pdf")
}

func TestLoadInputs_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := LoadInputs(ctx, Sources{})
	require.Error(t, err)
}

func TestFile_Empty(t *testing.T) {
	assert.True(t, File{}.Empty())
	assert.True(t, File{Name: "x.csv"}.Empty())
	assert.False(t, File{Path: "x.csv"}.Empty())
	assert.False(t, File{Name: "x.csv", Data: []byte("a")}.Empty())
}

func TestLoadCaptureRows(t *testing.T) {
	path := writeWorkbook(t, map[string][][]string{
		"Captura": {
			{"Indicador", "Responsable"},
			{"Tasa de retención", "Escolar"},
			{"", ""},
			{" TASA DE RETENCIÓN ", "escolar"},
			{"Satisfacción", "Calidad"},
		},
	}, "Captura")

	rows, err := LoadCaptureRows(File{Path: path})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Tasa de retención", rows[0].Indicator)
	assert.Equal(t, "Calidad", rows[1].Responsible)
}

func TestLoadCaptureRows_RejectsCSV(t *testing.T) {
	_, err := LoadCaptureRows(File{Name: "indicadores.csv", Data: []byte("Indicador,Responsable\n")})
	assert.Error(t, err)
}
