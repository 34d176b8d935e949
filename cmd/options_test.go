package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unaq/indicator-report/internal/config"
	"github.com/unaq/indicator-report/internal/model"
)

func TestParsePairs(t *testing.T) {
	got, err := parsePairs([]string{"Sexo=F", "Carrera = IMA", "Sexo=M"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"Sexo":    {"F", "M"},
		"Carrera": {"IMA"},
	}, got)

	for _, bad := range []string{"Sexo", "=F", "Sexo="} {
		_, err := parsePairs([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestParseAdmissionFlags(t *testing.T) {
	got, err := parseAdmissionFlags([]string{"ima=40", "TSUA=12"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"IMA": 40, "TSUA": 12}, got)

	_, err = parseAdmissionFlags([]string{"IMA=cuarenta"})
	assert.Error(t, err)
	_, err = parseAdmissionFlags([]string{"IMA"})
	assert.Error(t, err)
}

func TestMergeFilters(t *testing.T) {
	base := map[string][]string{"sexo": {"F"}}
	got := mergeFilters(base, map[string][]string{"sexo": {"M"}, "grupo": {"A"}})

	assert.Equal(t, map[string][]string{"sexo": {"F", "M"}, "grupo": {"A"}}, got)
	assert.Equal(t, []string{"F"}, base["sexo"], "base must not change")
}

func TestCSVOptionsFrom(t *testing.T) {
	tests := []struct {
		delim string
		want  rune
	}{
		{"", 0},
		{",", 0},
		{";", ';'},
		{`\t`, '\t'},
		{"tab", '\t'},
		{"|", '|'},
	}
	for _, tt := range tests {
		opts := csvOptionsFrom(config.InputsConfig{CSVDelimiter: tt.delim, CSVEncoding: "windows-1252"})
		assert.Equal(t, tt.want, opts.Delimiter, tt.delim)
		assert.Equal(t, "windows-1252", opts.Encoding)
		assert.True(t, opts.TrimSpace)
	}
}

func TestApplyReportFlags(t *testing.T) {
	prev := cfg
	t.Cleanup(func() {
		cfg = prev
		reportIndicators, reportCuatrimestre, reportYear = "", "", 0
		reportFormats, reportAdmissions, reportFilterEnroll, reportGenerations = nil, nil, nil, nil
	})

	cfg = &config.Config{}
	cfg.Period.Cuatrimestre = "C2"
	cfg.Report.Formats = []string{"xlsx", "pdf", "json"}
	cfg.Filters.Enrollment = map[string][]string{"sexo": {"F"}}

	reportIndicators = "indicadores.xlsx"
	reportCuatrimestre = "C3"
	reportYear = 2026
	reportFormats = []string{"pdf"}
	reportAdmissions = []string{"ima=40"}
	reportFilterEnroll = []string{"Grupo=A"}
	reportGenerations = []string{"Ingeniería=2019-2023"}

	require.NoError(t, applyReportFlags())

	assert.Equal(t, "indicadores.xlsx", cfg.Inputs.Indicators)
	assert.Equal(t, "C3", cfg.Period.Cuatrimestre)
	assert.Equal(t, 2026, cfg.Period.Year)
	assert.Equal(t, []string{"pdf"}, cfg.Report.Formats)
	assert.Equal(t, map[string]int{"IMA": 40}, cfg.Admissions)
	assert.Equal(t, map[string][]string{"sexo": {"F"}, "Grupo": {"A"}}, cfg.Filters.Enrollment)
	assert.Equal(t, map[string][]string{"Ingeniería": {"2019-2023"}}, cfg.Filters.Generations)

	period, err := cfg.ResolvePeriod(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	opts, err := passOptions(period)
	require.NoError(t, err)
	assert.Equal(t, map[model.ProgramCode]int{model.ProgramIMA: 40}, opts.Admissions)
	assert.Equal(t, model.Period{Cuatrimestre: model.C3, Year: 2026}, opts.Period)
}

func TestApplyReportFlags_InvalidPair(t *testing.T) {
	prev := cfg
	t.Cleanup(func() {
		cfg = prev
		reportFilterGrad = nil
	})
	cfg = &config.Config{}
	reportFilterGrad = []string{"sin-igual"}

	assert.Error(t, applyReportFlags())
}
