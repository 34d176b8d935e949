package main

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"

	"github.com/unaq/indicator-report/internal/config"
	"github.com/unaq/indicator-report/internal/dataset"
	"github.com/unaq/indicator-report/internal/fetcher"
	"github.com/unaq/indicator-report/internal/model"
	"github.com/unaq/indicator-report/internal/pipeline"
	"github.com/unaq/indicator-report/internal/report"
)

// parsePairs reads repeated KEY=VALUE flags into a multi-valued map.
func parsePairs(pairs []string) (map[string][]string, error) {
	out := make(map[string][]string)
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			return nil, eris.Errorf("invalid filter %q (want COLUMNA=VALOR)", p)
		}
		out[k] = append(out[k], v)
	}
	return out, nil
}

// parseAdmissionFlags reads repeated CODE=N flags.
func parseAdmissionFlags(pairs []string) (map[string]int, error) {
	out := make(map[string]int, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if !ok || err != nil {
			return nil, eris.Errorf("invalid admission %q (want CODIGO=N)", p)
		}
		out[strings.ToUpper(strings.TrimSpace(k))] = n
	}
	return out, nil
}

// mergeFilters returns base with extra's selections appended per key.
func mergeFilters(base, extra map[string][]string) map[string][]string {
	out := make(map[string][]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = append([]string(nil), v...)
	}
	for k, v := range extra {
		out[k] = append(out[k], v...)
	}
	return out
}

// csvOptionsFrom builds the CSV reader settings from the inputs config.
func csvOptionsFrom(in config.InputsConfig) fetcher.CSVOptions {
	opts := fetcher.CSVOptions{
		Encoding:   in.CSVEncoding,
		LazyQuotes: true,
		TrimSpace:  true,
	}
	switch d := in.CSVDelimiter; d {
	case "", ",":
	case `\t`, "tab":
		opts.Delimiter = '\t'
	default:
		opts.Delimiter, _ = utf8.DecodeRuneInString(d)
	}
	return opts
}

func reportOptionsFrom(rc config.ReportConfig) report.Options {
	return report.Options{
		Title:       rc.Title,
		Institution: rc.Institution,
		LogoPath:    rc.LogoPath,
	}
}

// passOptions turns the configured period, filters and admissions into
// pipeline options.
func passOptions(period model.Period) (pipeline.Options, error) {
	admissions, err := cfg.AdmissionCounts()
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Period:           period,
		EnrollmentFilter: dataset.Filter(cfg.Filters.Enrollment),
		GraduateFilter:   dataset.Filter(cfg.Filters.Graduates),
		Generations:      dataset.GenerationFilter(cfg.Filters.Generations),
		Admissions:       admissions,
	}, nil
}
