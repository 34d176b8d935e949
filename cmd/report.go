package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unaq/indicator-report/internal/pipeline"
	"github.com/unaq/indicator-report/internal/report"
)

var (
	reportEnrollment     string
	reportGraduates      string
	reportIndicators     string
	reportTargetsSheet   string
	reportCuatrimestre   string
	reportYear           int
	reportOutDir         string
	reportFormats        []string
	reportAdmissions     []string
	reportAdmissionsFile string
	reportFilterEnroll   []string
	reportFilterGrad     []string
	reportGenerations    []string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Genera el comparativo de metas en XLSX, PDF y JSON",
	Long: `Lee la matriz de inscritos, la de egresados y el libro de indicadores
(hoja de captura manual más hoja de metas), calcula los indicadores del
periodo, los concilia contra las metas y escribe los documentos en el
directorio de salida. Un archivo ilegible o sin columnas requeridas sólo
desactiva su sección.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := applyReportFlags(); err != nil {
			return err
		}

		env, err := initPipeline(ctx, "report")
		if err != nil {
			return err
		}
		defer env.Close()

		period, err := cfg.ResolvePeriod(time.Now())
		if err != nil {
			return eris.Wrap(err, "report: period")
		}
		opts, err := passOptions(period)
		if err != nil {
			return err
		}
		formats, err := report.ParseFormats(cfg.Report.Formats)
		if err != nil {
			return err
		}

		in, err := pipeline.LoadInputs(ctx, reportSources())
		if err != nil {
			return err
		}
		res, err := env.Pipeline.Run(ctx, in, opts)
		if err != nil {
			return eris.Wrap(err, "report: run")
		}

		paths, err := report.WriteFiles(cfg.Report.OutputDir, formats, res, reportOptionsFrom(cfg.Report))
		if err != nil {
			return err
		}

		zap.L().Info("report: complete",
			zap.String("run_id", res.RunID),
			zap.Int("files", len(paths)),
			zap.Int("section_errors", len(res.Errors)),
		)
		printReportSummary(os.Stdout, res, paths)
		return nil
	},
}

// applyReportFlags copies explicitly set flags over the loaded config.
func applyReportFlags() error {
	if reportEnrollment != "" {
		cfg.Inputs.Enrollment = reportEnrollment
	}
	if reportGraduates != "" {
		cfg.Inputs.Graduates = reportGraduates
	}
	if reportIndicators != "" {
		cfg.Inputs.Indicators = reportIndicators
	}
	if reportTargetsSheet != "" {
		cfg.Inputs.TargetsSheet = reportTargetsSheet
	}
	if reportAdmissionsFile != "" {
		cfg.Inputs.AdmissionsFile = reportAdmissionsFile
	}
	if reportCuatrimestre != "" {
		cfg.Period.Cuatrimestre = reportCuatrimestre
	}
	if reportYear != 0 {
		cfg.Period.Year = reportYear
	}
	if reportOutDir != "" {
		cfg.Report.OutputDir = reportOutDir
	}
	if len(reportFormats) > 0 {
		cfg.Report.Formats = reportFormats
	}

	admissions, err := parseAdmissionFlags(reportAdmissions)
	if err != nil {
		return err
	}
	if len(admissions) > 0 && cfg.Admissions == nil {
		cfg.Admissions = make(map[string]int, len(admissions))
	}
	for k, n := range admissions {
		cfg.Admissions[k] = n
	}

	for _, f := range []struct {
		flags  []string
		target *map[string][]string
	}{
		{reportFilterEnroll, &cfg.Filters.Enrollment},
		{reportFilterGrad, &cfg.Filters.Graduates},
		{reportGenerations, &cfg.Filters.Generations},
	} {
		extra, err := parsePairs(f.flags)
		if err != nil {
			return err
		}
		*f.target = mergeFilters(*f.target, extra)
	}
	return nil
}

func reportSources() pipeline.Sources {
	return pipeline.Sources{
		Enrollment:   pipeline.File{Path: cfg.Inputs.Enrollment},
		Graduates:    pipeline.File{Path: cfg.Inputs.Graduates},
		Indicators:   pipeline.File{Path: cfg.Inputs.Indicators},
		TargetsSheet: cfg.Inputs.TargetsSheet,
		CSV:          csvOptionsFrom(cfg.Inputs),
	}
}

func printReportSummary(w io.Writer, res *pipeline.Result, paths []string) {
	fmt.Fprintf(w, "Periodo: %s (%s)\n", res.Period.Label(), res.Period.Extended())
	if res.Comparison != nil {
		fmt.Fprintf(w, "Indicadores comparados: %d (sin meta: %d, metas sin resultado: %d)\n",
			len(res.Comparison.Rows), len(res.Comparison.Orphans), len(res.Comparison.Unmatched))
	}
	for _, se := range res.Errors {
		fmt.Fprintf(w, "AVISO %s\n", se.Error())
	}
	for _, p := range paths {
		fmt.Fprintf(w, "Generado: %s\n", p)
	}
}

func init() {
	f := reportCmd.Flags()
	f.StringVar(&reportEnrollment, "enrollment", "", "matriz de inscritos (xlsx o csv)")
	f.StringVar(&reportGraduates, "graduates", "", "matriz de egresados (xlsx o csv)")
	f.StringVar(&reportIndicators, "indicators", "", "libro de indicadores (xlsx: captura manual + metas)")
	f.StringVar(&reportTargetsSheet, "targets-sheet", "", "hoja de metas (default from config)")
	f.StringVar(&reportCuatrimestre, "cuatrimestre", "", "C1, C2 o C3 (default from config)")
	f.IntVar(&reportYear, "year", 0, "año del reporte (0 = config o año actual)")
	f.StringVar(&reportOutDir, "out", "", "directorio de salida (default from config)")
	f.StringSliceVar(&reportFormats, "format", nil, "formatos: xlsx,pdf,json (default from config)")
	f.StringArrayVar(&reportAdmissions, "admission", nil, "ingresos por programa, CODIGO=N (repetible)")
	f.StringVar(&reportAdmissionsFile, "admissions-file", "", "YAML con ingresos por programa")
	f.StringArrayVar(&reportFilterEnroll, "filter-enrollment", nil, "filtro de inscritos, COLUMNA=VALOR (repetible)")
	f.StringArrayVar(&reportFilterGrad, "filter-graduates", nil, "filtro de egresados, COLUMNA=VALOR (repetible)")
	f.StringArrayVar(&reportGenerations, "generation", nil, "generación por nivel, NIVEL=GENERACION (repetible)")
	rootCmd.AddCommand(reportCmd)
}
