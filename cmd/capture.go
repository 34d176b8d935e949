package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unaq/indicator-report/internal/capture"
	"github.com/unaq/indicator-report/internal/pipeline"
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Administra los valores de captura manual",
	Long:  "Consulta, guarda, borra, importa y exporta las capturas manuales (v1, v2, comentario) de la hoja de indicadores.",
}

// captureRows reads the capture rows of the configured indicators workbook.
func captureRows(cmd *cobra.Command) ([]capture.Row, error) {
	path, _ := cmd.Flags().GetString("indicators")
	if path == "" {
		path = cfg.Inputs.Indicators
	}
	if path == "" {
		return nil, eris.New("indicators workbook is required (--indicators or inputs.indicators)")
	}
	return pipeline.LoadCaptureRows(pipeline.File{Path: path})
}

// -- capture list --

var captureListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lista las capturas por página",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx, "capture")
		if err != nil {
			return err
		}
		defer env.Close()

		rows, err := captureRows(cmd)
		if err != nil {
			return err
		}

		search, _ := cmd.Flags().GetString("search")
		page, _ := cmd.Flags().GetInt("page")
		size, _ := cmd.Flags().GetInt("size")
		if size == 0 {
			size = cfg.Capture.PageSize
		}

		p, err := env.Captures.Page(ctx, rows, capture.Query{Search: search, Page: page, Size: size})
		if err != nil {
			return eris.Wrap(err, "capture list")
		}
		if p.Total == 0 {
			fmt.Fprintln(os.Stderr, "No hay indicadores de captura.")
			return nil
		}

		formatCapturePage(os.Stdout, p)
		return nil
	},
}

// -- capture set --

var captureSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Guarda la captura de un indicador",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx, "capture")
		if err != nil {
			return err
		}
		defer env.Close()

		e, err := entryFromFlags(cmd)
		if err != nil {
			return err
		}
		res, err := env.Captures.Save(ctx, e)
		if err != nil {
			return eris.Wrap(err, "capture set")
		}

		zap.L().Info("capture: saved",
			zap.String("indicator", e.Indicator),
			zap.String("responsible", e.Responsible),
			zap.Bool("has_result", res.Valid),
		)
		fmt.Printf("Resultado: %s\n", formatResult(res.Valid, res.Value))
		return nil
	},
}

func entryFromFlags(cmd *cobra.Command) (capture.Entry, error) {
	var e capture.Entry
	e.Indicator, _ = cmd.Flags().GetString("indicator")
	e.Responsible, _ = cmd.Flags().GetString("responsible")
	e.V1, _ = cmd.Flags().GetString("v1")
	e.V2, _ = cmd.Flags().GetString("v2")
	e.Comment, _ = cmd.Flags().GetString("comment")
	e.Pct, _ = cmd.Flags().GetBool("pct")
	if e.Indicator == "" {
		return e, eris.New("--indicator is required")
	}
	return e, nil
}

// -- capture clear --

var captureClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Borra la captura de un indicador",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx, "capture")
		if err != nil {
			return err
		}
		defer env.Close()

		ind, _ := cmd.Flags().GetString("indicator")
		resp, _ := cmd.Flags().GetString("responsible")
		if err := env.Captures.Clear(ctx, capture.Row{Indicator: ind, Responsible: resp}); err != nil {
			return eris.Wrap(err, "capture clear")
		}
		zap.L().Info("capture: cleared", zap.String("indicator", ind), zap.String("responsible", resp))
		return nil
	},
}

// -- capture import --

var captureImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Importa capturas desde un archivo YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrap(err, "capture import: open file")
		}
		defer f.Close() //nolint:errcheck

		entries, err := capture.LoadEntries(f)
		if err != nil {
			return err
		}

		env, err := initPipeline(ctx, "capture")
		if err != nil {
			return err
		}
		defer env.Close()

		n, err := env.Captures.SaveAll(ctx, entries)
		if err != nil {
			return eris.Wrapf(err, "capture import: saved %d of %d", n, len(entries))
		}
		zap.L().Info("capture: imported", zap.String("file", args[0]), zap.Int("entries", n))
		fmt.Printf("Importadas %d capturas.\n", n)
		return nil
	},
}

// -- capture export --

var captureExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Exporta las capturas a YAML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx, "capture")
		if err != nil {
			return err
		}
		defer env.Close()

		rows, err := captureRows(cmd)
		if err != nil {
			return err
		}
		entries := make([]capture.Entry, 0, len(rows))
		for _, row := range rows {
			e, err := env.Captures.Load(ctx, row)
			if err != nil {
				return eris.Wrap(err, "capture export")
			}
			entries = append(entries, e)
		}

		var out io.Writer = os.Stdout
		if path, _ := cmd.Flags().GetString("out"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return eris.Wrap(err, "capture export: create file")
			}
			defer f.Close() //nolint:errcheck
			out = f
		}
		return capture.WriteEntries(out, entries)
	},
}

func formatResult(valid bool, v float64) string {
	if !valid {
		return "-"
	}
	return fmt.Sprintf("%.4f", v)
}

func formatCapturePage(w io.Writer, p capture.Page) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INDICADOR\tRESPONSABLE\tV1\tV2\t%\tRESULTADO\tCOMENTARIO")
	for _, e := range p.Entries {
		pct := ""
		if e.Pct {
			pct = "x"
		}
		res := e.Result()
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncate(e.Indicator, 60),
			e.Responsible,
			e.V1,
			e.V2,
			pct,
			formatResult(res.Valid, res.Value),
			truncate(e.Comment, 40),
		)
	}
	tw.Flush() //nolint:errcheck
	fmt.Fprintf(w, "\nPágina %d de %d (%d indicadores)\n", p.Number, p.Pages, p.Total)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	captureCmd.PersistentFlags().String("indicators", "", "libro de indicadores (default from config)")

	captureListCmd.Flags().String("search", "", "filtra por indicador o responsable")
	captureListCmd.Flags().Int("page", 1, "página (desde 1)")
	captureListCmd.Flags().Int("size", 0, "renglones por página (0 = config)")

	captureSetCmd.Flags().String("indicator", "", "nombre del indicador")
	captureSetCmd.Flags().String("responsible", "", "área responsable")
	captureSetCmd.Flags().String("v1", "", "denominador (v1)")
	captureSetCmd.Flags().String("v2", "", "numerador (v2)")
	captureSetCmd.Flags().String("comment", "", "comentario")
	captureSetCmd.Flags().Bool("pct", false, "valores capturados como porcentaje")
	_ = captureSetCmd.MarkFlagRequired("indicator")

	captureClearCmd.Flags().String("indicator", "", "nombre del indicador")
	captureClearCmd.Flags().String("responsible", "", "área responsable")
	_ = captureClearCmd.MarkFlagRequired("indicator")

	captureExportCmd.Flags().String("out", "", "archivo YAML de salida (default stdout)")

	captureCmd.AddCommand(captureListCmd)
	captureCmd.AddCommand(captureSetCmd)
	captureCmd.AddCommand(captureClearCmd)
	captureCmd.AddCommand(captureImportCmd)
	captureCmd.AddCommand(captureExportCmd)
	rootCmd.AddCommand(captureCmd)
}
