package report

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/unaq/indicator-report/internal/model"
	"github.com/unaq/indicator-report/internal/pipeline"
)

// Format is an output document format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
	FormatJSON Format = "json"
)

// AllFormats lists every output format.
var AllFormats = []Format{FormatXLSX, FormatPDF, FormatJSON}

// ParseFormats validates format names. Empty input selects every format.
func ParseFormats(names []string) ([]Format, error) {
	if len(names) == 0 {
		return AllFormats, nil
	}
	seen := make(map[Format]bool)
	var out []Format
	for _, n := range names {
		f := Format(strings.ToLower(strings.TrimSpace(n)))
		switch f {
		case FormatXLSX, FormatPDF, FormatJSON:
		default:
			return nil, eris.Errorf("report: unknown format %q", n)
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// FileName returns the output file name for f and period p.
func FileName(f Format, p model.Period) string {
	switch f {
	case FormatXLSX:
		return "Metas_" + p.FileSuffix() + ".xlsx"
	case FormatPDF:
		return "Reporte_" + p.FileSuffix() + ".pdf"
	default:
		return "Resultado_" + p.FileSuffix() + ".json"
	}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/json"
	}
}

// WriteJSON writes the full pass result as indented JSON.
func WriteJSON(w io.Writer, res *pipeline.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(res), "report: write json")
}

// Write renders res in format f.
func Write(w io.Writer, f Format, res *pipeline.Result, opts Options) error {
	switch f {
	case FormatXLSX:
		return WriteXLSX(w, NewView(res, opts))
	case FormatPDF:
		return WritePDF(w, NewView(res, opts))
	case FormatJSON:
		return WriteJSON(w, res)
	}
	return eris.Errorf("report: unknown format %q", f)
}

// WriteFiles renders every format into dir and returns the written paths.
// Documents are rendered in memory before their file is created.
func WriteFiles(dir string, formats []Format, res *pipeline.Result, opts Options) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "report: create %s", dir)
	}

	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		var buf bytes.Buffer
		if err := Write(&buf, f, res, opts); err != nil {
			return paths, err
		}
		path := filepath.Join(dir, FileName(f, res.Period))
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return paths, eris.Wrapf(err, "report: write %s", path)
		}
		zap.L().Info("report: written",
			zap.String("format", string(f)),
			zap.String("path", path),
			zap.Int("bytes", buf.Len()),
		)
		paths = append(paths, path)
	}
	return paths, nil
}
