package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/unaq/indicator-report/internal/capture"
	"github.com/unaq/indicator-report/internal/fetcher"
	"github.com/unaq/indicator-report/internal/indicator"
)

// File is an input file, either on disk (Path) or in memory (Data with a
// Name carrying the extension).
type File struct {
	Name string
	Path string
	Data []byte
}

// Empty reports whether no file was supplied.
func (f File) Empty() bool {
	return f.Path == "" && len(f.Data) == 0
}

func (f File) name() string {
	if f.Name != "" {
		return f.Name
	}
	return filepath.Base(f.Path)
}

func (f File) bytes() ([]byte, error) {
	if len(f.Data) > 0 {
		return f.Data, nil
	}
	data, err := os.ReadFile(f.Path)
	return data, eris.Wrapf(err, "pipeline: read %s", f.Path)
}

// Sources are the three input files of a pass. Any of them may be empty.
type Sources struct {
	Enrollment File
	Graduates  File
	Indicators File
	// TargetsSheet overrides the target sheet name.
	TargetsSheet string
	CSV          fetcher.CSVOptions
}

// Inputs are the parsed tables of a pass. A nil table means the file was
// not supplied or could not be read; read failures are listed in Errors.
type Inputs struct {
	Enrollment   *fetcher.Table
	Graduates    *fetcher.Table
	Manual       *fetcher.Table
	Targets      *fetcher.Table
	TargetsSheet string
	Errors       []SectionError
}

// LoadInputs reads the supplied files concurrently. A file that cannot be
// read disables its own sections only; the returned error is non-nil only
// when ctx is cancelled.
func LoadInputs(ctx context.Context, src Sources) (*Inputs, error) {
	in := &Inputs{TargetsSheet: src.TargetsSheet}
	if in.TargetsSheet == "" {
		in.TargetsSheet = indicator.TargetSheet
	}

	// One slot per section keeps error order stable.
	var enrollErr, gradErr, manualErr, targetErr *SectionError

	g, gCtx := errgroup.WithContext(ctx)

	if !src.Enrollment.Empty() {
		g.Go(func() error {
			tbl, err := loadTable(gCtx, src.Enrollment, src.CSV)
			if err != nil {
				enrollErr = readError(SectionEnrollment, src.Enrollment, err)
				return nil
			}
			in.Enrollment = tbl
			return nil
		})
	}

	if !src.Graduates.Empty() {
		g.Go(func() error {
			tbl, err := loadTable(gCtx, src.Graduates, src.CSV)
			if err != nil {
				gradErr = readError(SectionGraduates, src.Graduates, err)
				return nil
			}
			in.Graduates = tbl
			return nil
		})
	}

	if !src.Indicators.Empty() {
		g.Go(func() error {
			manual, targets, err := loadIndicators(src.Indicators, in.TargetsSheet)
			if err != nil {
				manualErr = readError(SectionCapture, src.Indicators, err)
				targetErr = &SectionError{Section: SectionTargets, Message: manualErr.Message}
				return nil
			}
			in.Manual = manual
			if targets.err != nil {
				targetErr = readError(SectionTargets, src.Indicators, targets.err)
				return nil
			}
			in.Targets = targets.tbl
			return nil
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "pipeline: load inputs")
	}

	for _, se := range []*SectionError{enrollErr, gradErr, manualErr, targetErr} {
		if se != nil {
			in.Errors = append(in.Errors, *se)
		}
	}

	zap.L().Info("pipeline: inputs loaded",
		zap.Bool("enrollment", in.Enrollment != nil),
		zap.Bool("graduates", in.Graduates != nil),
		zap.Bool("manual", in.Manual != nil),
		zap.Bool("targets", in.Targets != nil),
		zap.Int("load_errors", len(in.Errors)),
	)
	return in, nil
}

func loadTable(ctx context.Context, f File, csvOpts fetcher.CSVOptions) (*fetcher.Table, error) {
	data, err := f.bytes()
	if err != nil {
		return nil, err
	}
	return fetcher.LoadBytes(ctx, f.name(), data, fetcher.LoadOptions{CSV: csvOpts})
}

type sheetResult struct {
	tbl *fetcher.Table
	err error
}

// loadIndicators opens the workbook once. The first sheet is the manual
// capture list; targets come from the named sheet, or the second sheet
// when no sheet has that name.
func loadIndicators(f File, targetsSheet string) (*fetcher.Table, sheetResult, error) {
	format, err := fetcher.DetectFormat(f.name())
	if err != nil {
		return nil, sheetResult{}, err
	}
	if format != fetcher.FormatXLSX {
		return nil, sheetResult{}, eris.New("pipeline: indicators workbook must be xlsx")
	}
	data, err := f.bytes()
	if err != nil {
		return nil, sheetResult{}, err
	}
	wb, err := fetcher.OpenWorkbookBytes(data)
	if err != nil {
		return nil, sheetResult{}, err
	}

	rows, err := wb.Rows(fetcher.XLSXOptions{SheetIndex: 0})
	if err != nil {
		return nil, sheetResult{}, err
	}
	manual := fetcher.NewTable(rows)

	rows, err = wb.Rows(fetcher.XLSXOptions{
		SheetName:       targetsSheet,
		SheetIndex:      1,
		FallbackToIndex: true,
	})
	if err != nil {
		return manual, sheetResult{err: err}, nil
	}
	return manual, sheetResult{tbl: fetcher.NewTable(rows)}, nil
}

func readError(section Section, f File, err error) *SectionError {
	zap.L().Warn("pipeline: input unreadable",
		zap.String("section", string(section)),
		zap.String("file", f.name()),
		zap.Error(err),
	)
	return &SectionError{
		Section: section,
		Message: fmt.Sprintf("No se pudo leer '%s': %v", f.name(), err),
	}
}

// LoadCaptureRows reads the manual-capture rows of an indicators workbook.
func LoadCaptureRows(f File) ([]capture.Row, error) {
	manual, _, err := loadIndicators(f, indicator.TargetSheet)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: load capture rows from %s", f.name())
	}
	return capture.ParseRows(manual)
}
