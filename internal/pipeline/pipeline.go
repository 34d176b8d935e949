// Package pipeline runs one full recomputation pass: datasets are filtered
// and counted, results are pooled with manual captures and reconciled
// against the target sheet.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/unaq/indicator-report/internal/capture"
	"github.com/unaq/indicator-report/internal/classify"
	"github.com/unaq/indicator-report/internal/dataset"
	"github.com/unaq/indicator-report/internal/fetcher"
	"github.com/unaq/indicator-report/internal/indicator"
	"github.com/unaq/indicator-report/internal/model"
)

// Section names a part of the report that can fail on its own.
type Section string

const (
	SectionEnrollment Section = "inscritos"
	SectionGraduates  Section = "egresados"
	SectionCapture    Section = "captura"
	SectionTargets    Section = "metas"
)

// SectionError is a data problem that disables one section. Other sections
// still run.
type SectionError struct {
	Section Section `json:"section"`
	Message string  `json:"message"`
}

func (e SectionError) Error() string {
	return string(e.Section) + ": " + e.Message
}

// Options selects the period and filters of a pass.
type Options struct {
	Period           model.Period
	EnrollmentFilter dataset.Filter
	GraduateFilter   dataset.Filter
	Generations      dataset.GenerationFilter
	Admissions       map[model.ProgramCode]int
}

// EnrollmentResult holds the enrollment section.
type EnrollmentResult struct {
	Total     int                 `json:"total"`
	ByProgram []model.CountRow    `json:"by_program"`
	ByLevel   []model.CountRow    `json:"by_level"`
	Metrics   []model.ResultRow   `json:"metrics"`
	Options   map[string][]string `json:"filter_options"`
}

// GraduateResult holds the graduates section.
type GraduateResult struct {
	Total       int                   `json:"total"`
	ByProgram   []model.CountRow      `json:"by_program"`
	ByLevel     []model.CountRow      `json:"by_level"`
	Efficiency  []model.EfficiencyRow `json:"efficiency"`
	Metrics     []model.ResultRow     `json:"metrics"`
	Options     map[string][]string   `json:"filter_options"`
	Generations map[string][]string   `json:"generations,omitempty"`
}

// Result is the outcome of one pass. Sections that failed or had no input
// are nil and, when failed, listed in Errors.
type Result struct {
	RunID       string                    `json:"run_id"`
	Period      model.Period              `json:"period"`
	GeneratedAt time.Time                 `json:"generated_at"`
	Enrollment  *EnrollmentResult         `json:"enrollment,omitempty"`
	Graduates   *GraduateResult           `json:"graduates,omitempty"`
	Captures    []capture.Row             `json:"captures,omitempty"`
	Results     []model.ResultRow         `json:"results"`
	Comparison  *indicator.Reconciliation `json:"comparison,omitempty"`
	Errors      []SectionError            `json:"errors,omitempty"`
}

// Pipeline runs recomputation passes against a capture store.
type Pipeline struct {
	captures *capture.Service
	now      func() time.Time
}

// New creates a Pipeline.
func New(captures *capture.Service) *Pipeline {
	return &Pipeline{captures: captures, now: time.Now}
}

// Run executes one pass. Only capture-store failures return an error; data
// problems become section errors.
func (p *Pipeline) Run(ctx context.Context, in *Inputs, opts Options) (*Result, error) {
	res := &Result{
		RunID:       uuid.New().String(),
		Period:      opts.Period,
		GeneratedAt: p.now(),
		Errors:      append([]SectionError(nil), in.Errors...),
	}
	log := zap.L().With(zap.String("run_id", res.RunID), zap.String("period", opts.Period.Label()))
	log.Info("pipeline: starting pass")

	track := func(section Section, fn func() error) error {
		start := time.Now()
		err := fn()
		var se SectionError
		var mce *fetcher.MissingColumnsError
		switch {
		case err == nil:
			log.Debug("pipeline: section complete",
				zap.String("section", string(section)),
				zap.Duration("duration", time.Since(start)),
			)
			return nil
		case errors.As(err, &mce):
			se = SectionError{Section: section, Message: mce.Error()}
		default:
			return err
		}
		log.Warn("pipeline: section skipped", zap.String("section", string(section)), zap.String("reason", se.Message))
		res.Errors = append(res.Errors, se)
		return nil
	}

	if in.Enrollment != nil {
		if err := track(SectionEnrollment, func() error {
			var err error
			res.Enrollment, err = p.enrollment(in.Enrollment, opts)
			return err
		}); err != nil {
			return nil, err
		}
	}

	if in.Graduates != nil {
		if err := track(SectionGraduates, func() error {
			var err error
			res.Graduates, err = p.graduates(in.Graduates, opts)
			return err
		}); err != nil {
			return nil, err
		}
	}

	var manual []model.ResultRow
	if in.Manual != nil {
		if err := track(SectionCapture, func() error {
			rows, err := capture.ParseRows(in.Manual)
			if err != nil {
				return err
			}
			res.Captures = rows
			manual, err = p.captures.Results(ctx, rows)
			return eris.Wrap(err, "pipeline: manual results")
		}); err != nil {
			return nil, err
		}
	}

	var enrollment, graduates []model.ResultRow
	if res.Enrollment != nil {
		enrollment = res.Enrollment.Metrics
	}
	if res.Graduates != nil {
		graduates = res.Graduates.Metrics
	}
	res.Results = indicator.Aggregate(manual, enrollment, graduates)

	if in.Targets != nil {
		if err := track(SectionTargets, func() error {
			targets, err := indicator.ParseTargets(in.TargetsSheet, in.Targets)
			if err != nil {
				return err
			}
			res.Comparison = indicator.Reconcile(targets, res.Results, opts.Period)
			return nil
		}); err != nil {
			return nil, err
		}
	}

	if res.Comparison != nil {
		counts := res.Comparison.Counts()
		log.Info("pipeline: pass complete",
			zap.Int("rows", len(res.Comparison.Rows)),
			zap.Int("on_target", counts[model.StatusOnTarget]),
			zap.Int("below_target", counts[model.StatusBelowTarget]),
			zap.Int("pending", counts[model.StatusPending]),
			zap.Int("no_data", counts[model.StatusNoData]),
			zap.Int("unmatched", len(res.Comparison.Unmatched)),
			zap.Int("section_errors", len(res.Errors)),
		)
		for _, d := range res.Comparison.Unmatched {
			if len(d.Candidates) > 0 {
				log.Warn("pipeline: target matches a result only after accent folding",
					zap.String("indicador", d.Indicator),
					zap.String("responsable", d.Responsible),
					zap.String("candidate", d.Candidates[0].Indicator),
				)
			}
		}
	} else {
		log.Info("pipeline: pass complete without comparison", zap.Int("section_errors", len(res.Errors)))
	}
	return res, nil
}

func (p *Pipeline) enrollment(tbl *fetcher.Table, opts Options) (*EnrollmentResult, error) {
	ds, err := dataset.FromTable(dataset.KindEnrollment, tbl)
	if err != nil {
		return nil, err
	}
	out := &EnrollmentResult{Options: filterOptions(ds)}
	ds = ds.Apply(opts.EnrollmentFilter)

	out.Total = ds.Len()
	out.ByProgram = ds.ByProgram()
	out.ByLevel = ds.ByLevel(classify.EnrollmentLevels)
	out.Metrics = indicator.EnrollmentMetrics(out.ByLevel)
	return out, nil
}

func (p *Pipeline) graduates(tbl *fetcher.Table, opts Options) (*GraduateResult, error) {
	ds, err := dataset.FromTable(dataset.KindGraduates, tbl)
	if err != nil {
		return nil, err
	}
	out := &GraduateResult{Options: filterOptions(ds), Generations: ds.Generations()}
	ds = ds.Apply(opts.GraduateFilter).ApplyGenerations(opts.Generations)

	out.Total = ds.Len()
	out.ByProgram = ds.ByProgram()
	out.ByLevel = ds.ByLevel(classify.GraduateLevels)
	out.Efficiency = indicator.Efficiency(ds.ByProgramCode(), opts.Admissions)
	out.Metrics = indicator.EfficiencyMetrics(out.Efficiency)
	return out, nil
}

func filterOptions(ds *dataset.Dataset) map[string][]string {
	out := make(map[string][]string)
	for _, col := range model.FilterColumns {
		if vals := ds.Distinct(col); len(vals) > 0 {
			out[col] = vals
		}
	}
	return out
}
