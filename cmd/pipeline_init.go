package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/unaq/indicator-report/internal/capture"
	"github.com/unaq/indicator-report/internal/pipeline"
	"github.com/unaq/indicator-report/internal/store"
)

// reportEnv holds the capture store and the services built on it.
type reportEnv struct {
	Store    store.Store
	Captures *capture.Service
	Pipeline *pipeline.Pipeline
}

// Close releases the store.
func (e *reportEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func newReportEnv(st store.Store) *reportEnv {
	captures := capture.NewService(st)
	return &reportEnv{
		Store:    st,
		Captures: captures,
		Pipeline: pipeline.New(captures),
	}
}

// initPipeline validates the config for mode, opens and migrates the
// capture store and wires the services.
func initPipeline(ctx context.Context, mode string) (*reportEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, eris.Wrap(err, "config validation")
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}

	return newReportEnv(st), nil
}
