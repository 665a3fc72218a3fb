package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/probelabs/probe-api/internal/analysis"
	"github.com/probelabs/probe-api/internal/payment"
	"github.com/probelabs/probe-api/internal/scan"
	"github.com/probelabs/probe-api/internal/store"
)

// initStore opens the configured store backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		poolCfg := &store.PoolConfig{
			MaxConns: cfg.Store.Pool.MaxConns,
			MinConns: cfg.Store.Pool.MinConns,
		}
		st, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, poolCfg)
		if err != nil {
			return nil, eris.Wrap(err, "init postgres store")
		}
		return st, nil
	case "sqlite", "":
		st, err := store.NewSQLite(cfg.Store.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "init sqlite store")
		}
		return st, nil
	default:
		return nil, eris.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
}

// initAnalyzer builds the mock analysis provider from config, loading
// fixture overrides when configured.
func initAnalyzer() (analysis.Provider, error) {
	opts := []analysis.MockOption{
		analysis.WithDelays(
			time.Duration(cfg.Analysis.FreeDelaySecs)*time.Second,
			time.Duration(cfg.Analysis.DeepDelaySecs)*time.Second,
		),
	}
	if cfg.Analysis.FixturePath != "" {
		fixtures, err := analysis.LoadFixtures(cfg.Analysis.FixturePath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, analysis.WithFixtures(fixtures))
	}
	return analysis.NewMock(opts...), nil
}

// initService wires the lifecycle controller with the configured store and
// providers.
func initService(ctx context.Context) (*scan.Service, store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, nil, eris.Wrap(err, "migrate store")
	}

	analyzer, err := initAnalyzer()
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, nil, err
	}

	svc := scan.New(st, analyzer, payment.NewMock(),
		scan.WithAnalysisTimeout(time.Duration(cfg.Analysis.TimeoutSecs)*time.Second),
	)
	return svc, st, nil
}
