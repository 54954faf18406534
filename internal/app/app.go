// Package app wires configuration, logging and the optional cloud services
// shared by the commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dvloznov/po-agents/internal/config"
	infraBQ "github.com/dvloznov/po-agents/internal/infra/bigquery"
	"github.com/dvloznov/po-agents/internal/logger"
	"github.com/dvloznov/po-agents/internal/pipeline"
)

// ShutdownTimeout bounds graceful HTTP shutdown.
const ShutdownTimeout = 30 * time.Second

// Env is the loaded configuration and logger of a command.
type Env struct {
	Config config.Config
	Log    zerolog.Logger
}

// Load reads .env and the environment and builds the configured logger.
func Load() (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return &Env{
		Config: cfg,
		Log:    logger.NewFromConfig(cfg.LogLevel, cfg.LogFormat),
	}, nil
}

// Ledger opens the BigQuery decision ledger, or returns nil when no project
// is configured. The caller closes a non-nil result.
func (e *Env) Ledger(ctx context.Context) (*infraBQ.BigQueryDecisionRepository, error) {
	if !e.Config.LedgerEnabled() {
		e.Log.Info().Msg("No GCP project configured - decision ledger disabled")
		return nil, nil
	}
	repo, err := infraBQ.NewBigQueryDecisionRepository(ctx, e.Config.GCPProject, e.Config.BigQueryDataset)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	e.Log.Info().
		Str("project", e.Config.GCPProject).
		Str("dataset", e.Config.BigQueryDataset).
		Msg("Decision ledger enabled")
	return repo, nil
}

// Recorder converts a possibly nil repository into a pipeline recorder
// without producing a non-nil interface around a nil pointer.
func Recorder(repo *infraBQ.BigQueryDecisionRepository) pipeline.DecisionRecorder {
	if repo == nil {
		return nil
	}
	return repo
}

// Repository is Recorder for the read side.
func Repository(repo *infraBQ.BigQueryDecisionRepository) infraBQ.DecisionRepository {
	if repo == nil {
		return nil
	}
	return repo
}

// NewServer builds an http.Server with the default timeouts.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
}

// Serve runs server until ctx is canceled, then shuts it down gracefully.
// Extra functions run alongside and share the same lifetime; the first
// error cancels the rest.
func Serve(ctx context.Context, server *http.Server, log zerolog.Logger, extra ...func(ctx context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen %s: %w", server.Addr, err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	for _, fn := range extra {
		fn := fn
		g.Go(func() error { return fn(gctx) })
	}

	return g.Wait()
}
