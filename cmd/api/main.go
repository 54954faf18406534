package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dvloznov/po-agents/internal/api"
	"github.com/dvloznov/po-agents/internal/api/handlers"
	"github.com/dvloznov/po-agents/internal/app"
	"github.com/dvloznov/po-agents/internal/intake"
	"github.com/dvloznov/po-agents/internal/jobs"
	"github.com/dvloznov/po-agents/internal/jobs/inmemory"
	"github.com/dvloznov/po-agents/internal/pipeline"
	"github.com/dvloznov/po-agents/internal/storage"
)

// unavailableExtractor fails every extraction with the configuration error.
type unavailableExtractor struct{ err error }

func (u unavailableExtractor) Extract(ctx context.Context, doc intake.Document) (*intake.Extraction, error) {
	return nil, u.err
}

type options struct {
	port    string
	workers int
	buffer  int
}

func main() {
	var opts options
	flag.StringVar(&opts.port, "port", "8080", "HTTP server port")
	flag.IntVar(&opts.workers, "workers", 5, "Number of intake job workers")
	flag.IntVar(&opts.buffer, "queue-size", 100, "Intake job queue buffer size")
	flag.Parse()

	env, err := app.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := run(env, opts); err != nil {
		env.Log.Error().Err(err).Msg("API server failed")
		os.Exit(1)
	}
	env.Log.Info().Msg("Server exited")
}

// run wires and serves the API. Everything it opens is closed before it
// returns.
func run(env *app.Env, opts options) error {
	log := env.Log

	rules, err := env.Config.Rules()
	if err != nil {
		return fmt.Errorf("resolve approval rules: %w", err)
	}
	log.Info().Str("rules", rules.Name).Msg("Approval rules loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ledger, err := env.Ledger(ctx)
	if err != nil {
		return err
	}
	if ledger != nil {
		defer ledger.Close()
	}

	var gcs *storage.GCSService
	var uploader storage.Service
	if env.Config.GCSBucket != "" {
		gcs, err = storage.NewGCSService(ctx)
		if err != nil {
			return fmt.Errorf("create storage client: %w", err)
		}
		defer gcs.Close()
		uploader = gcs
	} else {
		log.Warn().Msg("No GCS bucket configured - document uploads will be disabled")
	}

	var extractor intake.Extractor
	if err := env.Config.Model.Validate(); err != nil {
		log.Warn().Err(err).Msg("No extraction model configured - intake jobs will fail")
		extractor = unavailableExtractor{err: err}
	} else {
		extractor, err = intake.NewGeminiExtractor(ctx, env.Config.Model, log)
		if err != nil {
			return fmt.Errorf("create extractor: %w", err)
		}
	}

	var fetcher storage.Fetcher
	if gcs != nil {
		fetcher = gcs
	}

	deps := pipeline.Deps{
		Loader:    storage.NewGCSLoader(fetcher),
		Extractor: extractor,
		Rules:     rules,
		Recorder:  app.Recorder(ledger),
		Log:       log,
	}

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(opts.buffer, jobStore, inmemory.WithWorkers(opts.workers), inmemory.WithLogger(log))

	router := &api.Router{
		Orders:    handlers.NewOrdersHandler(deps, jobQueue, uploader, env.Config.GCSBucket, log),
		Jobs:      handlers.NewJobsHandler(jobStore, log),
		Decisions: handlers.NewDecisionsHandler(app.Repository(ledger), log),
		AuthToken: env.Config.AuthToken,
		Log:       log,
	}

	worker := func(ctx context.Context) error {
		log.Info().Int("workers", opts.workers).Msg("Starting job worker")
		if err := jobQueue.Start(ctx, jobs.NewProcessOrderHandler(deps)); err != nil {
			return fmt.Errorf("start worker: %w", err)
		}
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.ShutdownTimeout)
		defer cancel()
		// Stop job queue and wait for in-flight jobs
		return jobQueue.Stop(shutdownCtx)
	}

	return app.Serve(ctx, app.NewServer(":"+opts.port, router.Handler()), log, worker)
}
