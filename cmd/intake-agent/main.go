package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dvloznov/po-agents/internal/agents"
	"github.com/dvloznov/po-agents/internal/app"
	"github.com/dvloznov/po-agents/internal/intake"
)

func main() {
	var (
		port      = flag.String("port", "5000", "HTTP server port")
		publicURL = flag.String("url", "", "Public base URL advertised in the agent card (default http://localhost:<port>)")
	)
	flag.Parse()

	env, err := app.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := run(env, *port, *publicURL); err != nil {
		env.Log.Error().Err(err).Msg("Intake agent failed")
		os.Exit(1)
	}
	env.Log.Info().Msg("Server exited")
}

func run(env *app.Env, port, url string) error {
	log := env.Log

	if err := env.Config.Model.Validate(); err != nil {
		return fmt.Errorf("extraction model is not configured: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	extractor, err := intake.NewGeminiExtractor(ctx, env.Config.Model, log)
	if err != nil {
		return fmt.Errorf("create extractor: %w", err)
	}

	if url == "" {
		url = "http://localhost:" + port
	}

	handler := agents.NewServer(agents.IntakeCard(url), agents.NewIntakeExecutor(extractor, log), log)
	log.Info().Str("agent", agents.IntakeAgentName).Str("url", url).Msg("Intake agent ready")

	return app.Serve(ctx, app.NewServer(":"+port, handler), log)
}
