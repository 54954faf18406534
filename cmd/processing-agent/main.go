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
)

func main() {
	var (
		port      = flag.String("port", "5207", "HTTP server port")
		publicURL = flag.String("url", "", "Public base URL advertised in the agent card (default http://localhost:<port>)")
	)
	flag.Parse()

	env, err := app.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := run(env, *port, *publicURL); err != nil {
		env.Log.Error().Err(err).Msg("Processing agent failed")
		os.Exit(1)
	}
	env.Log.Info().Msg("Server exited")
}

// run serves the agent and closes the ledger before returning.
func run(env *app.Env, port, url string) error {
	log := env.Log

	rules, err := env.Config.Rules()
	if err != nil {
		return fmt.Errorf("resolve approval rules: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ledger, err := env.Ledger(ctx)
	if err != nil {
		return err
	}
	if ledger != nil {
		defer ledger.Close()
	}

	if url == "" {
		url = "http://localhost:" + port
	}

	executor := agents.NewProcessingExecutor(rules, app.Recorder(ledger), log)
	handler := agents.NewServer(agents.ProcessingCard(url), executor, log)
	log.Info().
		Str("agent", agents.ProcessingAgentName).
		Str("url", url).
		Str("rules", rules.Name).
		Msg("Processing agent ready")

	return app.Serve(ctx, app.NewServer(":"+port, handler), log)
}
