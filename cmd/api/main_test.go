package main

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dvloznov/po-agents/internal/app"
	"github.com/dvloznov/po-agents/internal/config"
)

func TestRun_ReturnsConfigErrors(t *testing.T) {
	env := &app.Env{Config: config.Config{}, Log: zerolog.Nop()}

	err := run(env, options{port: "0", workers: 1, buffer: 1})
	if !errors.Is(err, config.ErrNoRules) {
		t.Fatalf("run() error = %v, want ErrNoRules", err)
	}
}
