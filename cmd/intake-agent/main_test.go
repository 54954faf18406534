package main

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/dvloznov/po-agents/internal/app"
	"github.com/dvloznov/po-agents/internal/config"
)

func TestRun_RequiresModel(t *testing.T) {
	env := &app.Env{Config: config.Config{}, Log: zerolog.Nop()}

	if err := run(env, "0", ""); err == nil {
		t.Fatal("run() succeeded without a model configuration")
	}
}
