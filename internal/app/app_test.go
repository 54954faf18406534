package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/po-agents/internal/config"
)

func TestRecorderAndRepository_Nil(t *testing.T) {
	assert.Nil(t, Recorder(nil))
	assert.Nil(t, Repository(nil))
}

func TestLedger_Disabled(t *testing.T) {
	env := &Env{Config: config.Config{}, Log: zerolog.New(io.Discard)}
	repo, err := env.Ledger(context.Background())
	require.NoError(t, err)
	assert.Nil(t, repo)
}

func TestServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	server := NewServer("127.0.0.1:0", http.NotFoundHandler())

	var sideRan bool
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, server, zerolog.New(io.Discard), func(ctx context.Context) error {
			<-ctx.Done()
			sideRan = true
			return nil
		})
	}()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
		assert.True(t, sideRan)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServe_ExtraErrorStopsServer(t *testing.T) {
	server := NewServer("127.0.0.1:0", http.NotFoundHandler())
	boom := errors.New("worker failed")

	err := Serve(context.Background(), server, zerolog.New(io.Discard), func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}
