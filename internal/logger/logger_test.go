package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew(t *testing.T) {
	log := New()
	if log.GetLevel() != zerolog.InfoLevel {
		t.Errorf("Expected info level, got %s", log.GetLevel())
	}
}

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	log.Info().Msg("test message")

	if !strings.Contains(buf.String(), "test message") {
		t.Errorf("Expected output to contain 'test message', got: %s", buf.String())
	}
}

func TestNewFromConfigWithWriter(t *testing.T) {
	tests := []struct {
		name       string
		level      string
		format     string
		wantLevel  zerolog.Level
		wantJSON   bool
		debugShown bool
	}{
		{name: "defaults", wantLevel: zerolog.InfoLevel},
		{name: "json debug", level: "DEBUG", format: "json", wantLevel: zerolog.DebugLevel, wantJSON: true, debugShown: true},
		{name: "warn console", level: "warn", format: "console", wantLevel: zerolog.WarnLevel},
		{name: "unknown level", level: "chatty", format: "json", wantLevel: zerolog.InfoLevel, wantJSON: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			log := NewFromConfigWithWriter(buf, tt.level, tt.format)
			if log.GetLevel() != tt.wantLevel {
				t.Errorf("level = %s, want %s", log.GetLevel(), tt.wantLevel)
			}

			log.Debug().Msg("debug line")
			if got := strings.Contains(buf.String(), "debug line"); got != tt.debugShown {
				t.Errorf("debug shown = %v, want %v", got, tt.debugShown)
			}

			buf.Reset()
			log.Error().Msg("error line")
			if got := strings.HasPrefix(buf.String(), "{"); got != tt.wantJSON {
				t.Errorf("json output = %v, want %v: %s", got, tt.wantJSON, buf.String())
			}
		})
	}
}

func TestWithContext(t *testing.T) {
	ctx := WithContext(context.Background(), New())
	if ctx.Value(LoggerKey) == nil {
		t.Error("Expected logger in context, got nil")
	}
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf))

	log := FromContext(ctx)
	log.Info().Msg("test")

	if buf.Len() == 0 {
		t.Error("Expected log output from retrieved logger")
	}
}

func TestFromContext_DefaultLogger(t *testing.T) {
	log := FromContext(context.Background())
	if log.GetLevel() == zerolog.Disabled {
		t.Error("Expected default logger to be enabled")
	}
}

func TestWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := WithFields(NewWithWriter(buf), map[string]interface{}{
		"job_id": "123",
		"action": "evaluate",
	})
	log.Info().Msg("test message")

	output := buf.String()
	if !strings.Contains(output, `"job_id":"123"`) || !strings.Contains(output, `"action":"evaluate"`) {
		t.Errorf("Expected output to contain fields, got: %s", output)
	}
}

func TestWithOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	log := WithOrder(NewWithWriter(buf), "SWAG-PO-1", "")
	log.Info().Msg("evaluated")

	output := buf.String()
	if !strings.Contains(output, `"po_number":"SWAG-PO-1"`) {
		t.Errorf("Expected po_number field, got: %s", output)
	}
	if strings.Contains(output, `"source"`) {
		t.Errorf("Expected empty source to be omitted, got: %s", output)
	}
}
