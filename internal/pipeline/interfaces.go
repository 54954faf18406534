package pipeline

import (
	"context"

	infra "github.com/dvloznov/po-agents/internal/infra/bigquery"
	"github.com/dvloznov/po-agents/internal/intake"
)

// DocumentLoader resolves an order source (gs:// URI or local path) to a
// document.
type DocumentLoader interface {
	Load(ctx context.Context, source string) (intake.Document, error)
}

// DecisionRecorder persists approval decisions. This is a minimal interface
// over infra.DecisionRepository.
type DecisionRecorder interface {
	InsertDecision(ctx context.Context, row *infra.DecisionRow) error
}
