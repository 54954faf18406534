package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

// DecisionRepository stores approval decisions.
type DecisionRepository interface {
	// InsertDecision appends one decision to the ledger.
	InsertDecision(ctx context.Context, row *DecisionRow) error

	// ListDecisions returns up to limit decisions, newest first.
	ListDecisions(ctx context.Context, limit int) ([]*DecisionRow, error)
}

// BigQueryDecisionRepository is the concrete implementation of
// DecisionRepository that interacts with BigQuery. It holds a shared client
// to avoid creating a new connection for each operation.
type BigQueryDecisionRepository struct {
	client *bigquery.Client
	table  Table
}

// NewBigQueryDecisionRepository creates a repository for the decisions table
// in projectID.datasetID.
func NewBigQueryDecisionRepository(ctx context.Context, projectID, datasetID string) (*BigQueryDecisionRepository, error) {
	if projectID == "" || datasetID == "" {
		return nil, fmt.Errorf("NewBigQueryDecisionRepository: project and dataset are required")
	}
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryDecisionRepository: creating client: %w", err)
	}
	return &BigQueryDecisionRepository{
		client: client,
		table:  Table{ProjectID: projectID, DatasetID: datasetID},
	}, nil
}

// Close closes the BigQuery client connection.
func (r *BigQueryDecisionRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Migrate applies the ledger migrations shipped with the binary and returns
// the ones that ran, or would run when dryRun is set.
func (r *BigQueryDecisionRepository) Migrate(ctx context.Context, appliedBy string, dryRun bool) ([]Migration, error) {
	migrations, err := LedgerMigrations(r.table)
	if err != nil {
		return nil, err
	}
	return MigrateWithClient(ctx, r.client, r.table, migrations, appliedBy, dryRun)
}

// InsertDecision delegates to InsertDecisionWithClient with the shared client.
func (r *BigQueryDecisionRepository) InsertDecision(ctx context.Context, row *DecisionRow) error {
	return InsertDecisionWithClient(ctx, r.client, r.table, row)
}

// ListDecisions delegates to ListDecisionsWithClient with the shared client.
func (r *BigQueryDecisionRepository) ListDecisions(ctx context.Context, limit int) ([]*DecisionRow, error) {
	return ListDecisionsWithClient(ctx, r.client, r.table, limit)
}
