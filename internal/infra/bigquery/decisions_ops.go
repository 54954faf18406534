package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

const (
	decisionsTable = "po_decisions"

	// DefaultListLimit caps ListDecisions when no limit is given.
	DefaultListLimit = 100
	maxListLimit     = 1000
)

// Table identifies the ledger table.
type Table struct {
	ProjectID string
	DatasetID string
}

// Ref returns the fully qualified, backtick-quoted table name.
func (t Table) Ref() string {
	return fmt.Sprintf("`%s.%s.%s`", t.ProjectID, t.DatasetID, decisionsTable)
}

// InsertDecisionWithClient inserts a single DecisionRow. Uses DML INSERT to
// avoid streaming buffer issues.
func InsertDecisionWithClient(ctx context.Context, client *bigquery.Client, t Table, row *DecisionRow) error {
	query := `
		INSERT INTO ` + t.Ref() + ` (
			decision_id, po_number, supplier_name, buyer_department,
			grand_total, is_approved, approval_reason, failed_rules,
			source, decided_on, decided_ts
		)
		VALUES (
			@decision_id, @po_number, @supplier_name, @buyer_department,
			@grand_total, @is_approved, @approval_reason, @failed_rules,
			@source, @decided_on, @decided_ts
		)
	`
	failed := row.FailedRules
	if failed == nil {
		failed = []string{}
	}
	params := []bigquery.QueryParameter{
		{Name: "decision_id", Value: row.DecisionID},
		{Name: "po_number", Value: row.PONumber},
		{Name: "supplier_name", Value: row.SupplierName},
		{Name: "buyer_department", Value: row.BuyerDepartment},
		{Name: "grand_total", Value: row.GrandTotal},
		{Name: "is_approved", Value: row.IsApproved},
		{Name: "approval_reason", Value: row.ApprovalReason},
		{Name: "failed_rules", Value: failed},
		{Name: "source", Value: row.Source},
		{Name: "decided_on", Value: row.DecidedOn},
		{Name: "decided_ts", Value: row.DecidedTS},
	}
	return runDML(ctx, client, "InsertDecision", query, params)
}

// ListDecisionsWithClient returns the most recent decisions, newest first.
func ListDecisionsWithClient(ctx context.Context, client *bigquery.Client, t Table, limit int) ([]*DecisionRow, error) {
	query := `
		SELECT
			decision_id,
			po_number,
			supplier_name,
			buyer_department,
			grand_total,
			is_approved,
			approval_reason,
			failed_rules,
			source,
			decided_on,
			decided_ts
		FROM ` + t.Ref() + `
		ORDER BY decided_ts DESC
		LIMIT @limit
	`
	q := client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "limit", Value: NormalizeLimit(limit)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListDecisionsWithClient: reading query: %w", err)
	}

	var decisions []*DecisionRow
	for {
		var row DecisionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListDecisionsWithClient: iterating: %w", err)
		}
		decisions = append(decisions, &row)
	}
	return decisions, nil
}

// NormalizeLimit clamps limit to (0, 1000], using DefaultListLimit for
// non-positive values.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}

func runDML(ctx context.Context, client *bigquery.Client, op, query string, params []bigquery.QueryParameter) error {
	q := client.Query(query)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("%s: running query: %w", op, err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("%s: waiting for job: %w", op, err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("%s: job error: %w", op, err)
	}
	return nil
}
