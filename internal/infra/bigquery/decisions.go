package bigquery

import (
	"encoding/json"
	"math/big"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/po-agents/internal/purchaseorder"
)

// DecisionRow is one approval decision in the ledger.
type DecisionRow struct {
	DecisionID string `bigquery:"decision_id" json:"decision_id"` // REQUIRED

	PONumber        string `bigquery:"po_number" json:"po_number"`               // NULLABLE
	SupplierName    string `bigquery:"supplier_name" json:"supplier_name"`       // NULLABLE
	BuyerDepartment string `bigquery:"buyer_department" json:"buyer_department"` // NULLABLE

	GrandTotal *big.Rat `bigquery:"grand_total" json:"grand_total"` // NUMERIC

	IsApproved     bool     `bigquery:"is_approved" json:"is_approved"`         // REQUIRED
	ApprovalReason string   `bigquery:"approval_reason" json:"approval_reason"` // REQUIRED
	FailedRules    []string `bigquery:"failed_rules" json:"failed_rules"`       // REPEATED

	Source string `bigquery:"source" json:"source"` // NULLABLE

	DecidedOn civil.Date `bigquery:"decided_on" json:"decided_on"` // REQUIRED, partition column
	DecidedTS time.Time  `bigquery:"decided_ts" json:"decided_ts"` // REQUIRED
}

// NewDecisionRow builds a ledger row for a decision taken now.
func NewDecisionRow(source string, s purchaseorder.Summary, result purchaseorder.ApprovalResult) *DecisionRow {
	return newDecisionRowAt(time.Now().UTC(), source, s, result)
}

func newDecisionRowAt(now time.Time, source string, s purchaseorder.Summary, result purchaseorder.ApprovalResult) *DecisionRow {
	failed := make([]string, 0, len(result.FailedRules))
	for _, r := range result.FailedRules {
		failed = append(failed, string(r))
	}
	poNumber := result.PONumber
	if poNumber == "" {
		poNumber = s.PONumber
	}
	return &DecisionRow{
		DecisionID:      uuid.New().String(),
		PONumber:        poNumber,
		SupplierName:    s.SupplierName,
		BuyerDepartment: s.BuyerDepartment,
		GrandTotal:      s.GrandTotal.Round(2).Rat(),
		IsApproved:      result.IsApproved,
		ApprovalReason:  result.ApprovalReason,
		FailedRules:     failed,
		Source:          source,
		DecidedOn:       civil.DateOf(now),
		DecidedTS:       now,
	}
}

// GrandTotalDecimal converts the NUMERIC column back to a decimal.
func (d *DecisionRow) GrandTotalDecimal() decimal.Decimal {
	if d.GrandTotal == nil {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(d.GrandTotal.FloatString(2))
	if err != nil {
		return decimal.Zero
	}
	return v
}

// MarshalJSON customizes JSON serialization for DecisionRow.
func (d DecisionRow) MarshalJSON() ([]byte, error) {
	type Alias DecisionRow
	return json.Marshal(&struct {
		GrandTotal string `json:"grand_total"`
		DecidedOn  string `json:"decided_on"`
		*Alias
	}{
		GrandTotal: d.GrandTotalDecimal().StringFixed(2),
		DecidedOn:  d.DecidedOn.String(),
		Alias:      (*Alias)(&d),
	})
}
