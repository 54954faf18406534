package bigquery

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/po-agents/internal/purchaseorder"
)

func TestNewDecisionRow(t *testing.T) {
	now := time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC)
	s := purchaseorder.Summary{
		PONumber:        "SWAG-PO-5",
		GrandTotal:      decimal.RequireFromString("1234.565"),
		SupplierName:    "Swag Depot",
		BuyerDepartment: "HR",
	}
	result := purchaseorder.ApprovalResult{
		IsApproved:     false,
		ApprovalReason: "Grand Total $1234.57 must be less than $1000.00.",
		FailedRules:    []purchaseorder.Rule{purchaseorder.RuleGrandTotal},
	}

	row := newDecisionRowAt(now, "gs://orders/po.png", s, result)

	if row.DecisionID == "" {
		t.Error("expected a decision id")
	}
	if row.PONumber != "SWAG-PO-5" {
		t.Errorf("PONumber = %q, want summary PO number when result has none", row.PONumber)
	}
	if !row.GrandTotalDecimal().Equal(decimal.RequireFromString("1234.57")) {
		t.Errorf("GrandTotal = %s, want 1234.57", row.GrandTotalDecimal())
	}
	if len(row.FailedRules) != 1 || row.FailedRules[0] != "grand_total" {
		t.Errorf("FailedRules = %v", row.FailedRules)
	}
	if row.DecidedOn != (civil.Date{Year: 2024, Month: time.March, Day: 9}) {
		t.Errorf("DecidedOn = %s", row.DecidedOn)
	}
	if !row.DecidedTS.Equal(now) || row.Source != "gs://orders/po.png" {
		t.Errorf("unexpected row: %+v", row)
	}

	other := newDecisionRowAt(now, "", s, result)
	if other.DecisionID == row.DecisionID {
		t.Error("decision ids must be unique")
	}
}

func TestDecisionRow_MarshalJSON(t *testing.T) {
	row := newDecisionRowAt(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), "po.png",
		purchaseorder.Summary{GrandTotal: decimal.NewFromInt(500), SupplierName: "Acme"},
		purchaseorder.ApprovalResult{PONumber: "A-PO-1", IsApproved: true, ApprovalReason: "Approved"})

	data, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	for _, want := range []string{`"grand_total":"500.00"`, `"decided_on":"2024-01-02"`, `"po_number":"A-PO-1"`, `"is_approved":true`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("output %s missing %s", data, want)
		}
	}
}

func TestDecisionRow_GrandTotalDecimalNil(t *testing.T) {
	if !(&DecisionRow{}).GrandTotalDecimal().IsZero() {
		t.Error("expected zero for missing grand total")
	}
}

func TestTableRef(t *testing.T) {
	tbl := Table{ProjectID: "proj", DatasetID: "orders"}
	if got := tbl.Ref(); got != "`proj.orders.po_decisions`" {
		t.Errorf("Ref() = %s", got)
	}
	if got := tbl.migrationsRef(); got != "`proj.orders.schema_migrations`" {
		t.Errorf("migrationsRef() = %s", got)
	}
}

func TestNormalizeLimit(t *testing.T) {
	tests := map[int]int{-1: DefaultListLimit, 0: DefaultListLimit, 10: 10, 1000: 1000, 5000: 1000}
	for in, want := range tests {
		if got := NormalizeLimit(in); got != want {
			t.Errorf("NormalizeLimit(%d) = %d, want %d", in, got, want)
		}
	}
}
