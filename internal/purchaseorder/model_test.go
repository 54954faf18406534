package purchaseorder

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func orderWithTotals(rate string, lineTotals ...string) *PurchaseOrder {
	po := &PurchaseOrder{
		PONumber:        "SWAG-PO-1001",
		SupplierName:    "Acme",
		BuyerDepartment: "IT",
		TaxRate:         d(rate),
	}
	for i, lt := range lineTotals {
		po.Items = append(po.Items, Item{
			ItemCode:  string(rune('A' + i)),
			Quantity:  1,
			UnitPrice: d(lt),
			LineTotal: d(lt),
		})
	}
	return po
}

func TestPurchaseOrder_Totals(t *testing.T) {
	tests := []struct {
		name       string
		rate       string
		lineTotals []string
		wantSub    string
		wantTax    string
		wantGrand  string
	}{
		{
			name:      "no items",
			rate:      "0.07",
			wantSub:   "0",
			wantTax:   "0",
			wantGrand: "0",
		},
		{
			name:       "single item no tax",
			rate:       "0",
			lineTotals: []string{"500"},
			wantSub:    "500",
			wantTax:    "0",
			wantGrand:  "500",
		},
		{
			name:       "fractional rate",
			rate:       "0.0875",
			lineTotals: []string{"60", "40"},
			wantSub:    "100",
			wantTax:    "8.75",
			wantGrand:  "108.75",
		},
		{
			name:       "tax rounds half away from zero",
			rate:       "0.5",
			lineTotals: []string{"0.25"},
			wantSub:    "0.25",
			wantTax:    "0.13",
			wantGrand:  "0.38",
		},
		{
			name:       "tax rounds down below half",
			rate:       "0.05",
			lineTotals: []string{"10.05"},
			wantSub:    "10.05",
			wantTax:    "0.5",
			wantGrand:  "10.55",
		},
		{
			name:       "cents do not drift",
			rate:       "0",
			lineTotals: []string{"0.1", "0.2"},
			wantSub:    "0.3",
			wantTax:    "0",
			wantGrand:  "0.3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			po := orderWithTotals(tt.rate, tt.lineTotals...)
			if got := po.SubTotal(); !got.Equal(d(tt.wantSub)) {
				t.Errorf("SubTotal() = %s, want %s", got, tt.wantSub)
			}
			if got := po.TaxAmount(); !got.Equal(d(tt.wantTax)) {
				t.Errorf("TaxAmount() = %s, want %s", got, tt.wantTax)
			}
			if got := po.GrandTotal(); !got.Equal(d(tt.wantGrand)) {
				t.Errorf("GrandTotal() = %s, want %s", got, tt.wantGrand)
			}
			if got := po.Amount(); !got.Equal(po.GrandTotal()) {
				t.Errorf("Amount() = %s, want GrandTotal %s", got, po.GrandTotal())
			}
		})
	}
}

func TestPurchaseOrder_TotalsFollowItems(t *testing.T) {
	po := orderWithTotals("0", "100")
	if !po.GrandTotal().Equal(d("100")) {
		t.Fatalf("GrandTotal() = %s, want 100", po.GrandTotal())
	}

	po.Items = append(po.Items, Item{ItemCode: "X", Quantity: 1, UnitPrice: d("50"), LineTotal: d("50")})
	if !po.GrandTotal().Equal(d("150")) {
		t.Errorf("GrandTotal() after append = %s, want 150", po.GrandTotal())
	}

	po.TaxRate = d("0.1")
	if !po.GrandTotal().Equal(d("165")) {
		t.Errorf("GrandTotal() after rate change = %s, want 165", po.GrandTotal())
	}
}

func TestPurchaseOrder_NilSafeTotals(t *testing.T) {
	var po *PurchaseOrder
	if !po.SubTotal().IsZero() || !po.TaxAmount().IsZero() || !po.GrandTotal().IsZero() {
		t.Error("expected zero totals for nil order")
	}
}

func TestPurchaseOrder_LineTotalTakenAsGiven(t *testing.T) {
	po := &PurchaseOrder{
		Items: []Item{
			{ItemCode: "A", Quantity: 3, UnitPrice: d("10"), LineTotal: d("25")},
			{ItemCode: "B", Quantity: 2, UnitPrice: d("5"), LineTotal: d("10")},
		},
	}
	if !po.SubTotal().Equal(d("35")) {
		t.Errorf("SubTotal() = %s, want 35", po.SubTotal())
	}

	mismatches := po.LineTotalMismatches()
	if len(mismatches) != 1 {
		t.Fatalf("LineTotalMismatches() returned %d entries, want 1", len(mismatches))
	}
	if mismatches[0].ItemCode != "A" || !mismatches[0].Expected.Equal(d("30")) {
		t.Errorf("unexpected mismatch: %+v", mismatches[0])
	}
}

func TestPurchaseOrder_Validate(t *testing.T) {
	tests := []struct {
		name    string
		item    Item
		wantErr bool
	}{
		{name: "valid", item: Item{ItemCode: "A", Quantity: 1, UnitPrice: d("1")}},
		{name: "zero quantity allowed", item: Item{ItemCode: "A", Quantity: 0, UnitPrice: d("1")}},
		{name: "missing code", item: Item{ItemCode: "  ", Quantity: 1}, wantErr: true},
		{name: "negative quantity", item: Item{ItemCode: "A", Quantity: -1}, wantErr: true},
		{name: "negative price", item: Item{ItemCode: "A", Quantity: 1, UnitPrice: d("-0.01")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			po := &PurchaseOrder{Items: []Item{tt.item}}
			err := po.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidOrder) {
				t.Errorf("expected ErrInvalidOrder, got %v", err)
			}
		})
	}
}

func TestPurchaseOrder_ApplyApprovalOnce(t *testing.T) {
	po := orderWithTotals("0", "10")
	if po.Decided() {
		t.Fatal("new order should be undecided")
	}

	if err := po.ApplyApproval(ApprovalResult{IsApproved: true, ApprovalReason: "ok"}); err != nil {
		t.Fatalf("ApplyApproval failed: %v", err)
	}
	if !po.IsApproved() || po.ApprovalReason() != "ok" || !po.Decided() {
		t.Errorf("decision not recorded: approved=%v reason=%q", po.IsApproved(), po.ApprovalReason())
	}

	err := po.ApplyApproval(ApprovalResult{IsApproved: false, ApprovalReason: "no"})
	if !errors.Is(err, ErrAlreadyDecided) {
		t.Fatalf("second ApplyApproval error = %v, want ErrAlreadyDecided", err)
	}
	if !po.IsApproved() || po.ApprovalReason() != "ok" {
		t.Error("second ApplyApproval must not overwrite the decision")
	}
}

func TestPurchaseOrder_Summary(t *testing.T) {
	po := orderWithTotals("0.1", "100")
	po.Notes = "rush"

	s := po.Summary()
	if s.PONumber != po.PONumber || s.SupplierName != "Acme" || s.BuyerDepartment != "IT" || s.Notes != "rush" {
		t.Errorf("unexpected summary fields: %+v", s)
	}
	if !s.SubTotal.Equal(d("100")) || !s.Tax.Equal(d("10")) || !s.GrandTotal.Equal(d("110")) {
		t.Errorf("unexpected summary totals: sub=%s tax=%s grand=%s", s.SubTotal, s.Tax, s.GrandTotal)
	}
}
