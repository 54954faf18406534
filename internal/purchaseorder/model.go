package purchaseorder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// moneyPlaces is the number of decimal places kept for tax and grand totals.
const moneyPlaces = 2

// ErrInvalidOrder is returned by Validate when an order or one of its items
// violates a structural constraint.
var ErrInvalidOrder = errors.New("invalid purchase order")

// Item is one line of a purchase order.
// Table columns: Item Code, Description, Quantity, Unit Price, Line Total.
type Item struct {
	ItemCode    string
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal

	// LineTotal is the value summed into the subtotal. It is taken as given
	// and is not recomputed from Quantity and UnitPrice.
	LineTotal decimal.Decimal
}

// PurchaseOrder is a buyer's request to a supplier. Totals are derived from
// Items and TaxRate on every call and are never stored.
type PurchaseOrder struct {
	// Supplier fields.
	SupplierName         string
	SupplierAddressLine1 string
	SupplierAddressLine2 string
	SupplierCity         string
	SupplierState        string
	SupplierPostalCode   string
	SupplierCountry      string

	// Line items, in display order.
	Items []Item

	PONumber        string
	CreatedBy       string
	BuyerDepartment string
	Notes           string

	// TaxRate is a fraction, e.g. 0.0875 for 8.75%.
	TaxRate decimal.Decimal

	// Approval state, written once through ApplyApproval.
	decided        bool
	isApproved     bool
	approvalReason string
}

// SubTotal returns the sum of all line totals. An order without items has a
// subtotal of zero.
func (po *PurchaseOrder) SubTotal() decimal.Decimal {
	total := decimal.Zero
	if po == nil {
		return total
	}
	for _, item := range po.Items {
		total = total.Add(item.LineTotal)
	}
	return total
}

// TaxAmount returns SubTotal * TaxRate rounded to cents, half away from zero.
func (po *PurchaseOrder) TaxAmount() decimal.Decimal {
	if po == nil {
		return decimal.Zero
	}
	return po.SubTotal().Mul(po.TaxRate).Round(moneyPlaces)
}

// GrandTotal returns SubTotal + TaxAmount rounded to cents.
func (po *PurchaseOrder) GrandTotal() decimal.Decimal {
	return po.SubTotal().Add(po.TaxAmount()).Round(moneyPlaces)
}

// Amount is kept for callers that still read the old "amount" field.
// It always equals GrandTotal.
func (po *PurchaseOrder) Amount() decimal.Decimal {
	return po.GrandTotal()
}

// IsApproved reports whether the evaluator approved the order.
func (po *PurchaseOrder) IsApproved() bool {
	return po.isApproved
}

// ApprovalReason returns the evaluator's reason, or "" when undecided.
func (po *PurchaseOrder) ApprovalReason() string {
	return po.approvalReason
}

// Decided reports whether an approval decision has been applied.
func (po *PurchaseOrder) Decided() bool {
	return po.decided
}

// ApplyApproval records the evaluator's decision on the order. The decision
// can be written only once.
func (po *PurchaseOrder) ApplyApproval(result ApprovalResult) error {
	if po.decided {
		return fmt.Errorf("ApplyApproval: po %q: %w", po.PONumber, ErrAlreadyDecided)
	}
	po.decided = true
	po.isApproved = result.IsApproved
	po.approvalReason = result.ApprovalReason
	return nil
}

// ApprovalInput returns the subset of fields the evaluator looks at.
func (po *PurchaseOrder) ApprovalInput() ApprovalInput {
	return ApprovalInput{
		PONumber:        po.PONumber,
		GrandTotal:      po.GrandTotal(),
		SupplierName:    po.SupplierName,
		BuyerDepartment: po.BuyerDepartment,
	}
}

// Summary projects the order onto the extraction contract.
func (po *PurchaseOrder) Summary() Summary {
	return Summary{
		PONumber:        po.PONumber,
		SubTotal:        po.SubTotal(),
		Tax:             po.TaxAmount(),
		GrandTotal:      po.GrandTotal(),
		SupplierName:    po.SupplierName,
		BuyerDepartment: po.BuyerDepartment,
		Notes:           po.Notes,
	}
}

// Validate checks the structural constraints on line items.
// Totals never call Validate; an invalid order still has well-defined totals.
func (po *PurchaseOrder) Validate() error {
	var problems []string
	for i, item := range po.Items {
		if strings.TrimSpace(item.ItemCode) == "" {
			problems = append(problems, fmt.Sprintf("item %d: item code is required", i+1))
		}
		if item.Quantity < 0 {
			problems = append(problems, fmt.Sprintf("item %d: quantity %d is negative", i+1, item.Quantity))
		}
		if item.UnitPrice.IsNegative() {
			problems = append(problems, fmt.Sprintf("item %d: unit price %s is negative", i+1, item.UnitPrice.StringFixed(moneyPlaces)))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidOrder, strings.Join(problems, "; "))
	}
	return nil
}

// LineMismatch describes an item whose LineTotal differs from
// Quantity * UnitPrice.
type LineMismatch struct {
	Index    int
	ItemCode string
	Expected decimal.Decimal
	Actual   decimal.Decimal
}

// LineTotalMismatches cross-checks each LineTotal against Quantity * UnitPrice.
// The result is informational; SubTotal keeps using LineTotal as given.
func (po *PurchaseOrder) LineTotalMismatches() []LineMismatch {
	var out []LineMismatch
	for i, item := range po.Items {
		expected := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(moneyPlaces)
		if !expected.Equal(item.LineTotal.Round(moneyPlaces)) {
			out = append(out, LineMismatch{
				Index:    i,
				ItemCode: item.ItemCode,
				Expected: expected,
				Actual:   item.LineTotal,
			})
		}
	}
	return out
}
