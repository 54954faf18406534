package purchaseorder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Summary is the flat payload exchanged between the intake and processing
// stages:
//
//	{"poNumber": "...", "subTotal": 0.0, "tax": 0.0, "grandTotal": 0.0,
//	 "supplierName": "...", "buyerDepartment": "...", "notes": "..."}
//
// Its totals are carried as extracted; nothing recomputes them.
type Summary struct {
	PONumber        string
	SubTotal        decimal.Decimal
	Tax             decimal.Decimal
	GrandTotal      decimal.Decimal
	SupplierName    string
	BuyerDepartment string
	Notes           string
}

// ApprovalInput returns the fields of s the evaluator looks at.
func (s Summary) ApprovalInput() ApprovalInput {
	return ApprovalInput{
		PONumber:        s.PONumber,
		GrandTotal:      s.GrandTotal,
		SupplierName:    s.SupplierName,
		BuyerDepartment: s.BuyerDepartment,
	}
}

// money is a decimal that encodes as a JSON number with two places and
// decodes leniently from numbers, numeric strings, "" and null.
type money decimal.Decimal

func (m money) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(m).StringFixed(moneyPlaces)), nil
}

func (m *money) UnmarshalJSON(b []byte) error {
	d, err := parseLenientDecimal(b)
	if err != nil {
		return err
	}
	*m = money(d)
	return nil
}

// exact is like money but keeps full precision on output. Stored order
// fields use it so a decoded order derives the same totals.
type exact decimal.Decimal

func (e exact) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(e).String()), nil
}

func (e *exact) UnmarshalJSON(b []byte) error {
	d, err := parseLenientDecimal(b)
	if err != nil {
		return err
	}
	*e = exact(d)
	return nil
}

// parseLenientDecimal accepts 12.5, "12.5", "$1,250.00", "" and null.
func parseLenientDecimal(b []byte) (decimal.Decimal, error) {
	raw := bytes.TrimSpace(b)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, nil
	}
	s := string(raw)
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, fmt.Errorf("decode amount %s: %w", raw, err)
		}
		s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
		if s == "" {
			return decimal.Zero, nil
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("decode amount %s: %w", raw, err)
	}
	return d, nil
}

type summaryWire struct {
	PONumber        string `json:"poNumber"`
	SubTotal        money  `json:"subTotal"`
	Tax             money  `json:"tax"`
	GrandTotal      money  `json:"grandTotal"`
	SupplierName    string `json:"supplierName"`
	BuyerDepartment string `json:"buyerDepartment"`
	Notes           string `json:"notes"`
}

// MarshalJSON implements json.Marshaler.
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(summaryWire{
		PONumber:        s.PONumber,
		SubTotal:        money(s.SubTotal),
		Tax:             money(s.Tax),
		GrandTotal:      money(s.GrandTotal),
		SupplierName:    s.SupplierName,
		BuyerDepartment: s.BuyerDepartment,
		Notes:           s.Notes,
	})
}

// UnmarshalJSON implements json.Unmarshaler. Field names match
// case-insensitively and unknown fields are ignored.
func (s *Summary) UnmarshalJSON(b []byte) error {
	var w summaryWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*s = Summary{
		PONumber:        w.PONumber,
		SubTotal:        decimal.Decimal(w.SubTotal),
		Tax:             decimal.Decimal(w.Tax),
		GrandTotal:      decimal.Decimal(w.GrandTotal),
		SupplierName:    w.SupplierName,
		BuyerDepartment: w.BuyerDepartment,
		Notes:           w.Notes,
	}
	return nil
}

type itemWire struct {
	ItemCode    string `json:"itemCode"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitPrice   exact  `json:"unitPrice"`
	LineTotal   exact  `json:"lineTotal"`
}

type orderWire struct {
	SupplierName         string `json:"supplierName"`
	SupplierAddressLine1 string `json:"supplierAddressLine1,omitempty"`
	SupplierAddressLine2 string `json:"supplierAddressLine2,omitempty"`
	SupplierCity         string `json:"supplierCity,omitempty"`
	SupplierState        string `json:"supplierState,omitempty"`
	SupplierPostalCode   string `json:"supplierPostalCode,omitempty"`
	SupplierCountry      string `json:"supplierCountry,omitempty"`

	Items []itemWire `json:"items"`

	PONumber        string `json:"poNumber"`
	CreatedBy       string `json:"createdBy,omitempty"`
	BuyerDepartment string `json:"buyerDepartment"`
	Notes           string `json:"notes"`

	TaxRate exact `json:"taxRate"`

	// Derived on output, ignored on input.
	SubTotal   *money `json:"subTotal,omitempty"`
	Tax        *money `json:"tax,omitempty"`
	GrandTotal *money `json:"grandTotal,omitempty"`

	IsApproved     bool   `json:"isApproved"`
	ApprovalReason string `json:"approvalReason,omitempty"`
}

// MarshalJSON implements json.Marshaler. Derived totals are written
// alongside the stored fields.
func (po *PurchaseOrder) MarshalJSON() ([]byte, error) {
	sub, tax, grand := money(po.SubTotal()), money(po.TaxAmount()), money(po.GrandTotal())
	w := orderWire{
		SupplierName:         po.SupplierName,
		SupplierAddressLine1: po.SupplierAddressLine1,
		SupplierAddressLine2: po.SupplierAddressLine2,
		SupplierCity:         po.SupplierCity,
		SupplierState:        po.SupplierState,
		SupplierPostalCode:   po.SupplierPostalCode,
		SupplierCountry:      po.SupplierCountry,
		Items:                make([]itemWire, 0, len(po.Items)),
		PONumber:             po.PONumber,
		CreatedBy:            po.CreatedBy,
		BuyerDepartment:      po.BuyerDepartment,
		Notes:                po.Notes,
		TaxRate:              exact(po.TaxRate),
		SubTotal:             &sub,
		Tax:                  &tax,
		GrandTotal:           &grand,
		IsApproved:           po.isApproved,
		ApprovalReason:       po.approvalReason,
	}
	for _, item := range po.Items {
		w.Items = append(w.Items, itemWire{
			ItemCode:    item.ItemCode,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   exact(item.UnitPrice),
			LineTotal:   exact(item.LineTotal),
		})
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler. Any subTotal, tax or
// grandTotal keys in the input are ignored; totals come from the items.
// An order that arrives with a decision already set counts as decided.
func (po *PurchaseOrder) UnmarshalJSON(b []byte) error {
	var w orderWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*po = PurchaseOrder{
		SupplierName:         w.SupplierName,
		SupplierAddressLine1: w.SupplierAddressLine1,
		SupplierAddressLine2: w.SupplierAddressLine2,
		SupplierCity:         w.SupplierCity,
		SupplierState:        w.SupplierState,
		SupplierPostalCode:   w.SupplierPostalCode,
		SupplierCountry:      w.SupplierCountry,
		PONumber:             w.PONumber,
		CreatedBy:            w.CreatedBy,
		BuyerDepartment:      w.BuyerDepartment,
		Notes:                w.Notes,
		TaxRate:              decimal.Decimal(w.TaxRate),
		isApproved:           w.IsApproved,
		approvalReason:       w.ApprovalReason,
		decided:              w.IsApproved || w.ApprovalReason != "",
	}
	for _, item := range w.Items {
		po.Items = append(po.Items, Item{
			ItemCode:    item.ItemCode,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   decimal.Decimal(item.UnitPrice),
			LineTotal:   decimal.Decimal(item.LineTotal),
		})
	}
	return nil
}

// DecodeSummary parses a Summary document.
func DecodeSummary(data []byte) (Summary, error) {
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return Summary{}, fmt.Errorf("DecodeSummary: %w", err)
	}
	return s, nil
}

// DecodeOrder parses a full PurchaseOrder document.
func DecodeOrder(data []byte) (*PurchaseOrder, error) {
	po := &PurchaseOrder{}
	if err := json.Unmarshal(data, po); err != nil {
		return nil, fmt.Errorf("DecodeOrder: %w", err)
	}
	return po, nil
}

// DecodeApprovalResult parses an approval decision document.
func DecodeApprovalResult(data []byte) (ApprovalResult, error) {
	var r ApprovalResult
	if err := json.Unmarshal(data, &r); err != nil {
		return ApprovalResult{}, fmt.Errorf("DecodeApprovalResult: %w", err)
	}
	return r, nil
}

// HasItems reports whether a JSON document looks like a full order
// (it carries an "items" array) rather than a Summary.
func HasItems(data []byte) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	for k, v := range probe {
		if strings.EqualFold(k, "items") {
			return bytes.HasPrefix(bytes.TrimSpace(v), []byte("["))
		}
	}
	return false
}

// DecodeInput parses either a Summary or a full PurchaseOrder. An order is
// validated and reduced to its Summary.
func DecodeInput(data []byte) (Summary, error) {
	if !HasItems(data) {
		return DecodeSummary(data)
	}
	po, err := DecodeOrder(data)
	if err != nil {
		return Summary{}, err
	}
	if err := po.Validate(); err != nil {
		return Summary{}, fmt.Errorf("DecodeInput: %w", err)
	}
	return po.Summary(), nil
}
