package purchaseorder

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FindingStatus grades the outcome of an audit check.
type FindingStatus string

const (
	FindingOK      FindingStatus = "ok"
	FindingWarning FindingStatus = "warning"
	FindingInvalid FindingStatus = "invalid"
)

// Finding is the outcome of one advisory check. Findings never change an
// approval decision.
type Finding struct {
	Check   string        `json:"check"`
	Status  FindingStatus `json:"status"`
	Message string        `json:"message"`
}

// tolerance is the largest difference treated as a rounding artifact.
var tolerance = decimal.New(1, -2)

// TaxRates maps an upper-cased department name to its tax rate.
type TaxRates struct {
	ByDepartment map[string]decimal.Decimal
	Default      decimal.Decimal
}

// DefaultTaxRates returns the built-in department tax table.
func DefaultTaxRates() TaxRates {
	return TaxRates{
		ByDepartment: map[string]decimal.Decimal{
			"HR":        decimal.RequireFromString("0.065"),
			"IT":        decimal.RequireFromString("0.070"),
			"MKT":       decimal.RequireFromString("0.072"),
			"MARKETING": decimal.RequireFromString("0.072"),
		},
		Default: decimal.RequireFromString("0.07"),
	}
}

// RateFor returns the rate for department, falling back to Default.
func (t TaxRates) RateFor(department string) decimal.Decimal {
	if r, ok := t.ByDepartment[strings.ToUpper(strings.TrimSpace(department))]; ok {
		return r
	}
	return t.Default
}

// SupplierDirectory is a case-insensitive set of approved supplier names.
type SupplierDirectory struct {
	names map[string]string
}

// NewSupplierDirectory builds a directory from names.
func NewSupplierDirectory(names ...string) SupplierDirectory {
	d := SupplierDirectory{names: make(map[string]string, len(names))}
	for _, n := range names {
		d.names[normalizeName(n)] = n
	}
	return d
}

// DefaultSupplierDirectory returns the built-in approved suppliers.
func DefaultSupplierDirectory() SupplierDirectory {
	return NewSupplierDirectory(
		"Stuff We All Get Inc.",
		"Swag Depot",
		"Office Supplies Co",
		"Tech Hardware LLC",
	)
}

// Contains reports whether name is an approved supplier.
func (d SupplierDirectory) Contains(name string) bool {
	_, ok := d.names[normalizeName(name)]
	return ok
}

// Len returns the number of suppliers in the directory.
func (d SupplierDirectory) Len() int {
	return len(d.names)
}

func normalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// CheckPONumber verifies the PREFIX-PO-NUMBER convention.
func CheckPONumber(poNumber string) Finding {
	f := Finding{Check: "po_number"}
	switch {
	case strings.TrimSpace(poNumber) == "":
		f.Status = FindingInvalid
		f.Message = "PO number is empty"
	case strings.Contains(poNumber, "-PO-"):
		f.Status = FindingOK
		f.Message = fmt.Sprintf("PO number %s follows the expected format", poNumber)
	default:
		f.Status = FindingWarning
		f.Message = fmt.Sprintf("PO number %s does not follow standard format (expected: PREFIX-PO-NUMBER)", poNumber)
	}
	return f
}

// CheckTax compares tax against subTotal times the department's rate.
func CheckTax(subTotal, tax decimal.Decimal, department string, rates TaxRates) Finding {
	r := rates.RateFor(department)
	expected := subTotal.Mul(r).Round(moneyPlaces)
	diff := tax.Sub(expected).Abs()
	pct := r.Mul(decimal.NewFromInt(100)).StringFixed(2)

	if diff.LessThan(tolerance) {
		return Finding{
			Check:   "tax",
			Status:  FindingOK,
			Message: fmt.Sprintf("Tax $%s is correct for %s department (rate: %s%%)", tax.StringFixed(moneyPlaces), department, pct),
		}
	}
	return Finding{
		Check:  "tax",
		Status: FindingWarning,
		Message: fmt.Sprintf("Tax discrepancy: expected $%s (%s%%), found $%s, difference $%s",
			expected.StringFixed(moneyPlaces), pct, tax.StringFixed(moneyPlaces), diff.StringFixed(moneyPlaces)),
	}
}

// CheckSupplier looks the supplier up in the approved directory.
func CheckSupplier(name string, directory SupplierDirectory) Finding {
	if directory.Contains(name) {
		return Finding{Check: "supplier", Status: FindingOK, Message: fmt.Sprintf("%s is an approved supplier", name)}
	}
	return Finding{Check: "supplier", Status: FindingWarning, Message: fmt.Sprintf("%s is not in the approved supplier list", name)}
}

// CheckGrandTotal verifies grandTotal == round(subTotal + tax, 2).
func CheckGrandTotal(subTotal, tax, grandTotal decimal.Decimal) Finding {
	expected := subTotal.Add(tax).Round(moneyPlaces)
	diff := grandTotal.Sub(expected).Abs()
	if diff.LessThan(tolerance) {
		return Finding{
			Check:  "grand_total",
			Status: FindingOK,
			Message: fmt.Sprintf("Grand total $%s = $%s + $%s",
				grandTotal.StringFixed(moneyPlaces), subTotal.StringFixed(moneyPlaces), tax.StringFixed(moneyPlaces)),
		}
	}
	return Finding{
		Check:  "grand_total",
		Status: FindingInvalid,
		Message: fmt.Sprintf("Grand total error: expected $%s, found $%s, difference $%s",
			expected.StringFixed(moneyPlaces), grandTotal.StringFixed(moneyPlaces), diff.StringFixed(moneyPlaces)),
	}
}

// AuditOptions carries the reference data for Audit.
type AuditOptions struct {
	TaxRates  TaxRates
	Suppliers SupplierDirectory
}

// DefaultAuditOptions returns the built-in tax table and supplier list.
func DefaultAuditOptions() AuditOptions {
	return AuditOptions{
		TaxRates:  DefaultTaxRates(),
		Suppliers: DefaultSupplierDirectory(),
	}
}

// Audit runs every advisory check against s.
func Audit(s Summary, opts AuditOptions) []Finding {
	return []Finding{
		CheckPONumber(s.PONumber),
		CheckTax(s.SubTotal, s.Tax, s.BuyerDepartment, opts.TaxRates),
		CheckSupplier(s.SupplierName, opts.Suppliers),
		CheckGrandTotal(s.SubTotal, s.Tax, s.GrandTotal),
	}
}

// HasProblems reports whether any finding is not OK.
func HasProblems(findings []Finding) bool {
	for _, f := range findings {
		if f.Status != FindingOK {
			return true
		}
	}
	return false
}
