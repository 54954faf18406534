package purchaseorder

import (
	"strings"
	"testing"
)

func TestCheckPONumber(t *testing.T) {
	tests := []struct {
		poNumber string
		want     FindingStatus
	}{
		{poNumber: "SWAG-PO-1001", want: FindingOK},
		{poNumber: "PO1001", want: FindingWarning},
		{poNumber: "", want: FindingInvalid},
	}
	for _, tt := range tests {
		if got := CheckPONumber(tt.poNumber); got.Status != tt.want {
			t.Errorf("CheckPONumber(%q) = %s, want %s (%s)", tt.poNumber, got.Status, tt.want, got.Message)
		}
	}
}

func TestCheckTax(t *testing.T) {
	rates := DefaultTaxRates()
	tests := []struct {
		name       string
		subTotal   string
		tax        string
		department string
		want       FindingStatus
	}{
		{name: "HR rate", subTotal: "1000", tax: "65", department: "HR", want: FindingOK},
		{name: "IT rate lower case", subTotal: "1000", tax: "70", department: "it", want: FindingOK},
		{name: "marketing alias", subTotal: "1000", tax: "72", department: "MKT", want: FindingOK},
		{name: "default rate", subTotal: "200", tax: "14", department: "Travel", want: FindingOK},
		{name: "within a cent", subTotal: "1000", tax: "65.005", department: "HR", want: FindingOK},
		{name: "discrepancy", subTotal: "1000", tax: "80", department: "HR", want: FindingWarning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckTax(d(tt.subTotal), d(tt.tax), tt.department, rates)
			if got.Status != tt.want {
				t.Errorf("status = %s, want %s (%s)", got.Status, tt.want, got.Message)
			}
		})
	}
}

func TestCheckTax_DiscrepancyMessage(t *testing.T) {
	got := CheckTax(d("1000"), d("80"), "HR", DefaultTaxRates())
	for _, want := range []string{"$65.00", "6.50%", "$80.00", "$15.00"} {
		if !strings.Contains(got.Message, want) {
			t.Errorf("message %q missing %q", got.Message, want)
		}
	}
}

func TestCheckSupplier(t *testing.T) {
	dir := DefaultSupplierDirectory()
	if dir.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", dir.Len())
	}
	tests := []struct {
		name string
		want FindingStatus
	}{
		{name: "Swag Depot", want: FindingOK},
		{name: "  swag depot ", want: FindingOK},
		{name: "STUFF WE ALL GET INC.", want: FindingOK},
		{name: "Acme", want: FindingWarning},
		{name: "", want: FindingWarning},
	}
	for _, tt := range tests {
		if got := CheckSupplier(tt.name, dir); got.Status != tt.want {
			t.Errorf("CheckSupplier(%q) = %s, want %s", tt.name, got.Status, tt.want)
		}
	}
}

func TestCheckGrandTotal(t *testing.T) {
	tests := []struct {
		name  string
		sub   string
		tax   string
		grand string
		want  FindingStatus
	}{
		{name: "exact", sub: "100", tax: "7", grand: "107", want: FindingOK},
		{name: "rounding", sub: "100.004", tax: "7", grand: "107", want: FindingOK},
		{name: "wrong", sub: "100", tax: "7", grand: "110", want: FindingInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckGrandTotal(d(tt.sub), d(tt.tax), d(tt.grand)); got.Status != tt.want {
				t.Errorf("status = %s, want %s (%s)", got.Status, tt.want, got.Message)
			}
		})
	}
}

func TestAudit(t *testing.T) {
	clean := Summary{
		PONumber:        "SWAG-PO-7",
		SubTotal:        d("1000"),
		Tax:             d("65"),
		GrandTotal:      d("1065"),
		SupplierName:    "Swag Depot",
		BuyerDepartment: "HR",
	}
	findings := Audit(clean, DefaultAuditOptions())
	if len(findings) != 4 {
		t.Fatalf("Audit returned %d findings, want 4", len(findings))
	}
	if HasProblems(findings) {
		t.Errorf("expected a clean audit, got %+v", findings)
	}

	bad := clean
	bad.SupplierName = "Unknown Vendor"
	bad.GrandTotal = d("2000")
	findings = Audit(bad, DefaultAuditOptions())
	if !HasProblems(findings) {
		t.Error("expected problems")
	}
	if findings[2].Status != FindingWarning || findings[3].Status != FindingInvalid {
		t.Errorf("unexpected findings: %+v", findings)
	}
}
