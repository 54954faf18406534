package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dvloznov/po-agents/internal/pipeline"
	"github.com/dvloznov/po-agents/internal/purchaseorder"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printApproval(w io.Writer, res purchaseorder.ApprovalResult) {
	verdict := "REJECTED"
	if res.IsApproved {
		verdict = "APPROVED"
	}
	po := res.PONumber
	if po == "" {
		po = "(no number)"
	}
	fmt.Fprintf(w, "PO %s: %s\n", po, verdict)
	fmt.Fprintf(w, "Reason: %s\n", res.ApprovalReason)
	if len(res.FailedRules) > 0 {
		rules := make([]string, len(res.FailedRules))
		for i, r := range res.FailedRules {
			rules[i] = string(r)
		}
		fmt.Fprintf(w, "Failed rules: %s\n", strings.Join(rules, ", "))
	}
}

func printFindings(w io.Writer, findings []purchaseorder.Finding) {
	for _, f := range findings {
		fmt.Fprintf(w, "[%s] %s: %s\n", f.Status, f.Check, f.Message)
	}
}

func printSummary(w io.Writer, s purchaseorder.Summary) {
	fmt.Fprintf(w, "PO number:   %s\n", s.PONumber)
	fmt.Fprintf(w, "Supplier:    %s\n", s.SupplierName)
	fmt.Fprintf(w, "Department:  %s\n", s.BuyerDepartment)
	fmt.Fprintf(w, "Subtotal:    %s\n", s.SubTotal.StringFixed(2))
	fmt.Fprintf(w, "Tax:         %s\n", s.Tax.StringFixed(2))
	fmt.Fprintf(w, "Grand total: %s\n", s.GrandTotal.StringFixed(2))
	if s.Notes != "" {
		fmt.Fprintf(w, "Notes:       %s\n", s.Notes)
	}
}

func printReport(w io.Writer, r *pipeline.Report) {
	printSummary(w, r.Summary)
	fmt.Fprintln(w)
	printFindings(w, r.Findings)
	fmt.Fprintln(w)
	printApproval(w, r.Approval)
	if r.DecisionID != "" {
		fmt.Fprintf(w, "Decision ID: %s\n", r.DecisionID)
	}
}
