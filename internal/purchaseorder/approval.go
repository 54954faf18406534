package purchaseorder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidRuleConfig marks a RuleConfig that makes one of the rules
	// impossible to pass. It is a configuration problem, not a rejection.
	ErrInvalidRuleConfig = errors.New("invalid approval rule config")

	// ErrAlreadyDecided is returned when a decision is applied twice.
	ErrAlreadyDecided = errors.New("approval already decided")
)

// Rule identifies one approval check.
type Rule string

const (
	RuleSupplierName Rule = "supplier_name"
	RuleGrandTotal   Rule = "grand_total"
	RuleDepartment   Rule = "buyer_department"
)

// MatchMode controls how buyer departments are compared.
type MatchMode string

const (
	// MatchExact compares department names byte for byte.
	MatchExact MatchMode = "exact"
	// MatchFold trims whitespace and ignores case.
	MatchFold MatchMode = "fold"
)

// RuleConfig holds the thresholds the evaluator applies. The supplier name
// rule is unconditional and has no setting.
type RuleConfig struct {
	// MaxGrandTotal is an exclusive upper bound on the grand total.
	MaxGrandTotal decimal.Decimal

	// AllowedDepartments lists the buyer departments that may auto-approve.
	AllowedDepartments []string

	// DepartmentMatch defaults to MatchExact when empty.
	DepartmentMatch MatchMode
}

// Validate reports settings under which a rule can never pass.
func (c RuleConfig) Validate() error {
	var problems []string
	if c.MaxGrandTotal.IsNegative() || c.MaxGrandTotal.IsZero() {
		problems = append(problems, fmt.Sprintf("max grand total must be positive, got %s", c.MaxGrandTotal.String()))
	}
	if len(c.allowedDepartments()) == 0 {
		problems = append(problems, "allowed departments must not be empty")
	}
	switch c.DepartmentMatch {
	case "", MatchExact, MatchFold:
	default:
		problems = append(problems, fmt.Sprintf("unknown department match mode %q", c.DepartmentMatch))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRuleConfig, strings.Join(problems, "; "))
	}
	return nil
}

func (c RuleConfig) allowedDepartments() []string {
	out := make([]string, 0, len(c.AllowedDepartments))
	for _, d := range c.AllowedDepartments {
		if strings.TrimSpace(d) != "" {
			out = append(out, d)
		}
	}
	return out
}

// departmentAllowed reports whether dept is in the allowed set.
func (c RuleConfig) departmentAllowed(dept string) bool {
	if dept == "" {
		return false
	}
	for _, allowed := range c.AllowedDepartments {
		if c.DepartmentMatch == MatchFold {
			if strings.EqualFold(strings.TrimSpace(allowed), strings.TrimSpace(dept)) {
				return true
			}
			continue
		}
		if allowed == dept {
			return true
		}
	}
	return false
}

// ApprovalInput is the minimal view of an order the evaluator needs.
type ApprovalInput struct {
	PONumber        string
	GrandTotal      decimal.Decimal
	SupplierName    string
	BuyerDepartment string
}

// ApprovalResult is the evaluator's decision.
type ApprovalResult struct {
	PONumber       string `json:"poNumber"`
	IsApproved     bool   `json:"isApproved"`
	ApprovalReason string `json:"approvalReason"`

	// FailedRules lists every failing rule in precedence order.
	FailedRules []Rule `json:"failedRules,omitempty"`
}

// Evaluate applies the approval rules to in. All rules are checked; the
// reason names the first failure in the order supplier name, grand total,
// buyer department. Evaluate has no side effects and never fails.
func Evaluate(in ApprovalInput, cfg RuleConfig) ApprovalResult {
	result := ApprovalResult{PONumber: in.PONumber}

	var reasons []string
	if strings.TrimSpace(in.SupplierName) == "" {
		result.FailedRules = append(result.FailedRules, RuleSupplierName)
		reasons = append(reasons, "Supplier Name must not be empty.")
	}

	total := in.GrandTotal
	if total.GreaterThanOrEqual(cfg.MaxGrandTotal) {
		result.FailedRules = append(result.FailedRules, RuleGrandTotal)
		reasons = append(reasons, fmt.Sprintf(
			"Grand Total $%s must be less than $%s.",
			displayAmount(total), displayAmount(cfg.MaxGrandTotal)))
	}

	if !cfg.departmentAllowed(in.BuyerDepartment) {
		result.FailedRules = append(result.FailedRules, RuleDepartment)
		dept := in.BuyerDepartment
		if dept == "" {
			dept = "(none)"
		}
		reasons = append(reasons, fmt.Sprintf(
			"Buyer Department %q must be one of: %s.",
			dept, quoteList(cfg.AllowedDepartments)))
	}

	if len(reasons) > 0 {
		result.ApprovalReason = reasons[0]
		return result
	}

	result.IsApproved = true
	result.ApprovalReason = fmt.Sprintf(
		"Approved: supplier %q, grand total $%s is below $%s, department %q is allowed.",
		in.SupplierName, displayAmount(total),
		displayAmount(cfg.MaxGrandTotal), in.BuyerDepartment)
	return result
}

// EvaluateOrder evaluates po and records the decision on it.
func EvaluateOrder(po *PurchaseOrder, cfg RuleConfig) (ApprovalResult, error) {
	result := Evaluate(po.ApprovalInput(), cfg)
	if err := po.ApplyApproval(result); err != nil {
		return result, err
	}
	return result, nil
}

// Failed reports whether rule is among the failed rules.
func (r ApprovalResult) Failed(rule Rule) bool {
	for _, f := range r.FailedRules {
		if f == rule {
			return true
		}
	}
	return false
}

func quoteList(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		quoted = append(quoted, fmt.Sprintf("%q", v))
	}
	return strings.Join(quoted, ", ")
}

// displayAmount formats d with at least two places and never rounds, so a
// reason never shows a total equal to the limit it was compared against.
func displayAmount(d decimal.Decimal) string {
	if d.Exponent() >= -moneyPlaces {
		return d.StringFixed(moneyPlaces)
	}
	return d.String()
}
