package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/dvloznov/po-agents/internal/purchaseorder"
)

// Named rule profiles.
const (
	ProfileDepartmental = "departmental"
	ProfileCorporate    = "corporate"
)

// ErrNoRules is returned when neither a rules file nor a profile is set.
var ErrNoRules = errors.New("no approval rules configured")

// ErrUnknownProfile is returned for a profile name that is not built in.
var ErrUnknownProfile = errors.New("unknown rules profile")

// Rules bundles the approval thresholds with the audit reference data.
type Rules struct {
	Name     string
	Approval purchaseorder.RuleConfig
	Audit    purchaseorder.AuditOptions
}

var profiles = map[string]purchaseorder.RuleConfig{
	ProfileDepartmental: {
		MaxGrandTotal:      decimal.NewFromInt(1000),
		AllowedDepartments: []string{"Travel", "Marketing", "IT", "HR"},
	},
	ProfileCorporate: {
		MaxGrandTotal:      decimal.NewFromInt(10000),
		AllowedDepartments: []string{"Sales", "Marketing", "Engineering", "HR"},
	},
}

// Profiles returns the built-in profile names in sorted order.
func Profiles() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Profile returns a built-in profile with the default audit options.
func Profile(name string) (*Rules, error) {
	base, ok := profiles[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %s)", ErrUnknownProfile, name, strings.Join(Profiles(), ", "))
	}
	base.AllowedDepartments = append([]string(nil), base.AllowedDepartments...)
	return &Rules{
		Name:     strings.ToLower(strings.TrimSpace(name)),
		Approval: base,
		Audit:    purchaseorder.DefaultAuditOptions(),
	}, nil
}

// amount decodes a YAML scalar into a decimal without going through float64.
type amount struct {
	decimal.Decimal
}

func (a *amount) UnmarshalYAML(n *yaml.Node) error {
	d, err := decimal.NewFromString(strings.TrimSpace(n.Value))
	if err != nil {
		return fmt.Errorf("line %d: invalid amount %q: %w", n.Line, n.Value, err)
	}
	a.Decimal = d
	return nil
}

// rulesFile is the YAML layout:
//
//	profile: departmental
//	max_grand_total: 2500
//	allowed_departments: [IT, HR]
//	department_match: fold
//	approved_suppliers: ["Swag Depot"]
//	tax_rates: {HR: 0.065}
//	default_tax_rate: 0.07
//
// Every key is optional; set keys override the base profile.
type rulesFile struct {
	Profile            string            `yaml:"profile"`
	MaxGrandTotal      *amount           `yaml:"max_grand_total"`
	AllowedDepartments []string          `yaml:"allowed_departments"`
	DepartmentMatch    string            `yaml:"department_match"`
	ApprovedSuppliers  []string          `yaml:"approved_suppliers"`
	TaxRates           map[string]amount `yaml:"tax_rates"`
	DefaultTaxRate     *amount           `yaml:"default_tax_rate"`
}

// ParseRules decodes a rules document. An empty profile key means the
// document must define the approval thresholds itself.
func ParseRules(data []byte) (*Rules, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("ParseRules: decode yaml: %w", err)
	}

	rules := &Rules{Name: "custom", Audit: purchaseorder.DefaultAuditOptions()}
	if f.Profile != "" {
		base, err := Profile(f.Profile)
		if err != nil {
			return nil, fmt.Errorf("ParseRules: %w", err)
		}
		rules = base
	}

	if f.MaxGrandTotal != nil {
		rules.Approval.MaxGrandTotal = f.MaxGrandTotal.Decimal
	}
	if f.AllowedDepartments != nil {
		rules.Approval.AllowedDepartments = f.AllowedDepartments
	}
	if f.DepartmentMatch != "" {
		rules.Approval.DepartmentMatch = purchaseorder.MatchMode(f.DepartmentMatch)
	}
	if f.ApprovedSuppliers != nil {
		rules.Audit.Suppliers = purchaseorder.NewSupplierDirectory(f.ApprovedSuppliers...)
	}
	if f.TaxRates != nil {
		byDept := make(map[string]decimal.Decimal, len(f.TaxRates))
		for dept, r := range f.TaxRates {
			byDept[strings.ToUpper(strings.TrimSpace(dept))] = r.Decimal
		}
		rules.Audit.TaxRates.ByDepartment = byDept
	}
	if f.DefaultTaxRate != nil {
		rules.Audit.TaxRates.Default = f.DefaultTaxRate.Decimal
	}

	if err := rules.Approval.Validate(); err != nil {
		return nil, fmt.Errorf("ParseRules: %w", err)
	}
	return rules, nil
}

// LoadRulesFile reads and parses a rules file.
func LoadRulesFile(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadRulesFile: read %s: %w", path, err)
	}
	rules, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("LoadRulesFile: %s: %w", path, err)
	}
	return rules, nil
}

// Rules resolves the approval rules: the rules file when set, otherwise the
// named profile. There is no implicit default.
func (c Config) Rules() (*Rules, error) {
	switch {
	case c.RulesFile != "":
		return LoadRulesFile(c.RulesFile)
	case c.RulesProfile != "":
		return Profile(c.RulesProfile)
	default:
		return nil, fmt.Errorf("%w: set %s or %s (profiles: %s)",
			ErrNoRules, EnvRulesFile, EnvRulesProfile, strings.Join(Profiles(), ", "))
	}
}
