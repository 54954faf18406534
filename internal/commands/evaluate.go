package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dvloznov/po-agents/internal/app"
	"github.com/dvloznov/po-agents/internal/pipeline"
	"github.com/dvloznov/po-agents/internal/purchaseorder"
)

var evaluateRecord bool

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <file>",
	Short: "Evaluate a purchase order against the approval rules",
	Long: `Evaluate reads a summary or full purchase order JSON document ("-" for
stdin) and prints the approval decision. With --record the decision is
appended to the BigQuery ledger.

Examples:
  po evaluate summary.json --profile corporate
  cat order.json | po evaluate - --rules-file rules.yaml --json`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

var auditCmd = &cobra.Command{
	Use:   "audit <file>",
	Short: "Run the advisory checks on a purchase order",
	Long: `Audit checks the PO number format, tax, supplier and grand total of a
summary or order JSON document. Findings never change the approval decision.

Examples:
  po audit summary.json
  po audit order.json --json`,
	Args: cobra.ExactArgs(1),
	RunE: runAudit,
}

func init() {
	evaluateCmd.Flags().BoolVar(&evaluateRecord, "record", false, "Record the decision in the BigQuery ledger")
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(auditCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	summary, err := readSummaryFile(cmd, args[0])
	if err != nil {
		return err
	}

	rules, err := loadRules()
	if err != nil {
		return err
	}

	deps := pipeline.Deps{Rules: rules, Log: log}
	if evaluateRecord {
		env := &app.Env{Config: cfg, Log: log}
		ledger, err := env.Ledger(cmd.Context())
		if err != nil {
			return err
		}
		if ledger == nil {
			return fmt.Errorf("--record needs a ledger: set GCP_PROJECT")
		}
		defer ledger.Close()
		deps.Recorder = ledger
	}

	report, err := pipeline.EvaluateSummary(cmd.Context(), deps, "cli:"+args[0], summary)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), report.Approval)
	}
	printApproval(cmd.OutOrStdout(), report.Approval)
	if report.DecisionID != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Decision ID: %s\n", report.DecisionID)
	}
	return nil
}

func runAudit(cmd *cobra.Command, args []string) error {
	summary, err := readSummaryFile(cmd, args[0])
	if err != nil {
		return err
	}

	opts := purchaseorder.DefaultAuditOptions()
	if rulesFile != "" || rulesProfile != "" || cfg.RulesFile != "" || cfg.RulesProfile != "" {
		rules, err := loadRules()
		if err != nil {
			return err
		}
		opts = rules.Audit
	}

	findings := purchaseorder.Audit(summary, opts)
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), findings)
	}
	printFindings(cmd.OutOrStdout(), findings)
	if purchaseorder.HasProblems(findings) {
		fmt.Fprintln(cmd.OutOrStdout(), "Some checks need attention.")
	}
	return nil
}

func readSummaryFile(cmd *cobra.Command, path string) (purchaseorder.Summary, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return purchaseorder.Summary{}, err
	}
	summary, err := purchaseorder.DecodeInput(data)
	if err != nil {
		return purchaseorder.Summary{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return summary, nil
}
