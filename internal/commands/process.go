package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dvloznov/po-agents/internal/agents"
	"github.com/dvloznov/po-agents/internal/app"
	"github.com/dvloznov/po-agents/internal/intake"
	"github.com/dvloznov/po-agents/internal/pipeline"
	"github.com/dvloznov/po-agents/internal/storage"
)

var processCmd = &cobra.Command{
	Use:   "process <source>",
	Short: "Extract, audit and evaluate one order document",
	Long: `Process runs the full pipeline in-process: load the document from a local
path or gs:// URI, extract the summary with the vision model, audit it,
evaluate the approval rules and record the decision when GCP_PROJECT is set.

Examples:
  po process scans/po-1042.png --profile departmental
  po process gs://orders/po-1042.png --json`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

var (
	sendIntakeURL     string
	sendProcessingURL string
)

var sendCmd = &cobra.Command{
	Use:   "send <image>",
	Short: "Run a document through the intake and processing agents",
	Long: `Send uploads the image to the intake agent, forwards the extracted
summary to the processing agent and prints both results.

Examples:
  po send scans/po.png
  po send scans/po.png --intake-url http://intake:5000 --processing-url http://processing:5207`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendIntakeURL, "intake-url", "", "Intake agent base URL (default INTAKE_AGENT_URL)")
	sendCmd.Flags().StringVar(&sendProcessingURL, "processing-url", "", "Processing agent base URL (default PROCESSING_AGENT_URL)")
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(sendCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	source := args[0]

	rules, err := loadRules()
	if err != nil {
		return err
	}
	if err := cfg.Model.Validate(); err != nil {
		return err
	}

	var fetcher storage.Fetcher
	if storage.IsGCSURI(source) {
		gcs, err := storage.NewGCSService(ctx)
		if err != nil {
			return err
		}
		defer gcs.Close()
		fetcher = gcs
	}

	extractor, err := intake.NewGeminiExtractor(ctx, cfg.Model, log)
	if err != nil {
		return err
	}

	env := &app.Env{Config: cfg, Log: log}
	ledger, err := env.Ledger(ctx)
	if err != nil {
		return err
	}
	if ledger != nil {
		defer ledger.Close()
	}

	report, err := pipeline.ProcessOrder(ctx, pipeline.Deps{
		Loader:    storage.NewLoader(fetcher),
		Extractor: extractor,
		Rules:     rules,
		Recorder:  app.Recorder(ledger),
		Log:       log,
	}, source)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), report)
	}
	printReport(cmd.OutOrStdout(), report)
	return nil
}

func runSend(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	doc := intake.NewDocument(filepath.Base(args[0]), "", data)

	chain := &agents.Chain{
		IntakeURL:     firstNonEmpty(sendIntakeURL, cfg.IntakeURL),
		ProcessingURL: firstNonEmpty(sendProcessingURL, cfg.ProcessingURL),
		Log:           log,
	}
	result, err := chain.Run(cmd.Context(), doc)
	if err != nil {
		return fmt.Errorf("agent chain failed: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), result)
	}
	printSummary(cmd.OutOrStdout(), result.Summary)
	fmt.Fprintln(cmd.OutOrStdout())
	printApproval(cmd.OutOrStdout(), result.Approval)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
