// Package commands implements the po CLI using Cobra.
package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dvloznov/po-agents/internal/config"
	"github.com/dvloznov/po-agents/internal/logger"
)

// Global flags
var (
	verbose      bool
	jsonOutput   bool
	rulesProfile string
	rulesFile    string
)

// Loaded by the root command before any subcommand runs.
var (
	cfg config.Config
	log zerolog.Logger
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "po",
	Short: "Purchase order intake and approval",
	Long: `po extracts purchase orders from images, checks them and decides approval.

Commands:
  process      Extract, audit and evaluate one order document
  evaluate     Evaluate a summary or order JSON file against the approval rules
  audit        Run the advisory checks on a summary JSON file
  send         Run a document through the intake and processing agents
  upload       Upload an order document to the configured GCS bucket
  migrate      Create or upgrade the BigQuery decision ledger

Approval rules come from --rules-file, --profile, RULES_FILE or RULES_PROFILE.

Examples:
  po evaluate summary.json --profile corporate
  po process gs://orders/po-1042.png --json
  po send scans/po.png`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	rootCmd.PersistentFlags().StringVar(&rulesProfile, "profile", "", "Built-in approval rules profile ("+strings.Join(config.Profiles(), ", ")+")")
	rootCmd.PersistentFlags().StringVar(&rulesFile, "rules-file", "", "YAML approval rules file")
}

func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load()
	if err != nil {
		return err
	}
	cfg = loaded

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log = logger.NewFromConfigWithWriter(cmd.ErrOrStderr(), level, cfg.LogFormat)
	return nil
}

// loadRules resolves the rules with the command-line flags taking
// precedence over the environment.
func loadRules() (*config.Rules, error) {
	c := cfg
	switch {
	case rulesFile != "":
		c.RulesFile = rulesFile
	case rulesProfile != "":
		c.RulesFile = ""
		c.RulesProfile = rulesProfile
	}
	return c.Rules()
}

// readInput reads a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
