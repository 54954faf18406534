package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dvloznov/po-agents/internal/app"
	"github.com/dvloznov/po-agents/internal/intake"
	"github.com/dvloznov/po-agents/internal/logger"
	"github.com/dvloznov/po-agents/internal/storage"
)

var (
	uploadBucket  string
	uploadPrefix  string
	uploadProcess bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload an order document to GCS",
	Long: `Upload copies a local order document to the bucket (default GCS_BUCKET)
and prints its gs:// URI. With --process the uploaded document is then run
through the pipeline.

Examples:
  po upload scans/po-1042.png
  po upload scans/po-1042.png --bucket my-orders --prefix inbox --process`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

var (
	migrateAppliedBy string
	migrateDryRun    bool
)

var migrateCmd = &cobra.Command{
	Use:     "migrate",
	Aliases: []string{"init-ledger"},
	Short:   "Create or upgrade the BigQuery decision ledger",
	Long: `Migrate applies the pending ledger migrations to BIGQUERY_DATASET in
GCP_PROJECT, creating the dataset and tables on first run. Applied versions
are recorded in schema_migrations.

Examples:
  po migrate
  po migrate --dry-run`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadBucket, "bucket", "", "Destination bucket (default GCS_BUCKET)")
	uploadCmd.Flags().StringVar(&uploadPrefix, "prefix", "", "Object name prefix (default uploads/YYYY/MM/DD)")
	uploadCmd.Flags().BoolVar(&uploadProcess, "process", false, "Process the document after uploading")
	rootCmd.AddCommand(uploadCmd)
	migrateCmd.Flags().StringVar(&migrateAppliedBy, "applied-by", "po-cli", "Name recorded with each applied migration")
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "List pending migrations without applying them")
	rootCmd.AddCommand(migrateCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]

	bucket := firstNonEmpty(uploadBucket, cfg.GCSBucket)
	if bucket == "" {
		return fmt.Errorf("no bucket: pass --bucket or set GCS_BUCKET")
	}
	prefix := uploadPrefix
	if prefix == "" {
		prefix = "uploads/" + time.Now().UTC().Format("2006/01/02")
	}

	gcs, err := storage.NewGCSService(ctx)
	if err != nil {
		return err
	}
	defer gcs.Close()

	object := storage.ObjectName(prefix, filepath.Base(path))
	log.Info().Str("file", path).Str("bucket", bucket).Str("object", object).
		Str("mime_type", intake.MIMETypeFromName(path)).Msg("Uploading document")

	if err := gcs.UploadFile(ctx, bucket, object, path); err != nil {
		return err
	}

	uri := storage.URI(bucket, object)
	fmt.Fprintln(cmd.OutOrStdout(), uri)

	if uploadProcess {
		return runProcess(cmd, []string{uri})
	}
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := logger.WithContext(cmd.Context(), log)
	env := &app.Env{Config: cfg, Log: log}
	ledger, err := env.Ledger(ctx)
	if err != nil {
		return err
	}
	if ledger == nil {
		return fmt.Errorf("no ledger configured: set GCP_PROJECT")
	}
	defer ledger.Close()

	ran, err := ledger.Migrate(ctx, migrateAppliedBy, migrateDryRun)
	if err != nil {
		return err
	}

	verb := "Applied"
	if migrateDryRun {
		verb = "Pending"
	}
	out := cmd.OutOrStdout()
	for _, m := range ran {
		fmt.Fprintf(out, "%s %04d_%s\n", verb, m.Version, m.Name)
	}
	if len(ran) == 0 {
		fmt.Fprintf(out, "Ledger %s.%s is up to date.\n", cfg.GCPProject, cfg.BigQueryDataset)
	}
	return nil
}
