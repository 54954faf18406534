package bigquery

import (
	"context"
	"crypto/sha256"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/po-agents/internal/logger"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const migrationsTable = "schema_migrations"

var migrationPattern = regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)

// ErrChecksumMismatch means an applied migration file was edited afterwards.
var ErrChecksumMismatch = errors.New("migration checksum mismatch")

// Migration is one versioned SQL file for the ledger dataset.
type Migration struct {
	Version  int
	Name     string
	Filename string
	SQL      string
	// Checksum covers the file before placeholder substitution, so the same
	// file applied to another project keeps its checksum.
	Checksum string
}

// AppliedMigration is a row of the schema_migrations table.
type AppliedMigration struct {
	Version   int
	Name      string
	AppliedAt time.Time
	Checksum  string
	AppliedBy string
}

// ParseMigrationFilename splits "0001_name.sql" into its version and name.
func ParseMigrationFilename(filename string) (int, string, bool) {
	m := migrationPattern.FindStringSubmatch(filename)
	if m == nil {
		return 0, "", false
	}
	version, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", false
	}
	return version, m[2], true
}

// LoadMigrations reads the migration files at the root of fsys, substitutes
// {{PROJECT_ID}} and {{DATASET_ID}} and sorts them by version. Files that do
// not match the naming pattern are skipped.
func LoadMigrations(fsys fs.FS, t Table) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("LoadMigrations: reading directory: %w", err)
	}

	seen := make(map[int]string)
	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version, name, ok := ParseMigrationFilename(entry.Name())
		if !ok {
			continue
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("LoadMigrations: version %04d used by %s and %s", version, prev, entry.Name())
		}
		seen[version] = entry.Name()

		content, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("LoadMigrations: reading %s: %w", entry.Name(), err)
		}

		sql := strings.ReplaceAll(string(content), "{{PROJECT_ID}}", t.ProjectID)
		sql = strings.ReplaceAll(sql, "{{DATASET_ID}}", t.DatasetID)

		migrations = append(migrations, Migration{
			Version:  version,
			Name:     name,
			Filename: entry.Name(),
			SQL:      sql,
			Checksum: fmt.Sprintf("%x", sha256.Sum256(content)),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// LedgerMigrations returns the migrations shipped with the binary.
func LedgerMigrations(t Table) ([]Migration, error) {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("LedgerMigrations: %w", err)
	}
	return LoadMigrations(sub, t)
}

// PendingMigrations returns the migrations not yet applied. An applied
// migration whose file checksum changed is an error.
func PendingMigrations(all []Migration, applied []AppliedMigration) ([]Migration, error) {
	done := make(map[int]AppliedMigration, len(applied))
	for _, am := range applied {
		done[am.Version] = am
	}

	var pending []Migration
	for _, m := range all {
		am, ok := done[m.Version]
		if !ok {
			pending = append(pending, m)
			continue
		}
		if am.Checksum != "" && am.Checksum != m.Checksum {
			return nil, fmt.Errorf("PendingMigrations: %s: %w", m.Filename, ErrChecksumMismatch)
		}
	}
	return pending, nil
}

func (t Table) migrationsRef() string {
	return fmt.Sprintf("`%s.%s.%s`", t.ProjectID, t.DatasetID, migrationsTable)
}

func ensureMigrationsTableWithClient(ctx context.Context, client *bigquery.Client, t Table) error {
	ds := client.Dataset(t.DatasetID)
	if _, err := ds.Metadata(ctx); err != nil {
		if err := ds.Create(ctx, &bigquery.DatasetMetadata{}); err != nil {
			return fmt.Errorf("ensureMigrationsTable: creating dataset %s: %w", t.DatasetID, err)
		}
	}
	ddl := `
		CREATE TABLE IF NOT EXISTS ` + t.migrationsRef() + ` (
			version INT64 NOT NULL,
			name STRING NOT NULL,
			applied_at TIMESTAMP NOT NULL,
			checksum STRING,
			applied_by STRING
		)
	`
	return runDML(ctx, client, "ensureMigrationsTable", ddl, nil)
}

// AppliedMigrationsWithClient lists the rows of schema_migrations by version.
func AppliedMigrationsWithClient(ctx context.Context, client *bigquery.Client, t Table) ([]AppliedMigration, error) {
	query := `
		SELECT version, name, applied_at, checksum, applied_by
		FROM ` + t.migrationsRef() + `
		ORDER BY version ASC
	`
	it, err := client.Query(query).Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("AppliedMigrationsWithClient: reading query: %w", err)
	}

	var applied []AppliedMigration
	for {
		var row struct {
			Version   int64               `bigquery:"version"`
			Name      string              `bigquery:"name"`
			AppliedAt time.Time           `bigquery:"applied_at"`
			Checksum  bigquery.NullString `bigquery:"checksum"`
			AppliedBy bigquery.NullString `bigquery:"applied_by"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("AppliedMigrationsWithClient: iterating: %w", err)
		}
		applied = append(applied, AppliedMigration{
			Version:   int(row.Version),
			Name:      row.Name,
			AppliedAt: row.AppliedAt,
			Checksum:  row.Checksum.StringVal,
			AppliedBy: row.AppliedBy.StringVal,
		})
	}
	return applied, nil
}

func recordMigrationWithClient(ctx context.Context, client *bigquery.Client, t Table, m Migration, appliedBy string) error {
	query := `
		INSERT INTO ` + t.migrationsRef() + `
		(version, name, applied_at, checksum, applied_by)
		VALUES (@version, @name, CURRENT_TIMESTAMP(), @checksum, @applied_by)
	`
	params := []bigquery.QueryParameter{
		{Name: "version", Value: m.Version},
		{Name: "name", Value: m.Name},
		{Name: "checksum", Value: m.Checksum},
		{Name: "applied_by", Value: appliedBy},
	}
	return runDML(ctx, client, "recordMigration", query, params)
}

// MigrateWithClient applies the pending migrations in version order and
// records each one. With dryRun set it only reports what would run.
func MigrateWithClient(ctx context.Context, client *bigquery.Client, t Table, migrations []Migration, appliedBy string, dryRun bool) ([]Migration, error) {
	log := logger.FromContext(ctx)

	if err := ensureMigrationsTableWithClient(ctx, client, t); err != nil {
		return nil, fmt.Errorf("MigrateWithClient: %w", err)
	}
	applied, err := AppliedMigrationsWithClient(ctx, client, t)
	if err != nil {
		return nil, fmt.Errorf("MigrateWithClient: %w", err)
	}
	pending, err := PendingMigrations(migrations, applied)
	if err != nil {
		return nil, fmt.Errorf("MigrateWithClient: %w", err)
	}

	log.Info().Int("found", len(migrations)).Int("applied", len(applied)).
		Int("pending", len(pending)).Msg("Ledger migrations")

	if dryRun {
		return pending, nil
	}
	for _, m := range pending {
		log.Info().Int("version", m.Version).Str("name", m.Name).Msg("Applying migration")
		if err := runDML(ctx, client, "MigrateWithClient: "+m.Filename, m.SQL, nil); err != nil {
			return nil, err
		}
		if err := recordMigrationWithClient(ctx, client, t, m, appliedBy); err != nil {
			return nil, fmt.Errorf("MigrateWithClient: %w", err)
		}
	}
	return pending, nil
}
