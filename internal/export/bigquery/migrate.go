package bigquery

import (
	"context"
	"crypto/sha256"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

// Migrations holds the schema of the export dataset.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// migrationPattern matches migration files: 0001_name.sql
var migrationPattern = regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)

// Migration represents a single migration file.
type Migration struct {
	Version  int
	Name     string
	Filename string
	SQL      string
	Checksum string
}

// AppliedMigration represents a migration that has already been applied.
type AppliedMigration struct {
	Version   int
	Name      string
	AppliedAt time.Time
	Checksum  string
	AppliedBy string
}

// Placeholders are substituted into migration SQL.
type Placeholders struct {
	ProjectID string
	DatasetID string
	TableID   string
}

func (p Placeholders) apply(sql string) string {
	return strings.NewReplacer(
		"{{PROJECT_ID}}", p.ProjectID,
		"{{DATASET_ID}}", p.DatasetID,
		"{{TABLE_ID}}", p.TableID,
	).Replace(sql)
}

// ParseMigrationName splits a file name into version and name. ok is false
// for names that do not follow 0001_name.sql.
func ParseMigrationName(filename string) (version int, name string, ok bool) {
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

// ReadMigrations reads the migrations in dir of fsys, sorted by version.
// The checksum covers the file before placeholders are substituted, so the
// same migration applied to another dataset has the same checksum.
func ReadMigrations(fsys fs.FS, dir string, p Placeholders, log zerolog.Logger) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("ReadMigrations: reading %s: %w", dir, err)
	}

	seen := make(map[int]string)
	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		version, name, ok := ParseMigrationName(entry.Name())
		if !ok {
			log.Warn().Str("file", entry.Name()).Msg("Skipping file with invalid migration name")
			continue
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("ReadMigrations: version %04d used by %s and %s", version, prev, entry.Name())
		}
		seen[version] = entry.Name()

		content, err := fs.ReadFile(fsys, dir+"/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("ReadMigrations: reading %s: %w", entry.Name(), err)
		}

		migrations = append(migrations, Migration{
			Version:  version,
			Name:     name,
			Filename: entry.Name(),
			SQL:      p.apply(string(content)),
			Checksum: fmt.Sprintf("%x", sha256.Sum256(content)),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// Pending returns the migrations not yet applied. A migration whose file
// changed after it was applied is an error.
func Pending(all []Migration, applied []AppliedMigration) ([]Migration, error) {
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
			return nil, fmt.Errorf("Pending: %s changed after it was applied", m.Filename)
		}
	}
	return pending, nil
}

// Migrator applies migrations to one dataset and records them in a
// schema_migrations table next to the data.
type Migrator struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	appliedBy string
	log       zerolog.Logger
}

// NewMigrator creates a Migrator. Close releases the client.
func NewMigrator(ctx context.Context, projectID, datasetID, appliedBy string, log zerolog.Logger) (*Migrator, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewMigrator: creating client: %w", err)
	}
	return &Migrator{client: client, projectID: projectID, datasetID: datasetID, appliedBy: appliedBy, log: log}, nil
}

// Close closes the BigQuery client connection.
func (m *Migrator) Close() error {
	return m.client.Close()
}

// Run applies every pending migration in order and returns how many ran.
func (m *Migrator) Run(ctx context.Context, migrations []Migration) (int, error) {
	if err := m.ensureSchemaMigrationsTable(ctx); err != nil {
		return 0, fmt.Errorf("Run: %w", err)
	}

	applied, err := m.appliedMigrations(ctx)
	if err != nil {
		return 0, fmt.Errorf("Run: %w", err)
	}
	pending, err := Pending(migrations, applied)
	if err != nil {
		return 0, fmt.Errorf("Run: %w", err)
	}

	for i, mig := range pending {
		log := m.log.With().Int("version", mig.Version).Str("name", mig.Name).Logger()
		log.Info().Msg("Applying migration")

		if err := m.exec(ctx, mig.SQL, nil); err != nil {
			return i, fmt.Errorf("Run: %s: %w", mig.Filename, err)
		}
		if err := m.record(ctx, mig); err != nil {
			return i, fmt.Errorf("Run: record %s: %w", mig.Filename, err)
		}
		log.Info().Msg("Migration applied")
	}
	return len(pending), nil
}

func (m *Migrator) migrationsTable() string {
	return fmt.Sprintf("`%s.%s.schema_migrations`", m.projectID, m.datasetID)
}

func (m *Migrator) ensureSchemaMigrationsTable(ctx context.Context) error {
	sql := `
		CREATE TABLE IF NOT EXISTS ` + m.migrationsTable() + ` (
			version       INT64 NOT NULL,
			name          STRING NOT NULL,
			applied_at    TIMESTAMP NOT NULL,
			checksum      STRING,
			applied_by    STRING
		)`
	if err := m.exec(ctx, sql, nil); err != nil {
		return fmt.Errorf("ensureSchemaMigrationsTable: %w", err)
	}
	return nil
}

func (m *Migrator) appliedMigrations(ctx context.Context) ([]AppliedMigration, error) {
	q := m.client.Query(`
		SELECT version, name, applied_at, checksum, applied_by
		FROM ` + m.migrationsTable() + `
		ORDER BY version ASC`)

	it, err := q.Read(ctx)
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return []AppliedMigration{}, nil
		}
		return nil, fmt.Errorf("appliedMigrations: query read: %w", err)
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
			return nil, fmt.Errorf("appliedMigrations: iter next: %w", err)
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

func (m *Migrator) record(ctx context.Context, mig Migration) error {
	sql := `
		INSERT INTO ` + m.migrationsTable() + `
		(version, name, applied_at, checksum, applied_by)
		VALUES (@version, @name, CURRENT_TIMESTAMP(), @checksum, @applied_by)`
	return m.exec(ctx, sql, []bigquery.QueryParameter{
		{Name: "version", Value: mig.Version},
		{Name: "name", Value: mig.Name},
		{Name: "checksum", Value: mig.Checksum},
		{Name: "applied_by", Value: m.appliedBy},
	})
}

// exec runs one statement and waits for it to finish.
func (m *Migrator) exec(ctx context.Context, sql string, params []bigquery.QueryParameter) error {
	q := m.client.Query(sql)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}
