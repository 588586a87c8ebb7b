package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/yigit/admissions/internal/db"
)

// Files holds the schema shipped with the binary
//
//go:embed sql/*.sql
var Files embed.FS

// Embedded returns the bundled migrations rooted at their directory
func Embedded() fs.FS {
	sub, err := fs.Sub(Files, "sql")
	if err != nil {
		// the embed pattern guarantees the directory exists
		panic(err)
	}
	return sub
}

// Migrator manages database migrations
type Migrator struct {
	db     *db.PostgresDB
	logger zerolog.Logger
}

// NewMigrator creates a new migrator
func NewMigrator(database *db.PostgresDB, logger zerolog.Logger) *Migrator {
	return &Migrator{
		db:     database,
		logger: logger,
	}
}

// ensureMigrationTableExists creates the migration tracking table if it doesn't exist
func (m *Migrator) ensureMigrationTableExists(ctx context.Context) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := m.db.Pool.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create migration tracking table: %w", err)
	}
	return nil
}

// isMigrationApplied checks if a specific migration has already been applied
func isMigrationApplied(ctx context.Context, q db.Querier, version string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1);`
	if err := q.QueryRow(ctx, query, version).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}
	return exists, nil
}

// Version extracts the version prefix of a migration file name ("001_init.sql" => "001")
func Version(filename string) string {
	return strings.Split(path.Base(filename), "_")[0]
}

// Pending returns the sorted .sql file names found in fsys
func Pending(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	var sqlFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			sqlFiles = append(sqlFiles, entry.Name())
		}
	}
	sort.Strings(sqlFiles)
	return sqlFiles, nil
}

// applyFile executes one migration file and records it in the same transaction
func (m *Migrator) applyFile(ctx context.Context, fsys fs.FS, filename string) (bool, error) {
	version := Version(filename)
	content, err := fs.ReadFile(fsys, filename)
	if err != nil {
		return false, fmt.Errorf("failed to read migration file: %w", err)
	}

	applied := false
	err = m.db.WithTransaction(ctx, func(ctx context.Context, tx db.Querier) error {
		done, err := isMigrationApplied(ctx, tx, version)
		if err != nil || done {
			return err
		}

		if _, err := tx.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("error occurred during SQL migration %s: %w", filename, err)
		}

		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, applied_at) VALUES ($1, $2)`,
			version, time.Now().UTC()); err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
		applied = true
		return nil
	})
	return applied, err
}

// Migrate applies every migration in fsys that has not been recorded yet, in name order
func (m *Migrator) Migrate(ctx context.Context, fsys fs.FS) (int, error) {
	if err := m.ensureMigrationTableExists(ctx); err != nil {
		return 0, err
	}

	files, err := Pending(fsys)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, file := range files {
		applied, err := m.applyFile(ctx, fsys, file)
		if err != nil {
			return count, err
		}
		if !applied {
			m.logger.Debug().Str("migration", file).Msg("Migration already applied, skipping")
			continue
		}
		count++
		m.logger.Info().Str("migration", file).Msg("Migration applied")
	}

	return count, nil
}
