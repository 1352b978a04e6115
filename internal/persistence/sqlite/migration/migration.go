// Package migration applies the embedded schema migrations for the desk
// booking database. Migrations are ordered, run once each inside their own
// transaction, and recorded in a schema_migrations version table.
package migration

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Migration is a single versioned schema change.
type Migration struct {
	Version     string
	Description string
	SQL         string
}

// Manager runs pending migrations against a database handle.
type Manager struct {
	db         *sql.DB
	migrations []Migration
	logger     *slog.Logger
}

// NewManager builds a manager over the embedded migration set.
func NewManager(db *sql.DB, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{db: db, migrations: Migrations(), logger: logger}
}

// Run applies every pending migration in version order. Already applied
// versions are skipped; a failing migration aborts the run without recording
// its version.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.initVersionTable(ctx); err != nil {
		return fmt.Errorf("failed to initialize version table: %w", err)
	}

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return fmt.Errorf("failed to read applied versions: %w", err)
	}

	for _, mig := range m.migrations {
		if _, ok := applied[mig.Version]; ok {
			continue
		}

		start := time.Now()
		if err := m.apply(ctx, mig); err != nil {
			return fmt.Errorf("migration %s (%s) failed: %w", mig.Version, mig.Description, err)
		}
		m.logger.InfoContext(ctx, "migration applied",
			"version", mig.Version,
			"description", mig.Description,
			"duration", time.Since(start),
		)
	}

	return nil
}

// AppliedVersions lists the recorded migration versions in apply order.
func (m *Manager) AppliedVersions(ctx context.Context) ([]string, error) {
	if err := m.initVersionTable(ctx); err != nil {
		return nil, err
	}

	rows, err := m.db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		versions = append(versions, version)
	}
	return versions, rows.Err()
}

func (m *Manager) initVersionTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TEXT NOT NULL
		)
	`)
	return err
}

func (m *Manager) appliedVersions(ctx context.Context) (map[string]struct{}, error) {
	versions, err := m.AppliedVersions(ctx)
	if err != nil {
		return nil, err
	}
	applied := make(map[string]struct{}, len(versions))
	for _, version := range versions {
		applied[version] = struct{}{}
	}
	return applied, nil
}

func (m *Manager) apply(ctx context.Context, mig Migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(mig.SQL); err != nil {
		_ = tx.Rollback()
		return err
	}

	appliedAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(
		"INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
		mig.Version, mig.Description, appliedAt,
	); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}
