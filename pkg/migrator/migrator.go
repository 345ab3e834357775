// Package migrator applies a service's embedded goose migrations.
package migrator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"github.com/ghuser/mealplanner/pkg/logger"
)

// Migrator runs the SQL migrations found at the root of an fs.FS.
type Migrator struct {
	provider *goose.Provider
	log      logger.Logger
}

// New prepares migrations from files against db. Files whose names do not
// start with a version number are ignored.
func New(db *sql.DB, files fs.FS, log logger.Logger) (*Migrator, error) {
	p, err := goose.NewProvider(goose.DialectPostgres, db, files)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return &Migrator{provider: p, log: log}, nil
}

// Up applies every pending migration.
func (m *Migrator) Up(ctx context.Context) error {
	results, err := m.provider.Up(ctx)
	m.logResults(ctx, results)
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	if len(results) == 0 {
		m.log.InfoContext(ctx, "schema up to date")
	}
	return nil
}

// Down rolls back the most recent migration.
func (m *Migrator) Down(ctx context.Context) error {
	res, err := m.provider.Down(ctx)
	if errors.Is(err, goose.ErrNoNextVersion) {
		m.log.InfoContext(ctx, "nothing to roll back")
		return nil
	}
	if res != nil {
		m.logResults(ctx, []*goose.MigrationResult{res})
	}
	if err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// Version returns the highest applied migration version.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	v, err := m.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("migration version: %w", err)
	}
	return v, nil
}

// Status logs each known migration and whether it has been applied.
func (m *Migrator) Status(ctx context.Context) error {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return fmt.Errorf("migration status: %w", err)
	}
	for _, s := range statuses {
		m.log.InfoContext(ctx, "migration",
			"version", s.Source.Version,
			"file", s.Source.Path,
			"state", string(s.State),
		)
	}
	return nil
}

func (m *Migrator) logResults(ctx context.Context, results []*goose.MigrationResult) {
	for _, r := range results {
		if r.Error != nil {
			m.log.ErrorContext(ctx, "migration failed",
				"version", r.Source.Version, "direction", r.Direction, "error", r.Error)
			continue
		}
		m.log.InfoContext(ctx, "migration applied",
			"version", r.Source.Version,
			"direction", r.Direction,
			"duration_ms", r.Duration.Milliseconds(),
		)
	}
}
