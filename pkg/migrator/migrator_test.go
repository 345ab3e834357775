package migrator

import (
	"context"
	"database/sql"
	"io"
	"os"
	"testing"
	"testing/fstest"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ghuser/mealplanner/pkg/logger"
)

const createTable = `-- +goose Up
CREATE TABLE migrator_probe (id int);
-- +goose Down
DROP TABLE migrator_probe;
`

// TestMigrator_UpDown runs against DATABASE_URL and leaves the schema as it found it.
func TestMigrator_UpDown(t *testing.T) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}
	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	// One connection so search_path applies to every statement goose runs.
	db.SetMaxOpenConns(1)
	ctx := context.Background()
	if _, err := db.ExecContext(ctx, `CREATE SCHEMA IF NOT EXISTS migrator_test`); err != nil {
		t.Fatalf("schema: %v", err)
	}
	if _, err := db.ExecContext(ctx, `SET search_path TO migrator_test`); err != nil {
		t.Fatalf("search_path: %v", err)
	}

	files := fstest.MapFS{
		"00001_probe.sql": {Data: []byte(createTable)},
		"README.md":       {Data: []byte("ignored")},
	}
	m, err := New(db, files, logger.NewWithWriter(io.Discard, "error"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := m.Up(ctx); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if v, err := m.Version(ctx); err != nil || v != 1 {
		t.Fatalf("Version after Up: got %d, %v", v, err)
	}
	if err := m.Up(ctx); err != nil {
		t.Fatalf("second Up should be a no-op: %v", err)
	}
	if err := m.Status(ctx); err != nil {
		t.Fatalf("Status: %v", err)
	}
	if err := m.Down(ctx); err != nil {
		t.Fatalf("Down: %v", err)
	}
	if v, err := m.Version(ctx); err != nil || v != 0 {
		t.Fatalf("Version after Down: got %d, %v", v, err)
	}
}

func TestNew_RejectsEmptyFS(t *testing.T) {
	if _, err := New(&sql.DB{}, fstest.MapFS{}, logger.NewWithWriter(io.Discard, "error")); err == nil {
		t.Fatal("expected an error when no migrations are present")
	}
}
