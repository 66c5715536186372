package migrations

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	dataflow "github.com/goliatone/go-dataflow"
	_ "github.com/mattn/go-sqlite3"
)

func TestSets_ResolvesEmbeddedDialects(t *testing.T) {
	sets, err := Sets()
	if err != nil {
		t.Fatalf("sets: %v", err)
	}
	if len(sets) != 2 {
		t.Fatalf("expected 2 migration sets, got %d", len(sets))
	}
	for _, set := range sets {
		if len(set.Up) != 1 || set.Up[0] != "00001_dataflow_transfers.up.sql" {
			t.Fatalf("unexpected %s up migrations %v", set.Dialect, set.Up)
		}
	}
	if sets[0].Dialect != DialectPostgres || sets[1].Dialect != DialectSQLite {
		t.Fatalf("expected postgres then sqlite, got %s, %s", sets[0].Dialect, sets[1].Dialect)
	}
	if sets[1].Path != "data/sql/migrations/sqlite" {
		t.Fatalf("unexpected sqlite path %q", sets[1].Path)
	}
}

func TestRegister_DefaultsToEveryDialect(t *testing.T) {
	var calls []string
	reg, err := Register(context.Background(), func(_ context.Context, dialect string, label string, _ fs.FS) error {
		calls = append(calls, dialect+"/"+label)
		return nil
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if strings.Join(calls, ",") != "postgres/go-dataflow,sqlite/go-dataflow" {
		t.Fatalf("unexpected registration calls %v", calls)
	}
	if len(reg.Sets) != 2 {
		t.Fatalf("expected resolved sets on registration")
	}
}

func TestRegisterForDriver_SelectsMatchingDialect(t *testing.T) {
	var calls []string
	_, err := RegisterForDriver(context.Background(), "sqlite3", func(_ context.Context, dialect string, _ string, _ fs.FS) error {
		calls = append(calls, dialect)
		return nil
	}, WithSourceLabel("host-app"))
	if err != nil {
		t.Fatalf("register for driver: %v", err)
	}
	if len(calls) != 1 || calls[0] != DialectSQLite {
		t.Fatalf("expected sqlite registration only, got %v", calls)
	}

	if _, err := RegisterForDriver(context.Background(), "mysql", func(context.Context, string, string, fs.FS) error {
		return nil
	}); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}

func TestRegister_ReportsMissingDialectAndRegisterErrors(t *testing.T) {
	noop := func(context.Context, string, string, fs.FS) error { return nil }
	if _, err := Register(context.Background(), noop, WithDialects("oracle")); err == nil {
		t.Fatalf("expected error for dialect without migrations")
	}
	_, err := Register(context.Background(), func(context.Context, string, string, fs.FS) error {
		return errors.New("runner closed")
	})
	if err == nil || !strings.Contains(err.Error(), "runner closed") {
		t.Fatalf("expected wrapped register error, got %v", err)
	}
}

func TestDialectForDriver(t *testing.T) {
	for driver, want := range map[string]string{"postgres": DialectPostgres, "pgx": DialectPostgres, "sqlite3": DialectSQLite} {
		got, err := DialectForDriver(driver)
		if err != nil || got != want {
			t.Fatalf("driver %q: expected %q, got %q (%v)", driver, want, got, err)
		}
	}
}

func TestRegister_RequiresRegisterFunc(t *testing.T) {
	if _, err := Register(context.Background(), nil); err == nil {
		t.Fatalf("expected missing register function error")
	}
}

func TestTransferMigrationPair_ExistsForBothDialects(t *testing.T) {
	root := dataflow.GetMigrationsFS()
	paths := []string{
		"data/sql/migrations/00001_dataflow_transfers.up.sql",
		"data/sql/migrations/00001_dataflow_transfers.down.sql",
		"data/sql/migrations/sqlite/00001_dataflow_transfers.up.sql",
		"data/sql/migrations/sqlite/00001_dataflow_transfers.down.sql",
	}
	for _, migrationPath := range paths {
		content, err := fs.ReadFile(root, migrationPath)
		if err != nil {
			t.Fatalf("read migration %s: %v", migrationPath, err)
		}
		if strings.TrimSpace(string(content)) == "" {
			t.Fatalf("expected migration %s to have SQL content", migrationPath)
		}
	}
}

func TestSQLiteTransferMigration_ApplyAndRollback(t *testing.T) {
	db, err := sql.Open("sqlite3", "file:migrations-dataflow-transfers?mode=memory&cache=shared&_foreign_keys=on")
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	defer func() { _ = db.Close() }()

	sqliteMigrations, err := fs.Sub(dataflow.GetMigrationsFS(), "data/sql/migrations/sqlite")
	if err != nil {
		t.Fatalf("resolve sqlite migrations: %v", err)
	}
	if err := execSQLMigration(context.Background(), db, sqliteMigrations, "00001_dataflow_transfers.up.sql"); err != nil {
		t.Fatalf("apply transfer migration up: %v", err)
	}

	insertStatement := `INSERT INTO dataflow_transfers (id, transfer_id, state) VALUES (?, ?, ?)`
	if _, err := db.ExecContext(context.Background(), insertStatement, "row-1", "req-1", 100); err != nil {
		t.Fatalf("insert transfer row: %v", err)
	}
	if _, err := db.ExecContext(context.Background(), insertStatement, "row-2", "req-1", 0); err == nil {
		t.Fatalf("expected unique transfer_id violation")
	}
	if _, err := db.ExecContext(context.Background(), insertStatement, "row-3", "req-3", 999); err == nil {
		t.Fatalf("expected unknown state code to be rejected")
	}

	var state int
	if err := db.QueryRowContext(context.Background(), `SELECT state FROM dataflow_transfers WHERE transfer_id = ?`, "req-1").Scan(&state); err != nil {
		t.Fatalf("select state: %v", err)
	}
	if state != 100 {
		t.Fatalf("expected stored state code 100, got %d", state)
	}

	if err := execSQLMigration(context.Background(), db, sqliteMigrations, "00001_dataflow_transfers.down.sql"); err != nil {
		t.Fatalf("apply transfer migration down: %v", err)
	}
	if _, err := db.ExecContext(context.Background(), insertStatement, "row-4", "req-4", 0); err == nil {
		t.Fatalf("expected insert to fail after table drop")
	}
}

func execSQLMigration(ctx context.Context, db *sql.DB, fsys fs.FS, filename string) error {
	content, err := fs.ReadFile(fsys, filepath.Clean(filename))
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, string(content))
	return err
}
