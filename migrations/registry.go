// Package migrations registers the transfer record schema with a migration
// runner, one filesystem per SQL dialect.
package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	dataflow "github.com/goliatone/go-dataflow"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"

	SourceLabel    = "go-dataflow"
	TransfersTable = "dataflow_transfers"

	rootPath = "data/sql/migrations"
)

// Set is the migration directory of one dialect. Up lists the *.up.sql
// files in apply order.
type Set struct {
	Dialect string
	Path    string
	FS      fs.FS
	Up      []string
}

type Registration struct {
	SourceLabel string
	Dialects    []string
	Sets        []Set
}

type RegisterFunc func(ctx context.Context, dialect string, sourceLabel string, fsys fs.FS) error

type Option func(*Registration)

func WithSourceLabel(label string) Option {
	return func(r *Registration) {
		if label = strings.TrimSpace(label); label != "" {
			r.SourceLabel = label
		}
	}
}

// WithDialects limits registration to the given dialects. Unknown names are
// kept so Register can report them.
func WithDialects(dialects ...string) Option {
	return func(r *Registration) {
		selected := normalizeDialects(dialects)
		if len(selected) > 0 {
			r.Dialects = selected
		}
	}
}

// WithSets replaces the embedded migration sets, mainly for tests and for
// hosts that ship their own copy of the schema.
func WithSets(sets ...Set) Option {
	return func(r *Registration) {
		replaced := make([]Set, 0, len(sets))
		for _, set := range sets {
			dialect := strings.ToLower(strings.TrimSpace(set.Dialect))
			if dialect == "" || set.FS == nil {
				continue
			}
			set.Dialect = dialect
			replaced = append(replaced, set)
		}
		if len(replaced) > 0 {
			r.Sets = replaced
		}
	}
}

// DialectForDriver maps a database/sql driver name to its migration dialect.
func DialectForDriver(driver string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "postgresql", "pg", "pgx":
		return DialectPostgres, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("migrations: no transfer schema for driver %q", driver)
	}
}

// Sets resolves the postgres and sqlite migration sets from source, or from
// the embedded schema when source is omitted.
func Sets(source ...fs.FS) ([]Set, error) {
	root := dataflow.GetMigrationsFS()
	if len(source) > 0 && source[0] != nil {
		root = source[0]
	}

	postgres, postgresPath, err := locateRoot(root)
	if err != nil {
		return nil, err
	}
	sqlite, err := fs.Sub(postgres, DialectSQLite)
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve sqlite directory: %w", err)
	}

	sets := []Set{
		{Dialect: DialectPostgres, Path: postgresPath, FS: postgres},
		{Dialect: DialectSQLite, Path: joinPath(postgresPath, DialectSQLite), FS: sqlite},
	}
	for i := range sets {
		up, globErr := fs.Glob(sets[i].FS, "*.up.sql")
		if globErr != nil {
			return nil, fmt.Errorf("migrations: list %s migrations in %s: %w", sets[i].Dialect, sets[i].Path, globErr)
		}
		if len(up) == 0 {
			return nil, fmt.Errorf("migrations: %s directory %q has no *.up.sql files", sets[i].Dialect, sets[i].Path)
		}
		slices.Sort(up)
		sets[i].Up = up
	}
	return sets, nil
}

// Register hands every selected dialect's migrations to registerFn.
func Register(ctx context.Context, registerFn RegisterFunc, opts ...Option) (Registration, error) {
	reg := Registration{
		SourceLabel: SourceLabel,
		Dialects:    []string{DialectPostgres, DialectSQLite},
	}
	sets, err := Sets()
	if err != nil {
		return reg, err
	}
	reg.Sets = sets

	for _, opt := range opts {
		if opt != nil {
			opt(&reg)
		}
	}

	if registerFn == nil {
		return reg, fmt.Errorf("migrations: register function is required")
	}
	if strings.TrimSpace(reg.SourceLabel) == "" {
		return reg, fmt.Errorf("migrations: source label is required")
	}

	for _, dialect := range reg.Dialects {
		index := slices.IndexFunc(reg.Sets, func(set Set) bool { return set.Dialect == dialect })
		if index < 0 {
			return reg, fmt.Errorf("migrations: no %s migrations for dialect %q", TransfersTable, dialect)
		}
		set := reg.Sets[index]
		if err := registerFn(ctx, set.Dialect, reg.SourceLabel, set.FS); err != nil {
			return reg, fmt.Errorf("migrations: register %s (%s): %w", set.Dialect, set.Path, err)
		}
	}
	return reg, nil
}

// RegisterForDriver registers only the dialect that matches driver.
func RegisterForDriver(ctx context.Context, driver string, registerFn RegisterFunc, opts ...Option) (Registration, error) {
	dialect, err := DialectForDriver(driver)
	if err != nil {
		return Registration{}, err
	}
	return Register(ctx, registerFn, append(opts, WithDialects(dialect))...)
}

func locateRoot(root fs.FS) (fs.FS, string, error) {
	sub, err := fs.Sub(root, rootPath)
	if err == nil {
		if _, statErr := fs.Stat(sub, "."); statErr == nil {
			return sub, rootPath, nil
		}
	}
	if matches, globErr := fs.Glob(root, "*.sql"); globErr == nil && len(matches) > 0 {
		return root, ".", nil
	}
	return nil, "", fmt.Errorf("migrations: %s not found", rootPath)
}

func normalizeDialects(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.ToLower(strings.TrimSpace(value))
		if value == "" || slices.Contains(out, value) {
			continue
		}
		out = append(out, value)
	}
	return out
}

func joinPath(base string, suffix string) string {
	if base == "." {
		return suffix
	}
	return strings.TrimSuffix(base, "/") + "/" + suffix
}
