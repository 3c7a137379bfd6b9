// Package store opens the local SQLite database, applies schema migrations,
// and wires the repositories over the shared handle.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/vaultscribe/vaultscribe/internal/common"
	"github.com/vaultscribe/vaultscribe/internal/filex"
	"github.com/vaultscribe/vaultscribe/internal/repositories/sessions"
	"github.com/vaultscribe/vaultscribe/internal/repositories/users"
	"github.com/vaultscribe/vaultscribe/internal/store/migrations"
)

// Store is the opened database plus the repositories bound to it.
type Store struct {
	DB       *sql.DB
	Users    users.Repository
	Sessions sessions.Repository
}

// RunMigrations applies every pending schema migration in order. Running it
// against an up-to-date database is a no-op; running it against a database
// from a release without the second-factor column upgrades the layout in
// place without touching existing rows.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (or creates) the database file at path, applies migrations, and
// returns the wired Store. A migration failure comes back as
// *common.SchemaError; callers must treat it as fatal and stay out of the
// auth flows.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := filex.EnsureParentDir(path); err != nil {
		return nil, fmt.Errorf("failed to prepare database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single local writer. More connections would only contend on the file.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		`PRAGMA foreign_keys = ON;`,
		`PRAGMA busy_timeout = 5000;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply pragma %q: %w", pragma, err)
		}
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, &common.SchemaError{Err: err}
	}

	return &Store{
		DB:       db,
		Users:    users.NewSQLiteRepository(db),
		Sessions: sessions.NewSQLiteRepository(db),
	}, nil
}

// SchemaVersion reports the currently applied migration version.
func (s *Store) SchemaVersion(ctx context.Context) (int64, error) {
	return goose.GetDBVersionContext(ctx, s.DB)
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.DB.Close()
}
