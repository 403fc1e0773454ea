// Package dbtest opens throwaway migrated databases for package tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"

	coredatabase "github.com/m3rciful/postbot/core/database"
)

// OpenSQLite creates a migrated sqlite3 database in a temp dir.
// migrationsDir is relative to the calling package. The test is skipped when
// the sqlite3 driver is unavailable, e.g. in CGO_ENABLED=0 builds.
func OpenSQLite(t testing.TB, migrationsDir string) *sqlx.DB {
	t.Helper()
	cfg := coredatabase.Config{
		Driver:        coredatabase.DriverSQLite,
		Path:          filepath.Join(t.TempDir(), "postbot.db"),
		MigrationsDir: migrationsDir,
	}
	db, err := coredatabase.Connect(context.Background(), cfg)
	if err != nil {
		t.Skipf("sqlite3 unavailable: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := coredatabase.RunMigrations(cfg); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
