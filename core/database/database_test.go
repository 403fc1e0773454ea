package database

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigNormalizeDefaults(t *testing.T) {
	cfg := Config{Host: "db"}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Driver != DriverPostgres || cfg.Port != "5432" || cfg.SSLMode != "disable" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.MaxConnections != 10 || cfg.MigrationsDir != "migrations" {
		t.Fatalf("unexpected pool/migrations defaults: %+v", cfg)
	}
}

func TestConfigNormalizeSQLite(t *testing.T) {
	cfg := Config{Driver: "SQLite", Path: "data/postbot.db", MaxConnections: 8}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Driver != DriverSQLite {
		t.Fatalf("driver = %q", cfg.Driver)
	}
	if cfg.MaxConnections != 1 {
		t.Fatalf("sqlite must use a single connection, got %d", cfg.MaxConnections)
	}
	if got := cfg.migrateURL(); got != "sqlite3://data/postbot.db" {
		t.Fatalf("migrate url = %q", got)
	}
	if !strings.HasPrefix(cfg.dsn(), "file:data/postbot.db?") {
		t.Fatalf("dsn = %q", cfg.dsn())
	}
}

func TestConfigNormalizeRejects(t *testing.T) {
	for _, cfg := range []Config{
		{Driver: "mysql", Host: "x"},
		{Driver: DriverPostgres},
		{Driver: DriverSQLite},
	} {
		c := cfg
		if err := c.Normalize(); err == nil {
			t.Fatalf("expected error for %+v", cfg)
		}
	}
}

func TestSelectApplied(t *testing.T) {
	files := []string{"0001_init.up.sql", "0002_users.up.sql", "0003_index.up.sql"}
	got := selectApplied(files, 1, 3)
	if len(got) != 2 || got[0] != "0002_users.up.sql" {
		t.Fatalf("selectApplied = %v", got)
	}
	if selectApplied(files, 3, 3) != nil {
		t.Fatalf("expected nothing applied when versions match")
	}
}

func TestRepositoryMigrationsPresent(t *testing.T) {
	for _, driver := range []string{DriverPostgres, DriverSQLite} {
		files := listMigrationFiles(filepath.Join("..", "..", "migrations", driver))
		if len(files) == 0 {
			t.Fatalf("no up migrations for %s", driver)
		}
		if parseVersion(files[0]) != 1 {
			t.Fatalf("first %s migration should be version 1, got %s", driver, files[0])
		}
	}
}
