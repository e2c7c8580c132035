package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	msqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// migrationsTable keeps the ledger's schema version apart from any other
// migrated schema sharing the file.
const migrationsTable = "ledger_schema_migrations"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrateSchema applies pending migrations to the database at dbPath and
// returns the resulting schema version. A database left dirty by an
// interrupted migration is an error.
func MigrateSchema(dbPath string) (uint, error) {
	// The migrator closes its connection, so it gets its own pool.
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return 0, fmt.Errorf("open %s for migration: %w", dbPath, err)
	}
	defer conn.Close()

	target, err := msqlite.WithInstance(conn, &msqlite.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return 0, fmt.Errorf("migration driver: %w", err)
	}
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", target)
	if err != nil {
		return 0, fmt.Errorf("migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("migrate up: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty", version)
	}
	return version, nil
}
