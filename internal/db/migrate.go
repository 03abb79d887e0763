package db

import (
	"database/sql"
	"errors"
	"fmt"

	"commandx/migrations"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

// MigrationStatus describes the schema version after a migration run.
type MigrationStatus struct {
	Version uint
	Dirty   bool
	Changed bool
}

func newMigrator(databaseURL string) (*migrate.Migrate, *sql.DB, error) {
	if databaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	conn, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to postgres: %w", err)
	}

	driver, err := postgres.WithInstance(conn, &postgres.Config{})
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("could not start postgres driver: %w", err)
	}

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("could not open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("migration failed to start: %w", err)
	}
	return m, conn, nil
}

// RunMigrations applies every pending up migration. An already current
// schema is not an error.
func RunMigrations(databaseURL string) (MigrationStatus, error) {
	m, conn, err := newMigrator(databaseURL)
	if err != nil {
		return MigrationStatus{}, err
	}
	defer conn.Close()

	changed := true
	if err := m.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return MigrationStatus{}, fmt.Errorf("could not run up migrations: %w", err)
		}
		changed = false
	}
	return status(m, changed)
}

// RollbackMigrations reverts the given number of migrations.
func RollbackMigrations(databaseURL string, steps int) (MigrationStatus, error) {
	if steps <= 0 {
		return MigrationStatus{}, fmt.Errorf("steps must be positive")
	}
	m, conn, err := newMigrator(databaseURL)
	if err != nil {
		return MigrationStatus{}, err
	}
	defer conn.Close()

	if err := m.Steps(-steps); err != nil {
		return MigrationStatus{}, fmt.Errorf("could not roll back %d migrations: %w", steps, err)
	}
	return status(m, true)
}

func status(m *migrate.Migrate, changed bool) (MigrationStatus, error) {
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return MigrationStatus{}, fmt.Errorf("read migration version: %w", err)
	}
	return MigrationStatus{Version: version, Dirty: dirty, Changed: changed}, nil
}
