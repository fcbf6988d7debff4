package postgres

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratePostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrateUp applies every pending migration. Already being at the latest
// version is not an error.
func MigrateUp(db *sqlx.DB, log *logrus.Logger) error {
	m, err := newMigrate(db, log)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read migration version: %w", err)
	}

	log.WithFields(logrus.Fields{
		"version": version,
		"dirty":   dirty,
	}).Info("Database schema is up to date")

	return nil
}

// newMigrate does not hand back a closer: closing the migrate instance would
// close the shared *sql.DB.
func newMigrate(db *sqlx.DB, log *logrus.Logger) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	driver, err := migratePostgres.WithInstance(db.DB, &migratePostgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres migrate driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{log: log}

	return m, nil
}

type migrateLogger struct {
	log *logrus.Logger
}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	l.log.Debugf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}
