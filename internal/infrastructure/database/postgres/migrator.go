package postgres

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file" // file source driver

	"github.com/turtacn/ESG-Materiality/internal/infrastructure/monitoring/logging"
)

// migrationRunner is the subset of *migrate.Migrate used by Migrator.
type migrationRunner interface {
	Up() error
	Steps(n int) error
	Version() (uint, bool, error)
	Force(version int) error
	Close() (error, error)
}

// MigrationStatus describes the schema version of the database.  A dirty
// state means a previous migration failed half-way and needs Force.
type MigrationStatus struct {
	Version uint `json:"version" yaml:"version"`
	Dirty   bool `json:"dirty" yaml:"dirty"`
}

// Migrator applies the SQL migrations in a directory to the connected
// database.
type Migrator struct {
	runner migrationRunner
	logger logging.Logger
}

// NewMigrator builds a Migrator for conn reading migrations from dir.
func NewMigrator(conn *Connection, dir string, log logging.Logger) (*Migrator, error) {
	driver, err := migratepg.WithInstance(conn.DB(), &migratepg.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve migrations path %q: %w", dir, err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+filepath.ToSlash(abs), "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return &Migrator{runner: m, logger: log}, nil
}

func newMigratorWithRunner(r migrationRunner, log logging.Logger) *Migrator {
	return &Migrator{runner: r, logger: log}
}

// Up applies all pending migrations.  No pending migrations is not an error.
func (m *Migrator) Up() error {
	if err := m.runner.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info("Database schema already up to date")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	st, err := m.Status()
	if err != nil {
		return err
	}
	m.logger.Info("Database migrations completed",
		logging.Int64("version", int64(st.Version)),
		logging.Bool("dirty", st.Dirty),
	)
	return nil
}

// Down rolls back the given number of migration steps.
func (m *Migrator) Down(steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be greater than 0, got %d", steps)
	}
	if err := m.runner.Steps(-steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("no migrations to roll back")
		}
		return fmt.Errorf("failed to rollback %d step(s): %w", steps, err)
	}
	m.logger.Info("Database migrations rolled back", logging.Int("steps", steps))
	return nil
}

// Status returns the current schema version.  A database with no applied
// migrations reports version 0.
func (m *Migrator) Status() (MigrationStatus, error) {
	version, dirty, err := m.runner.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return MigrationStatus{}, nil
		}
		return MigrationStatus{}, fmt.Errorf("failed to get migration version: %w", err)
	}
	return MigrationStatus{Version: version, Dirty: dirty}, nil
}

// Force sets the schema version without running migrations.  It is the
// recovery path for a dirty database.
func (m *Migrator) Force(version int) error {
	if err := m.runner.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	m.logger.Warn("Database migration version forced", logging.Int("version", version))
	return nil
}

// Close releases the migration source and the driver's dedicated connection.
// The pool owned by Connection stays open.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.runner.Close()
	if srcErr != nil {
		return srcErr
	}
	return dbErr
}
