package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/ESG-Materiality/internal/config"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/database/postgres"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/monitoring/logging"
)

// SchemaMigrator is the subset of postgres.Migrator the migrate commands use.
type SchemaMigrator interface {
	Up() error
	Down(steps int) error
	Status() (postgres.MigrationStatus, error)
	Force(version int) error
	Close() error
}

// MigratorFactory opens a SchemaMigrator for the migrations in dir.
type MigratorFactory func(cfg *config.Config, dir string, logger logging.Logger) (SchemaMigrator, error)

// NewMigrateCmd creates the migrate command group.
func NewMigrateCmd(deps CommandDependencies) *cobra.Command {
	var dir string
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}
	migrateCmd.PersistentFlags().StringVar(&dir, "dir", "migrations", "directory holding the SQL migrations")

	withMigrator := func(cmd *cobra.Command, fn func(SchemaMigrator) error) error {
		cliCtx, err := GetCLIContext(cmd)
		if err != nil {
			return err
		}
		m, err := deps.OpenMigrator(cliCtx.Config, dir, cliCtx.Logger)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := m.Close(); cerr != nil {
				cliCtx.Logger.Warn("failed to close migrator", logging.Err(cerr))
			}
		}()
		return fn(m)
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(m SchemaMigrator) error {
				if err := m.Up(); err != nil {
					return err
				}
				PrintSuccess(cmd, "schema is up to date")
				return nil
			})
		},
	}

	var steps int
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(m SchemaMigrator) error {
				if err := m.Down(steps); err != nil {
					return err
				}
				PrintSuccess(cmd, fmt.Sprintf("rolled back %d migration(s)", steps))
				return nil
			})
		},
	}
	downCmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(m SchemaMigrator) error {
				st, err := m.Status()
				if err != nil {
					return err
				}
				return PrintResult(cmd, migrationStatus(st))
			})
		},
	}

	forceCmd := &cobra.Command{
		Use:   "force VERSION",
		Short: "Set the schema version without running migrations, clearing the dirty flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}
			return withMigrator(cmd, func(m SchemaMigrator) error {
				if err := m.Force(version); err != nil {
					return err
				}
				PrintSuccess(cmd, fmt.Sprintf("forced schema version %d", version))
				return nil
			})
		},
	}

	migrateCmd.AddCommand(upCmd, downCmd, statusCmd, forceCmd)
	return migrateCmd
}

type migrationStatus postgres.MigrationStatus

func (migrationStatus) TableHeaders() []string { return []string{"Version", "Dirty"} }
func (s migrationStatus) TableRows() [][]string {
	return [][]string{{strconv.FormatUint(uint64(s.Version), 10), strconv.FormatBool(s.Dirty)}}
}

// pgMigrator closes the connection it owns together with the migrator.
type pgMigrator struct {
	*postgres.Migrator
	conn *postgres.Connection
}

func (m pgMigrator) Close() error {
	err := m.Migrator.Close()
	if cerr := m.conn.Close(); err == nil {
		err = cerr
	}
	return err
}

func openPostgresMigrator(cfg *config.Config, dir string, logger logging.Logger) (SchemaMigrator, error) {
	conn, err := postgres.NewConnection(postgres.ConfigFrom(cfg.Database), logger)
	if err != nil {
		return nil, err
	}
	m, err := postgres.NewMigrator(conn, dir, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return pgMigrator{Migrator: m, conn: conn}, nil
}
