package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/cookscabinet/cabinet/internal/infrastructure/config"
	"github.com/cookscabinet/cabinet/internal/infrastructure/persistence/migrations"
	"github.com/cookscabinet/cabinet/internal/infrastructure/persistence/postgres"
	"github.com/cookscabinet/cabinet/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Migrator is the schema migration surface the migrate command drives
type Migrator interface {
	Up() error
	Down() error
	Version() (uint, bool, error)
	Force(version int) error
	Status() (*migrations.MigrationStatus, error)
	Close() error
}

// ErrMigrateDriver is returned when the configured database has no migrations
var ErrMigrateDriver = errors.New("migrations are only available for the postgres driver")

// openMigrator connects to postgres directly, without the rest of the graph
func openMigrator(ctx context.Context, cfg *config.Config) (Migrator, error) {
	if cfg.Database.Driver != "postgres" {
		return nil, ErrMigrateDriver
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		Development: cfg.App.Debug,
	})
	if err != nil {
		return nil, err
	}

	cm, err := postgres.NewConnectionManager(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	m, err := migrations.New(cm.SQLDB(), cfg.Database.Database, log)
	if err != nil {
		_ = cm.Close()
		return nil, err
	}
	return &managedMigrator{Migrator: m, closeDB: cm.Close, logger: log}, nil
}

// managedMigrator also closes the connection it was opened on
type managedMigrator struct {
	*migrations.Migrator
	closeDB func() error
	logger  *zap.Logger
}

func (m *managedMigrator) Close() error {
	err := errors.Join(m.Migrator.Close(), m.closeDB())
	_ = m.logger.Sync()
	return err
}

func newMigrateCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the postgres schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return env.withMigrator(cmd.Context(), func(m Migrator) error {
					if err := m.Up(); err != nil {
						return err
					}
					return printVersion(cmd, m)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return env.withMigrator(cmd.Context(), func(m Migrator) error {
					if err := m.Down(); err != nil {
						return err
					}
					return printVersion(cmd, m)
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return env.withMigrator(cmd.Context(), func(m Migrator) error {
					return printVersion(cmd, m)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "List applied and pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return env.withMigrator(cmd.Context(), func(m Migrator) error {
					status, err := m.Status()
					if err != nil {
						return err
					}
					printStatus(cmd, status)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Mark a version as applied without running it",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", args[0], err)
				}
				return env.withMigrator(cmd.Context(), func(m Migrator) error {
					if err := m.Force(version); err != nil {
						return err
					}
					return printVersion(cmd, m)
				})
			},
		},
	)

	return cmd
}

func (e *environment) withMigrator(ctx context.Context, fn func(Migrator) error) (err error) {
	cfg, err := e.config()
	if err != nil {
		return err
	}

	m, err := e.deps.OpenMigrator(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, m.Close())
	}()

	return fn(m)
}

func printVersion(cmd *cobra.Command, m Migrator) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}

	line := fmt.Sprintf("Schema version %d", version)
	if dirty {
		line += " (dirty)"
	}
	printOK(cmd.OutOrStdout(), "%s", line)
	return nil
}

func printStatus(cmd *cobra.Command, status *migrations.MigrationStatus) {
	w := cmd.OutOrStdout()
	for _, mig := range status.Applied {
		fmt.Fprintf(w, "%s %06d %s\n", okStyle.Render("applied"), mig.Version, mig.Name)
	}
	for _, mig := range status.Pending {
		fmt.Fprintf(w, "%s %06d %s\n", mutedStyle.Render("pending"), mig.Version, mig.Name)
	}
	if status.Dirty {
		fmt.Fprintln(w, titleStyle.Render("schema is dirty, fix it and run migrate force"))
	}
}
