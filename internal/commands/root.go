// Package commands implements the cookscabinet command line interface
package commands

import (
	"context"
	"errors"
	"strings"

	"github.com/cookscabinet/cabinet/internal/infrastructure/config"
	"github.com/cookscabinet/cabinet/internal/infrastructure/container"
	"github.com/cookscabinet/cabinet/internal/infrastructure/persistence/seed"
	"github.com/cookscabinet/cabinet/internal/ports/inbound"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

// Runtime is the set of services a one-shot command works with
type Runtime struct {
	Recipes    inbound.RecipeService
	Generation inbound.GenerationService
	Seeder     *seed.Seeder

	stop func(context.Context) error
}

// Close stops everything Open started
func (r *Runtime) Close(ctx context.Context) error {
	if r.stop == nil {
		return nil
	}
	return r.stop(ctx)
}

// Deps holds the collaborators commands are built on.
// Nil fields fall back to the production implementations.
type Deps struct {
	LoadConfig   func(path string) (*config.Config, error)
	Open         func(ctx context.Context, cfg *config.Config) (*Runtime, error)
	OpenMigrator func(ctx context.Context, cfg *config.Config) (Migrator, error)
}

func (d *Deps) applyDefaults() {
	if d.LoadConfig == nil {
		d.LoadConfig = config.Load
	}
	if d.Open == nil {
		d.Open = openRuntime
	}
	if d.OpenMigrator == nil {
		d.OpenMigrator = openMigrator
	}
}

// openRuntime starts the core dependency graph without the HTTP servers
func openRuntime(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	rt := &Runtime{}
	app := container.New(cfg, container.CoreModule,
		fx.Populate(&rt.Recipes, &rt.Generation, &rt.Seeder),
	)
	if err := app.Start(ctx); err != nil {
		return nil, err
	}
	rt.stop = app.Stop
	return rt, nil
}

type rootOptions struct {
	configPath string
	logLevel   string
}

// NewRootCommand creates the cookscabinet command tree
func NewRootCommand(deps Deps) *cobra.Command {
	deps.applyDefaults()
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "cookscabinet",
		Short:         "Recipe cabinet with photo based recipe generation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Configuration file path")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override the configured log level")

	env := &environment{deps: deps, opts: opts}

	cmd.AddCommand(
		newServeCmd(env),
		newGenerateCmd(env),
		newRecipesCmd(env),
		newSeedCmd(env),
		newMigrateCmd(env),
	)

	return cmd
}

// environment resolves configuration and services lazily for subcommands
type environment struct {
	deps Deps
	opts *rootOptions
}

func (e *environment) config() (*config.Config, error) {
	cfg, err := e.deps.LoadConfig(e.opts.configPath)
	if err != nil {
		return nil, err
	}
	if e.opts.logLevel != "" {
		cfg.App.LogLevel = e.opts.logLevel
	}
	return cfg, nil
}

// withRuntime opens the services, runs fn and always closes them again
func (e *environment) withRuntime(ctx context.Context, fn func(*Runtime) error) (err error) {
	cfg, err := e.config()
	if err != nil {
		return err
	}

	rt, err := e.deps.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		err = errors.Join(err, rt.Close(stopCtx))
	}()

	return fn(rt)
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
