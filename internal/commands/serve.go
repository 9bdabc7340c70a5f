package commands

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cookscabinet/cabinet/internal/infrastructure/container"
	"github.com/cookscabinet/cabinet/internal/infrastructure/http/opsserver"
	"github.com/cookscabinet/cabinet/internal/infrastructure/http/server"
	"github.com/cookscabinet/cabinet/internal/infrastructure/monitoring"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const dbStatsInterval = 15 * time.Second

func newServeCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API and operations servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, env)
		},
	}
}

// serve runs both servers until ctx ends or either of them fails
func serve(ctx context.Context, env *environment) error {
	cfg, err := env.config()
	if err != nil {
		return err
	}

	var (
		api     *server.Server
		ops     *opsserver.Server
		log     *zap.Logger
		db      *sql.DB
		metrics *monitoring.MetricsCollector
	)
	app := container.New(cfg, container.CoreModule, container.HTTPModule,
		fx.Populate(&api, &ops, &log, &db, &metrics),
	)
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := app.Stop(stopCtx); err != nil {
			log.Error("Failed to stop dependencies", zap.Error(err))
		}
	}()

	log.Info("Starting CooksCabinet",
		zap.String("version", cfg.App.Version),
		zap.String("api", api.Addr()),
		zap.String("ops", ops.Addr()),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(api.Start)
	if cfg.Monitoring.EnableMetrics {
		g.Go(ops.Start)
	}
	g.Go(func() error {
		metrics.ReportDBStats(gctx, db, dbStatsInterval)
		return nil
	})

	// Drain on signal or on the first server failure
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down CooksCabinet")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(shutdownCtx); err != nil {
			log.Error("Failed to shutdown HTTP server", zap.Error(err))
		}
		if cfg.Monitoring.EnableMetrics {
			if err := ops.Shutdown(shutdownCtx); err != nil {
				log.Error("Failed to shutdown operations server", zap.Error(err))
			}
		}
		return nil
	})

	return g.Wait()
}
