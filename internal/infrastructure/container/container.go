// Package container provides dependency injection using Uber FX
// This implements the Dependency Inversion Principle from SOLID
package container

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	aiapp "github.com/cookscabinet/cabinet/internal/application/ai"
	recipeapp "github.com/cookscabinet/cabinet/internal/application/recipe"
	aiinfra "github.com/cookscabinet/cabinet/internal/infrastructure/ai"
	"github.com/cookscabinet/cabinet/internal/infrastructure/ai/ollama"
	"github.com/cookscabinet/cabinet/internal/infrastructure/ai/openai"
	"github.com/cookscabinet/cabinet/internal/infrastructure/cache"
	"github.com/cookscabinet/cabinet/internal/infrastructure/config"
	"github.com/cookscabinet/cabinet/internal/infrastructure/events"
	"github.com/cookscabinet/cabinet/internal/infrastructure/http/opsserver"
	"github.com/cookscabinet/cabinet/internal/infrastructure/http/server"
	"github.com/cookscabinet/cabinet/internal/infrastructure/imaging"
	"github.com/cookscabinet/cabinet/internal/infrastructure/monitoring"
	gormrepo "github.com/cookscabinet/cabinet/internal/infrastructure/persistence/gorm"
	"github.com/cookscabinet/cabinet/internal/infrastructure/persistence/memory"
	"github.com/cookscabinet/cabinet/internal/infrastructure/persistence/migrations"
	"github.com/cookscabinet/cabinet/internal/infrastructure/persistence/postgres"
	rediscache "github.com/cookscabinet/cabinet/internal/infrastructure/persistence/redis"
	"github.com/cookscabinet/cabinet/internal/infrastructure/persistence/seed"
	"github.com/cookscabinet/cabinet/internal/infrastructure/persistence/sqlite"
	"github.com/cookscabinet/cabinet/internal/infrastructure/storage/cdn"
	s3store "github.com/cookscabinet/cabinet/internal/infrastructure/storage/s3"
	"github.com/cookscabinet/cabinet/internal/ports/inbound"
	"github.com/cookscabinet/cabinet/internal/ports/outbound"
	"github.com/cookscabinet/cabinet/pkg/healthcheck"
	"github.com/cookscabinet/cabinet/pkg/logger"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Module provides everything the API process needs
var Module = fx.Options(
	CoreModule,
	HTTPModule,
	LifecycleModule,
)

// CoreModule provides the services without any HTTP surface. CLI commands use it directly.
var CoreModule = fx.Options(
	LoggerModule,
	ObservabilityModule,
	DatabaseModule,
	StorageModule,
	CacheModule,
	EventModule,
	RepositoryModule,
	AIModule,
	ServiceModule,
	HealthModule,
)

// New builds an fx application around an already loaded configuration
func New(cfg *config.Config, opts ...fx.Option) *fx.App {
	base := []fx.Option{
		fx.Supply(cfg),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx").WithOptions(zap.IncreaseLevel(zap.WarnLevel))}
		}),
	}
	return fx.New(append(base, opts...)...)
}

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
			File: logger.FileConfig{
				Path:       cfg.App.LogFile,
				MaxSizeMB:  100,
				MaxBackups: 5,
				MaxAgeDays: 14,
				Compress:   true,
			},
		})
	},
)

// ObservabilityModule provides metrics and tracing
var ObservabilityModule = fx.Options(
	fx.Provide(
		func(log *zap.Logger) *monitoring.MetricsCollector {
			return monitoring.NewMetricsCollector(nil, log)
		},
		NewTracingProvider,
	),
	// The provider installs itself globally, so nothing else asks for it
	fx.Invoke(func(*monitoring.TracingProvider) {}),
)

// NewTracingProvider configures OTLP export and flushes it on stop
func NewTracingProvider(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
	tp, err := monitoring.NewTracingProvider(context.Background(), monitoring.TracingConfig{
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		OTLPEndpoint:   cfg.Monitoring.OTLPEndpoint,
		Insecure:       cfg.Monitoring.OTLPInsecure,
		SamplingRate:   cfg.Monitoring.SamplingRate,
		Enabled:        cfg.Monitoring.EnableTracing,
	}, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: tp.Shutdown})
	return tp, nil
}

// DatabaseModule provides database connections
var DatabaseModule = fx.Provide(
	NewDatabase,
	func(db *gorm.DB) (*sql.DB, error) {
		return db.DB()
	},
)

// NewDatabase opens the configured database and brings its schema up to date
func NewDatabase(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch cfg.Database.Driver {
	case "postgres":
		cm, err := postgres.NewConnectionManager(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return cm.Close() }})

		if cfg.Database.AutoMigrate {
			m, err := migrations.New(cm.SQLDB(), cfg.Database.Database, log)
			if err != nil {
				return nil, err
			}
			if err := m.Up(); err != nil {
				return nil, err
			}
		}
		return cm.GetDB(), nil

	default:
		db, err := sqlite.SetupDatabase(cfg.Database.Path,
			gormrepo.NewLogger(log.Named("sqlite"), cfg.Database.LogLevel, cfg.Database.SlowQueryThreshold))
		if err != nil {
			return nil, fmt.Errorf("failed to setup SQLite database: %w", err)
		}
		lc.Append(fx.Hook{OnStop: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}})

		log.Info("Connected to SQLite database", zap.String("path", cfg.Database.Path))
		return db, nil
	}
}

// StorageModule provides the optional object store and CDN invalidation
var StorageModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) (*s3store.ImageStore, error) {
		if cfg.Storage.Provider != "s3" {
			return nil, nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s3store.NewImageStore(ctx, &cfg.Storage, log)
	},
	func(store *s3store.ImageStore) outbound.ImageStore {
		if store == nil {
			return nil
		}
		return store
	},
	func(cfg *config.Config, log *zap.Logger) (events.ImageInvalidator, error) {
		if cfg.Storage.CloudFrontDistributionID == "" {
			return nil, nil
		}
		inv, err := cdn.NewInvalidator(&cfg.Storage, gormrepo.ImageKey, log)
		if err != nil {
			return nil, err
		}
		return inv, nil
	},
)

// CacheModule provides caching
var CacheModule = fx.Provide(
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*cache.RedisClient, error) {
		if cfg.Cache.Provider != "redis" {
			return nil, nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		client, err := cache.NewRedisClient(ctx, &cfg.Redis, log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return client.Close() }})
		return client, nil
	},
	func(cfg *config.Config, log *zap.Logger, redis *cache.RedisClient, metrics *monitoring.MetricsCollector) (outbound.CacheRepository, error) {
		var repo outbound.CacheRepository
		switch cfg.Cache.Provider {
		case "none":
			log.Info("Recipe cache disabled")
			return nil, nil
		case "redis":
			repo = rediscache.NewCacheRepository(redis, log)
		default:
			mem, err := memory.NewCacheRepository(cfg.Cache.Size)
			if err != nil {
				return nil, err
			}
			repo = mem
		}
		log.Info("Recipe cache enabled", zap.String("provider", cfg.Cache.Provider), zap.Duration("ttl", cfg.Cache.TTL))
		return monitoring.InstrumentCache(repo, metrics), nil
	},
)

// EventModule provides event handling
var EventModule = fx.Provide(
	func(log *zap.Logger, metrics *monitoring.MetricsCollector, invalidator events.ImageInvalidator) *events.Dispatcher {
		d := events.NewDispatcher(log)
		events.Register(d, log, metrics, invalidator)
		return d
	},
	func(d *events.Dispatcher) outbound.EventPublisher { return d },
)

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	fx.Annotate(
		gormrepo.NewRecipeRepository,
		fx.As(new(outbound.RecipeRepository)),
	),
)

// AIModule provides the provider clients behind the generation ports
var AIModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) *openai.Client {
		return openai.NewClient(&cfg.AI, log)
	},
	func(cfg *config.Config, log *zap.Logger, oa *openai.Client) outbound.RecipeInferrer {
		if cfg.AI.Provider == "ollama" {
			return ollama.NewClient(&cfg.AI, log)
		}
		return oa
	},
	func(oa *openai.Client) outbound.ImageGenerator { return oa },
	func(cfg *config.Config, log *zap.Logger) outbound.ImageFetcher {
		return imaging.NewHTTPFetcher(imaging.FetcherConfig{
			Timeout:  cfg.AI.RequestTimeout,
			MaxBytes: cfg.AI.MaxImageBytes,
		}, log)
	},
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	func(
		repo outbound.RecipeRepository,
		cache outbound.CacheRepository,
		publisher outbound.EventPublisher,
		cfg *config.Config,
		log *zap.Logger,
	) inbound.RecipeService {
		return recipeapp.NewRecipeService(repo, cache, publisher, recipeapp.Config{CacheTTL: cfg.Cache.TTL}, log)
	},
	func(
		inferrer outbound.RecipeInferrer,
		generator outbound.ImageGenerator,
		fetcher outbound.ImageFetcher,
		recipes inbound.RecipeService,
		metrics *monitoring.MetricsCollector,
		cfg *config.Config,
		log *zap.Logger,
	) inbound.GenerationService {
		return aiapp.NewGenerationService(inferrer, generator, fetcher, recipes, metrics, aiapp.Config{
			Timeout:       cfg.AI.GenerationTimeout,
			MaxConcurrent: cfg.AI.MaxConcurrent,
			JPEGQuality:   cfg.AI.JPEGQuality,
			MaxImageBytes: cfg.AI.MaxImageBytes,
			MaxPixels:     cfg.AI.MaxImagePixels,
		}, log)
	},
	func(recipes inbound.RecipeService, log *zap.Logger) *seed.Seeder {
		return seed.NewSeeder(recipes, log)
	},
)

// HealthModule provides readiness checks for every dependency in use
var HealthModule = fx.Provide(NewHealthCheck)

// NewHealthCheck registers a checker per configured dependency
func NewHealthCheck(
	cfg *config.Config,
	log *zap.Logger,
	db *sql.DB,
	redis *cache.RedisClient,
	store *s3store.ImageStore,
	oa *openai.Client,
	inferrer outbound.RecipeInferrer,
) *healthcheck.HealthCheck {
	health := healthcheck.New(cfg.App.Version, log)
	health.Register("database", healthcheck.NewDatabaseChecker(db))

	if redis != nil {
		health.Register("redis", healthcheck.NewRedisChecker(redis.Client()))
	}

	if store != nil {
		health.Register("storage", healthcheck.NewCustomChecker("storage", func(ctx context.Context) (healthcheck.Status, string, interface{}) {
			if err := store.Ping(ctx); err != nil {
				return healthcheck.StatusUnhealthy, err.Error(), nil
			}
			return healthcheck.StatusHealthy, "bucket reachable", nil
		}))
	}

	if local, ok := inferrer.(*ollama.Client); ok {
		health.Register("ai", aiinfra.NewHealthChecker("ollama", local, nil, log))
	} else {
		health.Register("ai", aiinfra.NewHealthChecker("openai", oa, oa.Configured, log))
	}

	return health
}

// HTTPModule provides HTTP servers
var HTTPModule = fx.Provide(
	func(
		cfg *config.Config,
		log *zap.Logger,
		recipes inbound.RecipeService,
		generation inbound.GenerationService,
		metrics *monitoring.MetricsCollector,
	) (*server.Server, error) {
		return server.NewServer(cfg, log, recipes, generation, metrics)
	},
	func(cfg *config.Config, log *zap.Logger, health *healthcheck.HealthCheck, metrics *monitoring.MetricsCollector) *opsserver.Server {
		if !cfg.Monitoring.EnableMetrics {
			return opsserver.New(cfg, log, health, nil)
		}
		return opsserver.New(cfg, log, health, metrics.Handler())
	},
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// RegisterLifecycleHooks starts both servers with the application and drains them on stop
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	log *zap.Logger,
	db *sql.DB,
	metrics *monitoring.MetricsCollector,
	api *server.Server,
	ops *opsserver.Server,
) {
	statsCtx, stopStats := context.WithCancel(context.Background())

	serve := func(name string, start func() error) {
		go func() {
			if err := start(); err != nil {
				log.Error("Server stopped unexpectedly", zap.String("server", name), zap.Error(err))
				_ = shutdowner.Shutdown(fx.ExitCode(1))
			}
		}()
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting CooksCabinet",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
			)

			go metrics.ReportDBStats(statsCtx, db, 15*time.Second)
			serve("api", api.Start)
			if cfg.Monitoring.EnableMetrics {
				serve("ops", ops.Start)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down CooksCabinet")
			stopStats()

			if err := api.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}
			if cfg.Monitoring.EnableMetrics {
				if err := ops.Shutdown(ctx); err != nil {
					log.Error("Failed to shutdown operations server", zap.Error(err))
				}
			}

			_ = log.Sync()
			return nil
		},
	})
}
