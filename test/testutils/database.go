// Package testutils provides common testing utilities and infrastructure setup
package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/cookscabinet/cabinet/internal/infrastructure/config"
	"github.com/cookscabinet/cabinet/internal/infrastructure/persistence/migrations"
	"github.com/cookscabinet/cabinet/internal/infrastructure/persistence/postgres"
	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TestDatabase is a disposable postgres instance with the schema applied
type TestDatabase struct {
	Container testcontainers.Container
	Config    *config.Config
	Conn      *postgres.ConnectionManager
	GormDB    *gorm.DB
	DB        *sql.DB
	PgxPool   *pgxpool.Pool
	DSN       string
	t         *testing.T
}

// DatabaseConfig holds test database configuration
type DatabaseConfig struct {
	Image    string
	Database string
	Username string
	Password string
	Port     string
}

// DefaultDatabaseConfig returns the default test database configuration
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Image:    "postgres:16-alpine",
		Database: "cookscabinet_test",
		Username: "test_user",
		Password: "test_password",
		Port:     "5432",
	}
}

// SetupTestDatabase starts postgres in a container and migrates it
func SetupTestDatabase(t *testing.T) *TestDatabase {
	return SetupTestDatabaseWithConfig(t, DefaultDatabaseConfig())
}

// SetupTestDatabaseWithConfig creates a test database with custom configuration
func SetupTestDatabaseWithConfig(t *testing.T, cfg DatabaseConfig) *TestDatabase {
	t.Helper()
	ctx := context.Background()

	dsnFor := func(host string, port nat.Port) string {
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.Username, cfg.Password, host, port.Port(), cfg.Database)
	}

	container, err := testcontainers.GenericContainer(ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        cfg.Image,
				ExposedPorts: []string{cfg.Port + "/tcp"},
				Env: map[string]string{
					"POSTGRES_DB":       cfg.Database,
					"POSTGRES_USER":     cfg.Username,
					"POSTGRES_PASSWORD": cfg.Password,
				},
				WaitingFor: wait.ForAll(
					wait.ForLog("database system is ready to accept connections").
						WithOccurrence(2).
						WithStartupTimeout(60*time.Second),
					wait.ForListeningPort(nat.Port(cfg.Port+"/tcp")),
				),
				Tmpfs: map[string]string{
					"/var/lib/postgresql/data": "rw,noexec,nosuid,size=512m",
				},
			},
			Started: true,
		})
	require.NoError(t, err, "Failed to start postgres container")

	testDB := &TestDatabase{Container: container, t: t}
	t.Cleanup(testDB.Cleanup)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, nat.Port(cfg.Port+"/tcp"))
	require.NoError(t, err)

	testDB.DSN = dsnFor(host, port)
	testDB.Config = &config.Config{
		Database: config.DatabaseConfig{
			Driver:          "postgres",
			URL:             testDB.DSN,
			Database:        cfg.Database,
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: time.Hour,
			ConnectAttempts: 10,
			LogLevel:        "silent",
		},
	}

	testDB.Conn, err = postgres.NewConnectionManager(ctx, testDB.Config, zap.NewNop())
	require.NoError(t, err, "Failed to connect to test database")
	testDB.GormDB = testDB.Conn.GetDB()
	testDB.DB = testDB.Conn.SQLDB()

	poolCfg, err := pgxpool.ParseConfig(testDB.DSN)
	require.NoError(t, err, "Failed to parse pgx config")
	poolCfg.MaxConns = 4
	poolCfg.MinConns = 1

	testDB.PgxPool, err = pgxpool.NewWithConfig(ctx, poolCfg)
	require.NoError(t, err, "Failed to create pgx pool")

	return testDB
}

// RunMigrations applies the embedded schema migrations
func (td *TestDatabase) RunMigrations() error {
	m, err := migrations.New(td.DB, td.Config.Database.Database, zap.NewNop())
	if err != nil {
		return err
	}
	return m.Up()
}

// TruncateRecipes removes all recipes while preserving the schema
func (td *TestDatabase) TruncateRecipes(ctx context.Context) error {
	_, err := td.PgxPool.Exec(ctx, "TRUNCATE TABLE recipes")
	return err
}

// CountRecipes counts stored rows, bypassing GORM
func (td *TestDatabase) CountRecipes(ctx context.Context) (int64, error) {
	var count int64
	err := td.PgxPool.QueryRow(ctx, "SELECT COUNT(*) FROM recipes").Scan(&count)
	return count, err
}

// Cleanup closes all connections and stops the container
func (td *TestDatabase) Cleanup() {
	if td.PgxPool != nil {
		td.PgxPool.Close()
	}

	if td.Conn != nil {
		_ = td.Conn.Close()
	}

	if td.Container != nil {
		if err := td.Container.Terminate(context.Background()); err != nil {
			td.t.Logf("Failed to terminate postgres container: %v", err)
		}
	}
}
