//go:build integration

package integration

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/cookscabinet/cabinet/internal/infrastructure/cache"
	"github.com/cookscabinet/cabinet/internal/infrastructure/config"
	rediscache "github.com/cookscabinet/cabinet/internal/infrastructure/persistence/redis"
	"github.com/cookscabinet/cabinet/internal/ports/outbound"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func startRedis(t *testing.T) *config.RedisConfig {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start redis container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate redis container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, nat.Port("6379/tcp"))
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	return &config.RedisConfig{
		Host:            host,
		Port:            portNum,
		KeyPrefix:       "cookscabinet-test:",
		PoolSize:        4,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     3 * time.Second,
		WriteTimeout:    3 * time.Second,
		ConnectAttempts: 5,
	}
}

func TestRedisCacheRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	ctx := context.Background()
	cfg := startRedis(t)

	client, err := cache.NewRedisClient(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer client.Close()

	repo := rediscache.NewCacheRepository(client, zap.NewNop())

	_, err = repo.Get(ctx, "recipe:missing")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)

	require.NoError(t, repo.Set(ctx, "recipe:1", []byte(`{"title":"Soup"}`), time.Minute))

	data, err := repo.Get(ctx, "recipe:1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Soup"}`, string(data))

	exists, err := repo.Exists(ctx, "recipe:1")
	require.NoError(t, err)
	assert.True(t, exists)

	raw, err := client.Client().Get(ctx, "cookscabinet-test:recipe:1").Result()
	require.NoError(t, err, "keys carry the configured prefix")
	assert.NotEmpty(t, raw)

	require.NoError(t, repo.Delete(ctx, "recipe:1"))
	exists, err = repo.Exists(ctx, "recipe:1")
	require.NoError(t, err)
	assert.False(t, exists)
}
