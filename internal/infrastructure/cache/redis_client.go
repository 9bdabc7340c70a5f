// Package cache provides Redis caching infrastructure
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/cookscabinet/cabinet/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	// ErrKeyNotFound is returned when a key is absent
	ErrKeyNotFound = errors.New("cache key not found")
	// ErrCircuitOpen is returned while the circuit breaker rejects calls
	ErrCircuitOpen = errors.New("redis circuit breaker is open")
)

// RedisClient provides Redis connection management with cluster support
type RedisClient struct {
	client         redis.UniversalClient
	prefix         string
	logger         *zap.Logger
	circuitBreaker *CircuitBreaker
}

// NewRedisClient creates a new Redis client and waits for the server to answer
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig, logger *zap.Logger) (*RedisClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	logger = logger.Named("redis")

	// Create Redis options
	opts := &redis.UniversalOptions{
		Addrs:           []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Password:        cfg.Password,
		DB:              cfg.Database,
		MaxRetries:      cfg.MaxRetries,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: time.Minute * 5,
		PoolTimeout:     time.Second * 10,
	}

	// Configure cluster mode if enabled
	if cfg.EnableCluster && len(cfg.ClusterNodes) > 0 {
		opts.Addrs = cfg.ClusterNodes
		logger.Info("Redis cluster mode enabled", zap.Strings("nodes", cfg.ClusterNodes))
	}

	client := redis.NewUniversalClient(opts)

	attempts := cfg.ConnectAttempts
	if attempts == 0 {
		attempts = 1
	}

	err := retry.Do(
		func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return client.Ping(pingCtx).Err()
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(250*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("Redis not ready, retrying", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis client initialized successfully",
		zap.Strings("addrs", opts.Addrs),
		zap.Int("database", cfg.Database),
		zap.Bool("cluster_enabled", cfg.EnableCluster))

	return NewRedisClientFrom(client, cfg.KeyPrefix, logger), nil
}

// NewRedisClientFrom wraps an existing client
func NewRedisClientFrom(client redis.UniversalClient, prefix string, logger *zap.Logger) *RedisClient {
	return &RedisClient{
		client:         client,
		prefix:         prefix,
		logger:         logger,
		circuitBreaker: NewCircuitBreaker(5, 30*time.Second),
	}
}

// Client exposes the underlying client for health checks
func (r *RedisClient) Client() redis.UniversalClient {
	return r.client
}

// Ping tests Redis connection
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.guard(func() error {
		return r.client.Ping(ctx).Err()
	})
}

// Get retrieves a value from Redis with circuit breaker protection
func (r *RedisClient) Get(ctx context.Context, key string) ([]byte, error) {
	var result []byte
	err := r.guard(func() error {
		var err error
		result, err = r.client.Get(ctx, r.key(key)).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrKeyNotFound
		}
		return err
	})
	if err != nil && !errors.Is(err, ErrKeyNotFound) {
		r.logger.Error("Redis GET failed", zap.String("key", key), zap.Error(err))
	}
	return result, err
}

// Set stores a value in Redis with TTL
func (r *RedisClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := r.guard(func() error {
		return r.client.Set(ctx, r.key(key), value, ttl).Err()
	})
	if err != nil {
		r.logger.Error("Redis SET failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Delete removes keys from Redis
func (r *RedisClient) Delete(ctx context.Context, keys ...string) error {
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = r.key(k)
	}

	err := r.guard(func() error {
		return r.client.Del(ctx, prefixed...).Err()
	})
	if err != nil {
		r.logger.Error("Redis DEL failed", zap.Strings("keys", keys), zap.Error(err))
	}
	return err
}

// Exists checks if a key exists in Redis
func (r *RedisClient) Exists(ctx context.Context, key string) (bool, error) {
	var n int64
	err := r.guard(func() error {
		var err error
		n, err = r.client.Exists(ctx, r.key(key)).Result()
		return err
	})
	if err != nil {
		r.logger.Error("Redis EXISTS failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	return n > 0, nil
}

// Close closes the client
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// guard runs fn behind the circuit breaker. Misses do not count as failures.
func (r *RedisClient) guard(fn func() error) error {
	if !r.circuitBreaker.AllowRequest() {
		return ErrCircuitOpen
	}

	err := fn()
	if err != nil && !errors.Is(err, ErrKeyNotFound) {
		r.circuitBreaker.RecordFailure()
		return err
	}

	r.circuitBreaker.RecordSuccess()
	return err
}

func (r *RedisClient) key(k string) string {
	return r.prefix + k
}
