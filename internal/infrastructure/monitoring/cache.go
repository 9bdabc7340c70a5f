package monitoring

import (
	"context"
	"database/sql"
	"time"

	"github.com/cookscabinet/cabinet/internal/ports/outbound"
)

// InstrumentedCache counts every call on the wrapped cache
type InstrumentedCache struct {
	next    outbound.CacheRepository
	metrics *MetricsCollector
}

var _ outbound.CacheRepository = (*InstrumentedCache)(nil)

// InstrumentCache wraps next with cache_operations_total accounting
func InstrumentCache(next outbound.CacheRepository, metrics *MetricsCollector) *InstrumentedCache {
	return &InstrumentedCache{next: next, metrics: metrics}
}

func (c *InstrumentedCache) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := c.next.Get(ctx, key)
	c.metrics.CacheOperation("get", err, outbound.ErrCacheMiss)
	return v, err
}

func (c *InstrumentedCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := c.next.Set(ctx, key, value, ttl)
	c.metrics.CacheOperation("set", err, nil)
	return err
}

func (c *InstrumentedCache) Delete(ctx context.Context, key string) error {
	err := c.next.Delete(ctx, key)
	c.metrics.CacheOperation("delete", err, nil)
	return err
}

func (c *InstrumentedCache) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := c.next.Exists(ctx, key)
	c.metrics.CacheOperation("exists", err, nil)
	return ok, err
}

// StatsSource reports connection pool statistics
type StatsSource interface {
	Stats() sql.DBStats
}

// ReportDBStats samples pool usage every interval until ctx is done
func (m *MetricsCollector) ReportDBStats(ctx context.Context, db StatsSource, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		stats := db.Stats()
		m.UpdateDBConnections(stats.InUse, stats.Idle)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
