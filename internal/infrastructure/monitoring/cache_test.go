package monitoring

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/cookscabinet/cabinet/internal/ports/outbound"
	"github.com/cookscabinet/cabinet/test/testutils"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestInstrumentedCache_CountsOutcomes(t *testing.T) {
	metrics := NewMetricsCollector(nil, zap.NewNop())
	inner := new(testutils.MockCacheRepository)
	cache := InstrumentCache(inner, metrics)
	ctx := context.Background()

	inner.On("Get", mock.Anything, "hit").Return([]byte("v"), nil)
	inner.On("Get", mock.Anything, "miss").Return(nil, outbound.ErrCacheMiss)
	inner.On("Set", mock.Anything, "k", []byte("v"), time.Minute).Return(errors.New("down"))
	inner.On("Delete", mock.Anything, "k").Return(nil)

	_, _ = cache.Get(ctx, "hit")
	_, _ = cache.Get(ctx, "miss")
	_ = cache.Set(ctx, "k", []byte("v"), time.Minute)
	_ = cache.Delete(ctx, "k")

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheOperations.WithLabelValues("get", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheOperations.WithLabelValues("get", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheOperations.WithLabelValues("set", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheOperations.WithLabelValues("delete", "ok")))
	inner.AssertExpectations(t)
}

type fixedStats sql.DBStats

func (s fixedStats) Stats() sql.DBStats { return sql.DBStats(s) }

func TestReportDBStats_SamplesUntilCancelled(t *testing.T) {
	metrics := NewMetricsCollector(nil, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		metrics.ReportDBStats(ctx, fixedStats{InUse: 3, Idle: 2}, time.Hour)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.dbConnections.WithLabelValues("in_use")) == 3
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.dbConnections.WithLabelValues("idle")))

	cancel()
	<-done
}
