package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/cookscabinet/cabinet/pkg/healthcheck"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubPinger struct {
	err   error
	calls int
}

func (s *stubPinger) Ping(ctx context.Context) error {
	s.calls++
	return s.err
}

func TestHealthChecker(t *testing.T) {
	ctx := context.Background()

	t.Run("healthy", func(t *testing.T) {
		pinger := &stubPinger{}
		check := NewHealthChecker("ollama", pinger, nil, zap.NewNop()).Check(ctx)

		assert.Equal(t, healthcheck.StatusHealthy, check.Status)
		assert.Equal(t, 1, pinger.calls)
	})

	t.Run("unconfigured skips ping", func(t *testing.T) {
		pinger := &stubPinger{}
		check := NewHealthChecker("openai", pinger, func() bool { return false }, zap.NewNop()).Check(ctx)

		assert.Equal(t, healthcheck.StatusDegraded, check.Status)
		assert.Zero(t, pinger.calls)
	})

	t.Run("unreachable", func(t *testing.T) {
		pinger := &stubPinger{err: errors.New("connection refused")}
		check := NewHealthChecker("openai", pinger, func() bool { return true }, zap.NewNop()).Check(ctx)

		assert.Equal(t, healthcheck.StatusDegraded, check.Status)
		assert.Equal(t, "connection refused", check.Message)
	})
}
