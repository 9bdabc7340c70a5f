// Package ai provides health check integration for AI providers
package ai

import (
	"context"

	"github.com/cookscabinet/cabinet/pkg/healthcheck"
	"go.uber.org/zap"
)

// Pinger is implemented by provider clients that can confirm reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker reports the state of the configured AI provider
type HealthChecker struct {
	provider   string
	pinger     Pinger
	configured func() bool
	logger     *zap.Logger
}

var _ healthcheck.Checker = (*HealthChecker)(nil)

// NewHealthChecker creates a checker for provider. configured may be nil when
// the provider needs no credentials.
func NewHealthChecker(provider string, pinger Pinger, configured func() bool, logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		provider:   provider,
		pinger:     pinger,
		configured: configured,
		logger:     logger.Named("ai-health"),
	}
}

// Check implements healthcheck.Checker. A missing key degrades rather than
// fails readiness since recipe CRUD still works without AI.
func (h *HealthChecker) Check(ctx context.Context) healthcheck.Check {
	check := healthcheck.Check{
		Name:     "ai",
		Status:   healthcheck.StatusHealthy,
		Metadata: map[string]interface{}{"provider": h.provider},
	}

	if h.configured != nil && !h.configured() {
		check.Status = healthcheck.StatusDegraded
		check.Message = "AI provider credentials are not configured"
		return check
	}

	if err := h.pinger.Ping(ctx); err != nil {
		h.logger.Warn("AI provider health check failed", zap.String("provider", h.provider), zap.Error(err))
		check.Status = healthcheck.StatusDegraded
		check.Message = err.Error()
		return check
	}

	check.Message = "AI provider reachable"
	return check
}
