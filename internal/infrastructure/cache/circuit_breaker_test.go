package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(3, 30*time.Second)
	cb.now = func() time.Time { return now }

	t.Run("opens after max failures", func(t *testing.T) {
		cb.RecordFailure()
		cb.RecordFailure()
		assert.True(t, cb.AllowRequest())
		assert.Equal(t, CircuitClosed, cb.State())

		cb.RecordFailure()

		assert.Equal(t, CircuitOpen, cb.State())
		assert.False(t, cb.AllowRequest())
	})

	t.Run("half opens after timeout", func(t *testing.T) {
		now = now.Add(31 * time.Second)

		assert.True(t, cb.AllowRequest())
		assert.Equal(t, CircuitHalfOpen, cb.State())
	})

	t.Run("failed probe reopens", func(t *testing.T) {
		cb.RecordFailure()

		assert.Equal(t, CircuitOpen, cb.State())
		assert.False(t, cb.AllowRequest())
	})

	t.Run("successful probe closes", func(t *testing.T) {
		now = now.Add(31 * time.Second)
		assert.True(t, cb.AllowRequest())

		cb.RecordSuccess()

		assert.Equal(t, CircuitClosed, cb.State())
		assert.Equal(t, "closed", cb.State().String())
	})
}
