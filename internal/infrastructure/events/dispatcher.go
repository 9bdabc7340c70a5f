// Package events delivers domain events to in-process handlers
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cookscabinet/cabinet/internal/domain/shared"
	"github.com/cookscabinet/cabinet/internal/ports/outbound"
	"go.uber.org/zap"
)

// Wildcard subscribes a handler to every event
const Wildcard = "*"

// Dispatcher routes domain events by name to subscribed handlers.
// Delivery is synchronous and in registration order.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]shared.EventHandler
	logger   *zap.Logger
}

var _ outbound.EventPublisher = (*Dispatcher)(nil)

// NewDispatcher creates an empty dispatcher
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string][]shared.EventHandler),
		logger:   logger.Named("events"),
	}
}

// Subscribe registers handler for the named event, or every event for Wildcard
func (d *Dispatcher) Subscribe(name string, handler shared.EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = append(d.handlers[name], handler)
}

// Publish delivers each event to its handlers. Every handler runs even when
// an earlier one fails; failures are joined into the returned error.
func (d *Dispatcher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	var errs []error

	for _, event := range events {
		for _, handler := range d.handlersFor(event.EventName()) {
			if err := d.invoke(ctx, handler, event); err != nil {
				d.logger.Warn("Event handler failed",
					zap.String("event", event.EventName()),
					zap.Error(err))
				errs = append(errs, fmt.Errorf("%s: %w", event.EventName(), err))
			}
		}
	}

	return errors.Join(errs...)
}

func (d *Dispatcher) handlersFor(name string) []shared.EventHandler {
	d.mu.RLock()
	defer d.mu.RUnlock()

	handlers := make([]shared.EventHandler, 0, len(d.handlers[name])+len(d.handlers[Wildcard]))
	handlers = append(handlers, d.handlers[name]...)
	handlers = append(handlers, d.handlers[Wildcard]...)
	return handlers
}

func (d *Dispatcher) invoke(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, event)
}
