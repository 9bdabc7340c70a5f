package events

import (
	"context"

	"github.com/cookscabinet/cabinet/internal/domain/recipe"
	"github.com/cookscabinet/cabinet/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventCounter counts events by name
type EventCounter interface {
	RecipeEvent(name string)
}

// ImageInvalidator purges cached copies of a recipe image at the edge
type ImageInvalidator interface {
	InvalidateRecipeImage(ctx context.Context, id uuid.UUID) error
}

// LogHandler writes every event to the log
func LogHandler(logger *zap.Logger) shared.EventHandler {
	return func(ctx context.Context, event shared.DomainEvent) error {
		logger.Info("Domain event",
			zap.String("event", event.EventName()),
			zap.Time("occurred_at", event.OccurredAt()))
		return nil
	}
}

// MetricsHandler counts every event
func MetricsHandler(counter EventCounter) shared.EventHandler {
	return func(ctx context.Context, event shared.DomainEvent) error {
		counter.RecipeEvent(event.EventName())
		return nil
	}
}

// ImageInvalidationHandler purges edge caches when a recipe image changes or
// the recipe is deleted
func ImageInvalidationHandler(invalidator ImageInvalidator) shared.EventHandler {
	return func(ctx context.Context, event shared.DomainEvent) error {
		switch e := event.(type) {
		case recipe.RecipeUpdatedEvent:
			if e.Field != "image" {
				return nil
			}
			return invalidator.InvalidateRecipeImage(ctx, e.RecipeID)
		case recipe.RecipeImageClearedEvent:
			return invalidator.InvalidateRecipeImage(ctx, e.RecipeID)
		case recipe.RecipeDeletedEvent:
			return invalidator.InvalidateRecipeImage(ctx, e.RecipeID)
		}
		return nil
	}
}

// Register wires the standard handlers onto d. counter and invalidator may be nil.
func Register(d *Dispatcher, logger *zap.Logger, counter EventCounter, invalidator ImageInvalidator) {
	d.Subscribe(Wildcard, LogHandler(logger.Named("events")))
	if counter != nil {
		d.Subscribe(Wildcard, MetricsHandler(counter))
	}
	if invalidator != nil {
		handler := ImageInvalidationHandler(invalidator)
		d.Subscribe(recipe.RecipeUpdatedEvent{}.EventName(), handler)
		d.Subscribe(recipe.RecipeImageClearedEvent{}.EventName(), handler)
		d.Subscribe(recipe.RecipeDeletedEvent{}.EventName(), handler)
	}
}
