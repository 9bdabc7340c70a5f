// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/cookscabinet/cabinet/internal/domain/recipe"
	"github.com/cookscabinet/cabinet/internal/domain/shared"
	"github.com/google/uuid"
)

// Common errors returned by adapters
var (
	ErrRecipeNotFound = recipe.ErrRecipeNotFound
	ErrCacheMiss      = errors.New("cache miss")
	ErrObjectNotFound = errors.New("object not found")
)

// RecipeRepository defines the interface for recipe persistence
type RecipeRepository interface {
	Create(ctx context.Context, recipe *recipe.Recipe) error
	Update(ctx context.Context, recipe *recipe.Recipe) error
	Delete(ctx context.Context, id uuid.UUID) error
	// FindByID loads the full record including the image payload
	FindByID(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error)
	// List returns recipes ordered by title without image payloads
	List(ctx context.Context, opts ListOptions) ([]*recipe.Recipe, int64, error)
	Count(ctx context.Context) (int64, error)
}

// ListOptions controls pagination of recipe listings
type ListOptions struct {
	Offset int
	Limit  int
	// Query filters titles containing the text, case-insensitively
	Query string
}

// CacheRepository defines the interface for caching
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ImageStore keeps image blobs outside the database
type ImageStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// EventPublisher delivers domain events to interested handlers
type EventPublisher interface {
	Publish(ctx context.Context, events ...shared.DomainEvent) error
}
