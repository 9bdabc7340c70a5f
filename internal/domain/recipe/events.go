package recipe

import (
	"time"

	"github.com/google/uuid"
)

// RecipeCreatedEvent is raised when a new recipe is created
type RecipeCreatedEvent struct {
	RecipeID  uuid.UUID
	Title     string
	HasImage  bool
	CreatedAt time.Time
}

func (e RecipeCreatedEvent) EventName() string {
	return "recipe.created"
}

func (e RecipeCreatedEvent) OccurredAt() time.Time {
	return e.CreatedAt
}

// RecipeUpdatedEvent is raised when any editable field of a recipe changes
type RecipeUpdatedEvent struct {
	RecipeID  uuid.UUID
	Field     string
	UpdatedAt time.Time
}

func (e RecipeUpdatedEvent) EventName() string {
	return "recipe.updated"
}

func (e RecipeUpdatedEvent) OccurredAt() time.Time {
	return e.UpdatedAt
}

// RecipeImageClearedEvent is raised when a recipe loses its image
type RecipeImageClearedEvent struct {
	RecipeID  uuid.UUID
	ClearedAt time.Time
}

func (e RecipeImageClearedEvent) EventName() string {
	return "recipe.image.cleared"
}

func (e RecipeImageClearedEvent) OccurredAt() time.Time {
	return e.ClearedAt
}

// RecipeDeletedEvent is raised when a recipe is deleted
type RecipeDeletedEvent struct {
	RecipeID  uuid.UUID
	Title     string
	DeletedAt time.Time
}

func (e RecipeDeletedEvent) EventName() string {
	return "recipe.deleted"
}

func (e RecipeDeletedEvent) OccurredAt() time.Time {
	return e.DeletedAt
}
