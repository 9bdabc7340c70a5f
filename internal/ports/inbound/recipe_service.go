// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RecipeService defines the use cases for recipe management
type RecipeService interface {
	// Commands - operations that modify state
	CreateRecipe(ctx context.Context, cmd CreateRecipeCommand) (*RecipeDTO, error)
	UpdateRecipe(ctx context.Context, cmd UpdateRecipeCommand) (*RecipeDTO, error)
	DeleteRecipe(ctx context.Context, recipeID uuid.UUID) error
	SetRecipeImage(ctx context.Context, recipeID uuid.UUID, image []byte) (*RecipeDTO, error)
	ClearRecipeImage(ctx context.Context, recipeID uuid.UUID) (*RecipeDTO, error)

	// Queries - operations that read state
	GetRecipe(ctx context.Context, recipeID uuid.UUID) (*RecipeDTO, error)
	GetRecipeImage(ctx context.Context, recipeID uuid.UUID) (*RecipeImage, error)
	ListRecipes(ctx context.Context, params ListParams) (*RecipeList, error)
}

// GenerationService runs the photo to recipe chain
type GenerationService interface {
	GenerateFromImage(ctx context.Context, cmd GenerateRecipeCommand) (*RecipeDTO, error)
}

// CreateRecipeCommand contains data for creating a new recipe
type CreateRecipeCommand struct {
	Title        string   `json:"title" validate:"required,max=200"`
	Description  string   `json:"description" validate:"max=2000"`
	Ingredients  []string `json:"ingredients" validate:"max=100,dive,required"`
	Instructions []string `json:"instructions" validate:"max=100,dive,required,max=1000"`
	Image        []byte   `json:"image,omitempty"`
}

// UpdateRecipeCommand contains data for updating a recipe. Nil fields are left unchanged.
type UpdateRecipeCommand struct {
	RecipeID     uuid.UUID `json:"-" validate:"required"`
	Title        *string   `json:"title,omitempty" validate:"omitempty,max=200"`
	Description  *string   `json:"description,omitempty" validate:"omitempty,max=2000"`
	Ingredients  *[]string `json:"ingredients,omitempty" validate:"omitempty,max=100,dive,required"`
	Instructions *[]string `json:"instructions,omitempty" validate:"omitempty,max=100,dive,required,max=1000"`
	Image        *[]byte   `json:"image,omitempty"`
}

// GenerateRecipeCommand carries the source photo for AI generation
type GenerateRecipeCommand struct {
	Image []byte `validate:"required"`
	// Prompt overrides the default request text
	Prompt string `validate:"max=1000"`
}

// ListParams contains pagination parameters
type ListParams struct {
	Page     int    `form:"page" validate:"min=0"`
	PageSize int    `form:"page_size" validate:"min=0,max=100"`
	Query    string `form:"q" validate:"max=200"`
}

// RecipeDTO is the API shape of a recipe
type RecipeDTO struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Ingredients  []string  `json:"ingredients"`
	Instructions []string  `json:"instructions"`
	HasImage     bool      `json:"has_image"`
	ImageDigest  string    `json:"image_digest,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RecipeImage is an image payload with its digest
type RecipeImage struct {
	Data        []byte
	Digest      string
	ContentType string
}

// RecipeList represents a paginated list of recipes
type RecipeList struct {
	Recipes    []*RecipeDTO `json:"recipes"`
	Total      int64        `json:"total"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalPages int          `json:"total_pages"`
}
