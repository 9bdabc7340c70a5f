// Package gorm provides mapping between domain entities and GORM models
package gorm

import (
	"github.com/cookscabinet/cabinet/internal/domain/recipe"
)

// RecipeToModel converts a domain recipe to a GORM model
func RecipeToModel(r *recipe.Recipe) *RecipeModel {
	return &RecipeModel{
		ID:           r.ID(),
		Title:        r.Title(),
		Description:  r.Description(),
		Ingredients:  StringSlice(r.Ingredients()),
		Instructions: StringSlice(r.Instructions()),
		Image:        r.Image(),
		ImageDigest:  r.ImageDigest(),
		CreatedAt:    r.CreatedAt(),
		UpdatedAt:    r.UpdatedAt(),
	}
}

// ModelToRecipe converts a GORM model to a domain recipe
func ModelToRecipe(m *RecipeModel) *recipe.Recipe {
	return recipe.Restore(recipe.Snapshot{
		ID:           m.ID,
		Title:        m.Title,
		Description:  m.Description,
		Ingredients:  []string(m.Ingredients),
		Instructions: []string(m.Instructions),
		Image:        m.Image,
		ImageDigest:  m.ImageDigest,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	})
}
