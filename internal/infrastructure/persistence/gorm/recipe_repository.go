// Package gorm provides GORM-based repository implementations
package gorm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cookscabinet/cabinet/internal/domain/recipe"
	"github.com/cookscabinet/cabinet/internal/ports/outbound"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// listColumns excludes the image payload from listings
var listColumns = []string{
	"id", "title", "description", "ingredients", "instructions",
	"image_key", "image_digest", "created_at", "updated_at",
}

// RecipeRepository implements the recipe repository interface using GORM
type RecipeRepository struct {
	db     *gorm.DB
	images outbound.ImageStore
	logger *zap.Logger
}

var _ outbound.RecipeRepository = (*RecipeRepository)(nil)

// NewRecipeRepository creates a new recipe repository. When images is nil the
// image payload is stored inline in the recipes table.
func NewRecipeRepository(db *gorm.DB, images outbound.ImageStore, logger *zap.Logger) *RecipeRepository {
	return &RecipeRepository{
		db:     db,
		images: images,
		logger: logger.Named("recipe-repository"),
	}
}

// Create creates a new recipe
func (r *RecipeRepository) Create(ctx context.Context, rec *recipe.Recipe) error {
	model := RecipeToModel(rec)

	if err := r.storeImage(ctx, model, ""); err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if model.ImageKey != "" {
			r.deleteObject(ctx, model.ImageKey)
		}
		return fmt.Errorf("insert recipe: %w", err)
	}

	return nil
}

// Update updates an existing recipe
func (r *RecipeRepository) Update(ctx context.Context, rec *recipe.Recipe) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing RecipeModel
		if err := tx.Select("id", "image_key").First(&existing, "id = ?", rec.ID()).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return outbound.ErrRecipeNotFound
			}
			return err
		}

		model := RecipeToModel(rec)
		columns := []string{"title", "description", "ingredients", "instructions", "updated_at"}

		// A recipe loaded without its payload keeps the stored image
		if !(rec.HasImage() && len(model.Image) == 0) {
			if err := r.storeImage(ctx, model, existing.ImageKey); err != nil {
				return err
			}
			columns = append(columns, "image", "image_key", "image_digest")
		}

		return tx.Model(&RecipeModel{ID: model.ID}).Select(columns).Updates(model).Error
	})
}

// Delete deletes a recipe by ID
func (r *RecipeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	var existing RecipeModel
	err := r.db.WithContext(ctx).Select("id", "image_key").First(&existing, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return outbound.ErrRecipeNotFound
		}
		return err
	}

	result := r.db.WithContext(ctx).Delete(&RecipeModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return outbound.ErrRecipeNotFound
	}

	if existing.ImageKey != "" {
		r.deleteObject(ctx, existing.ImageKey)
	}

	return nil
}

// FindByID finds a recipe by ID, including its image payload
func (r *RecipeRepository) FindByID(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error) {
	var model RecipeModel

	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, outbound.ErrRecipeNotFound
		}
		return nil, err
	}

	if model.ImageKey != "" && r.images != nil {
		data, err := r.images.Get(ctx, model.ImageKey)
		switch {
		case errors.Is(err, outbound.ErrObjectNotFound):
			r.logger.Warn("Recipe image object missing",
				zap.String("recipe_id", id.String()),
				zap.String("key", model.ImageKey),
			)
		case err != nil:
			return nil, fmt.Errorf("load recipe image: %w", err)
		default:
			model.Image = data
		}
	}

	return ModelToRecipe(&model), nil
}

// likeEscaper makes user input match literally inside a LIKE pattern
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// List returns recipes ordered by title without their image payloads
func (r *RecipeRepository) List(ctx context.Context, opts outbound.ListOptions) ([]*recipe.Recipe, int64, error) {
	query := r.db.WithContext(ctx).Model(&RecipeModel{})

	if q := strings.TrimSpace(opts.Query); q != "" {
		query = query.Where(`LOWER(title) LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(strings.ToLower(q))+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Select(listColumns).Order("title ASC, id ASC")
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}

	var models []RecipeModel
	if err := query.Find(&models).Error; err != nil {
		return nil, 0, err
	}

	recipes := make([]*recipe.Recipe, len(models))
	for i := range models {
		recipes[i] = ModelToRecipe(&models[i])
	}

	return recipes, total, nil
}

// Count returns the number of stored recipes
func (r *RecipeRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&RecipeModel{}).Count(&count).Error
	return count, err
}

// storeImage moves the image payload of model into the object store when one
// is configured, releasing the previous object when the image was cleared.
func (r *RecipeRepository) storeImage(ctx context.Context, model *RecipeModel, previousKey string) error {
	if r.images == nil {
		model.ImageKey = ""
		return nil
	}

	if len(model.Image) == 0 {
		model.ImageKey = ""
		if previousKey != "" {
			r.deleteObject(ctx, previousKey)
		}
		return nil
	}

	key := ImageKey(model.ID)
	if err := r.images.Put(ctx, key, model.Image, http.DetectContentType(model.Image)); err != nil {
		return fmt.Errorf("store recipe image: %w", err)
	}

	model.ImageKey = key
	model.Image = nil
	return nil
}

func (r *RecipeRepository) deleteObject(ctx context.Context, key string) {
	if r.images == nil {
		return
	}
	if err := r.images.Delete(ctx, key); err != nil && !errors.Is(err, outbound.ErrObjectNotFound) {
		r.logger.Warn("Failed to delete recipe image object",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

// ImageKey is the object key of a recipe image
func ImageKey(id uuid.UUID) string {
	return "recipes/" + id.String()
}
