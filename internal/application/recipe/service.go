// Package recipe provides the application layer for recipe management
// This implements the use cases defined in the inbound ports
package recipe

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/cookscabinet/cabinet/internal/domain/recipe"
	"github.com/cookscabinet/cabinet/internal/ports/inbound"
	"github.com/cookscabinet/cabinet/internal/ports/outbound"
	"github.com/cookscabinet/cabinet/pkg/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultPageSize    = 20
	maxPageSize        = 100
	defaultLoadTimeout = 10 * time.Second
)

// Config tunes the recipe service
type Config struct {
	CacheTTL time.Duration
	// LoadTimeout bounds a shared cache-miss read, which outlives any one caller
	LoadTimeout time.Duration
}

// RecipeService implements the recipe use cases
type RecipeService struct {
	recipeRepo  outbound.RecipeRepository
	cache       outbound.CacheRepository
	events      outbound.EventPublisher
	validate    *validator.Validate
	loads       singleflight.Group
	cacheTTL    time.Duration
	loadTimeout time.Duration
	logger      *zap.Logger

	// invalidations counts cache invalidations; a load that saw it change drops its entry
	invalidations atomic.Uint64
}

var _ inbound.RecipeService = (*RecipeService)(nil)

// NewRecipeService creates a new recipe service. cache and events may be nil.
func NewRecipeService(
	recipeRepo outbound.RecipeRepository,
	cache outbound.CacheRepository,
	events outbound.EventPublisher,
	cfg Config,
	logger *zap.Logger,
) *RecipeService {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	loadTimeout := cfg.LoadTimeout
	if loadTimeout <= 0 {
		loadTimeout = defaultLoadTimeout
	}

	return &RecipeService{
		recipeRepo:  recipeRepo,
		cache:       cache,
		events:      events,
		validate:    validator.New(),
		cacheTTL:    ttl,
		loadTimeout: loadTimeout,
		logger:      logger.Named("recipe-service"),
	}
}

// CreateRecipe creates a new recipe
func (s *RecipeService) CreateRecipe(ctx context.Context, cmd inbound.CreateRecipeCommand) (*inbound.RecipeDTO, error) {
	s.logger.Info("Creating new recipe",
		zap.String("title", cmd.Title),
		zap.Int("ingredients", len(cmd.Ingredients)),
		zap.Int("instructions", len(cmd.Instructions)),
		zap.Bool("has_image", len(cmd.Image) > 0),
	)

	if err := s.validateCommand(cmd); err != nil {
		return nil, err
	}

	recipeEntity, err := recipe.NewRecipe(recipe.Details{
		Title:        cmd.Title,
		Description:  cmd.Description,
		Ingredients:  cmd.Ingredients,
		Instructions: cmd.Instructions,
		Image:        cmd.Image,
	})
	if err != nil {
		return nil, domainError(err, "failed to create recipe entity")
	}

	if err := s.recipeRepo.Create(ctx, recipeEntity); err != nil {
		return nil, errors.NewDatabaseError("create recipe", err)
	}

	s.publishEvents(ctx, recipeEntity)

	dto := entityToDTO(recipeEntity)

	s.logger.Info("Recipe created successfully",
		zap.String("recipe_id", dto.ID.String()),
		zap.String("title", dto.Title),
	)

	return dto, nil
}

// UpdateRecipe applies the non-nil fields of cmd to an existing recipe
func (s *RecipeService) UpdateRecipe(ctx context.Context, cmd inbound.UpdateRecipeCommand) (*inbound.RecipeDTO, error) {
	s.logger.Info("Updating recipe",
		zap.String("recipe_id", cmd.RecipeID.String()),
	)

	if err := s.validateCommand(cmd); err != nil {
		return nil, err
	}

	return s.mutate(ctx, cmd.RecipeID, func(r *recipe.Recipe) error {
		if cmd.Title != nil {
			if err := r.UpdateTitle(*cmd.Title); err != nil {
				return err
			}
		}
		if cmd.Description != nil {
			if err := r.UpdateDescription(*cmd.Description); err != nil {
				return err
			}
		}
		if cmd.Ingredients != nil {
			if err := r.SetIngredients(*cmd.Ingredients); err != nil {
				return err
			}
		}
		if cmd.Instructions != nil {
			if err := r.SetInstructions(*cmd.Instructions); err != nil {
				return err
			}
		}
		if cmd.Image != nil {
			r.SetImage(*cmd.Image)
		}
		return nil
	})
}

// SetRecipeImage replaces the image of a recipe
func (s *RecipeService) SetRecipeImage(ctx context.Context, recipeID uuid.UUID, image []byte) (*inbound.RecipeDTO, error) {
	if len(image) == 0 {
		return nil, errors.NewValidationError("image must not be empty")
	}

	s.logger.Info("Replacing recipe image",
		zap.String("recipe_id", recipeID.String()),
		zap.Int("bytes", len(image)),
	)

	return s.mutate(ctx, recipeID, func(r *recipe.Recipe) error {
		r.SetImage(image)
		return nil
	})
}

// ClearRecipeImage removes the image of a recipe
func (s *RecipeService) ClearRecipeImage(ctx context.Context, recipeID uuid.UUID) (*inbound.RecipeDTO, error) {
	s.logger.Info("Clearing recipe image",
		zap.String("recipe_id", recipeID.String()),
	)

	return s.mutate(ctx, recipeID, func(r *recipe.Recipe) error {
		r.ClearImage()
		return nil
	})
}

// DeleteRecipe deletes a recipe
func (s *RecipeService) DeleteRecipe(ctx context.Context, recipeID uuid.UUID) error {
	s.logger.Info("Deleting recipe",
		zap.String("recipe_id", recipeID.String()),
	)

	recipeEntity, err := s.load(ctx, recipeID)
	if err != nil {
		return err
	}

	if err := s.recipeRepo.Delete(ctx, recipeID); err != nil {
		if stderrors.Is(err, outbound.ErrRecipeNotFound) {
			return errors.NewRecipeNotFoundError(recipeID.String())
		}
		return errors.NewDatabaseError("delete recipe", err)
	}

	s.invalidateRecipeCache(ctx, recipeID)

	recipeEntity.MarkDeleted()
	s.publishEvents(ctx, recipeEntity)

	s.logger.Info("Recipe deleted successfully",
		zap.String("recipe_id", recipeID.String()),
	)

	return nil
}

// GetRecipe retrieves a recipe by ID, serving from cache when possible
func (s *RecipeService) GetRecipe(ctx context.Context, recipeID uuid.UUID) (*inbound.RecipeDTO, error) {
	key := recipeCacheKey(recipeID)

	if dto, ok := s.cachedRecipe(ctx, key); ok {
		return dto, nil
	}

	// Concurrent misses for the same recipe share one database read. The
	// read is detached from the first caller so its cancellation does not
	// fail the others.
	v, err, _ := s.loads.Do(key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.loadTimeout)
		defer cancel()

		seen := s.invalidations.Load()
		recipeEntity, err := s.load(loadCtx, recipeID)
		if err != nil {
			return nil, err
		}

		dto := entityToDTO(recipeEntity)
		s.cacheRecipe(loadCtx, key, dto)
		if s.invalidations.Load() != seen {
			// A write landed while this read was in flight
			s.dropCached(loadCtx, key)
		}
		return dto, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*inbound.RecipeDTO), nil
}

// GetRecipeImage returns the image bytes of a recipe
func (s *RecipeService) GetRecipeImage(ctx context.Context, recipeID uuid.UUID) (*inbound.RecipeImage, error) {
	recipeEntity, err := s.load(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	data := recipeEntity.Image()
	if len(data) == 0 {
		return nil, errors.NewRecipeImageNotFoundError(recipeID.String())
	}

	return &inbound.RecipeImage{
		Data:        data,
		Digest:      recipeEntity.ImageDigest(),
		ContentType: http.DetectContentType(data),
	}, nil
}

// ListRecipes lists recipes ordered by title
func (s *RecipeService) ListRecipes(ctx context.Context, params inbound.ListParams) (*inbound.RecipeList, error) {
	if err := s.validateCommand(params); err != nil {
		return nil, err
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	recipes, total, err := s.recipeRepo.List(ctx, outbound.ListOptions{
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
		Query:  params.Query,
	})
	if err != nil {
		return nil, errors.NewDatabaseError("list recipes", err)
	}

	dtos := make([]*inbound.RecipeDTO, len(recipes))
	for i, r := range recipes {
		dtos[i] = entityToDTO(r)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &inbound.RecipeList{
		Recipes:    dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// mutate loads a recipe, applies fn and persists the result
func (s *RecipeService) mutate(ctx context.Context, recipeID uuid.UUID, fn func(*recipe.Recipe) error) (*inbound.RecipeDTO, error) {
	recipeEntity, err := s.load(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	if err := fn(recipeEntity); err != nil {
		return nil, domainError(err, "failed to update recipe")
	}

	if err := s.recipeRepo.Update(ctx, recipeEntity); err != nil {
		if stderrors.Is(err, outbound.ErrRecipeNotFound) {
			return nil, errors.NewRecipeNotFoundError(recipeID.String())
		}
		return nil, errors.NewDatabaseError("update recipe", err)
	}

	s.invalidateRecipeCache(ctx, recipeID)
	s.publishEvents(ctx, recipeEntity)

	dto := entityToDTO(recipeEntity)

	s.logger.Info("Recipe updated successfully",
		zap.String("recipe_id", dto.ID.String()),
	)

	return dto, nil
}

func (s *RecipeService) load(ctx context.Context, recipeID uuid.UUID) (*recipe.Recipe, error) {
	recipeEntity, err := s.recipeRepo.FindByID(ctx, recipeID)
	if err != nil {
		if stderrors.Is(err, outbound.ErrRecipeNotFound) {
			return nil, errors.NewRecipeNotFoundError(recipeID.String())
		}
		return nil, errors.NewDatabaseError("find recipe", err)
	}
	if recipeEntity == nil {
		return nil, errors.NewRecipeNotFoundError(recipeID.String())
	}
	return recipeEntity, nil
}

func (s *RecipeService) publishEvents(ctx context.Context, r *recipe.Recipe) {
	events := r.Events()
	if s.events == nil || len(events) == 0 {
		return
	}

	// Persistence already succeeded; a failed publish is logged, not returned
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish events",
			zap.String("recipe_id", r.ID().String()),
			zap.Int("count", len(events)),
			zap.Error(err),
		)
	}
}

func (s *RecipeService) cachedRecipe(ctx context.Context, key string) (*inbound.RecipeDTO, bool) {
	if s.cache == nil {
		return nil, false
	}

	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !stderrors.Is(err, outbound.ErrCacheMiss) {
			s.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var dto inbound.RecipeDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		s.logger.Warn("Discarding corrupt cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &dto, true
}

func (s *RecipeService) cacheRecipe(ctx context.Context, key string, dto *inbound.RecipeDTO) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(dto)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		s.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *RecipeService) invalidateRecipeCache(ctx context.Context, recipeID uuid.UUID) {
	key := recipeCacheKey(recipeID)
	s.invalidations.Add(1)
	s.loads.Forget(key)
	s.dropCached(ctx, key)
}

func (s *RecipeService) dropCached(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Warn("Cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *RecipeService) validateCommand(cmd interface{}) error {
	err := s.validate.Struct(cmd)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return errors.NewValidationError(err.Error())
	}

	details := make([]errors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, errors.ValidationError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: fmt.Sprintf("%s failed the %q rule", fe.Field(), fe.Tag()),
		})
	}
	return errors.NewValidationErrors(details)
}

func domainError(err error, message string) error {
	if recipe.IsValidationError(err) {
		return errors.NewValidationError(err.Error()).WithCause(err)
	}
	return errors.Wrap(err, message)
}

func recipeCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("recipe:%s", id)
}

func entityToDTO(r *recipe.Recipe) *inbound.RecipeDTO {
	return &inbound.RecipeDTO{
		ID:           r.ID(),
		Title:        r.Title(),
		Description:  r.Description(),
		Ingredients:  r.Ingredients(),
		Instructions: r.Instructions(),
		HasImage:     r.HasImage(),
		ImageDigest:  r.ImageDigest(),
		CreatedAt:    r.CreatedAt(),
		UpdatedAt:    r.UpdatedAt(),
	}
}
