// Package testutils provides mock implementations for testing
package testutils

import (
	"context"
	"time"

	"github.com/cookscabinet/cabinet/internal/domain/recipe"
	"github.com/cookscabinet/cabinet/internal/domain/shared"
	"github.com/cookscabinet/cabinet/internal/ports/inbound"
	"github.com/cookscabinet/cabinet/internal/ports/outbound"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockRecipeRepository provides a mock implementation of RecipeRepository
type MockRecipeRepository struct {
	mock.Mock
}

var _ outbound.RecipeRepository = (*MockRecipeRepository)(nil)

// Create creates a recipe
func (m *MockRecipeRepository) Create(ctx context.Context, r *recipe.Recipe) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

// Update updates a recipe
func (m *MockRecipeRepository) Update(ctx context.Context, r *recipe.Recipe) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

// Delete deletes a recipe
func (m *MockRecipeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// FindByID finds a recipe by ID
func (m *MockRecipeRepository) FindByID(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*recipe.Recipe), args.Error(1)
}

// List lists recipes
func (m *MockRecipeRepository) List(ctx context.Context, opts outbound.ListOptions) ([]*recipe.Recipe, int64, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*recipe.Recipe), args.Get(1).(int64), args.Error(2)
}

// Count counts recipes
func (m *MockRecipeRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockCacheRepository provides a mock implementation of CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

var _ outbound.CacheRepository = (*MockCacheRepository)(nil)

// Get gets a cached value
func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Set stores a value
func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

// Delete removes a value
func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// Exists reports whether a key is cached
func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mock.Mock
}

var _ outbound.EventPublisher = (*MockEventPublisher)(nil)

// Publish publishes events
func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// MockRecipeInferrer provides a mock vision model
type MockRecipeInferrer struct {
	mock.Mock
}

var _ outbound.RecipeInferrer = (*MockRecipeInferrer)(nil)

// InferRecipe returns the mocked model response
func (m *MockRecipeInferrer) InferRecipe(ctx context.Context, req outbound.InferenceRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// MockImageGenerator provides a mock image generation model
type MockImageGenerator struct {
	mock.Mock
}

var _ outbound.ImageGenerator = (*MockImageGenerator)(nil)

// GenerateImage returns the mocked generated image
func (m *MockImageGenerator) GenerateImage(ctx context.Context, prompt string) (*outbound.GeneratedImage, error) {
	args := m.Called(ctx, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbound.GeneratedImage), args.Error(1)
}

// MockImageFetcher provides a mock image downloader
type MockImageFetcher struct {
	mock.Mock
}

var _ outbound.ImageFetcher = (*MockImageFetcher)(nil)

// Fetch returns the mocked image bytes
func (m *MockImageFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockImageStore provides a mock object store
type MockImageStore struct {
	mock.Mock
}

var _ outbound.ImageStore = (*MockImageStore)(nil)

// Put stores an object
func (m *MockImageStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	args := m.Called(ctx, key, data, contentType)
	return args.Error(0)
}

// Get loads an object
func (m *MockImageStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Delete removes an object
func (m *MockImageStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// MockRecipeService provides a mock implementation of the recipe use cases
type MockRecipeService struct {
	mock.Mock
}

var _ inbound.RecipeService = (*MockRecipeService)(nil)

// CreateRecipe mocks recipe creation
func (m *MockRecipeService) CreateRecipe(ctx context.Context, cmd inbound.CreateRecipeCommand) (*inbound.RecipeDTO, error) {
	args := m.Called(ctx, cmd)
	return dtoOrNil(args.Get(0)), args.Error(1)
}

// UpdateRecipe mocks recipe updates
func (m *MockRecipeService) UpdateRecipe(ctx context.Context, cmd inbound.UpdateRecipeCommand) (*inbound.RecipeDTO, error) {
	args := m.Called(ctx, cmd)
	return dtoOrNil(args.Get(0)), args.Error(1)
}

// DeleteRecipe mocks recipe deletion
func (m *MockRecipeService) DeleteRecipe(ctx context.Context, recipeID uuid.UUID) error {
	args := m.Called(ctx, recipeID)
	return args.Error(0)
}

// SetRecipeImage mocks image replacement
func (m *MockRecipeService) SetRecipeImage(ctx context.Context, recipeID uuid.UUID, image []byte) (*inbound.RecipeDTO, error) {
	args := m.Called(ctx, recipeID, image)
	return dtoOrNil(args.Get(0)), args.Error(1)
}

// ClearRecipeImage mocks image removal
func (m *MockRecipeService) ClearRecipeImage(ctx context.Context, recipeID uuid.UUID) (*inbound.RecipeDTO, error) {
	args := m.Called(ctx, recipeID)
	return dtoOrNil(args.Get(0)), args.Error(1)
}

// GetRecipe mocks recipe lookup
func (m *MockRecipeService) GetRecipe(ctx context.Context, recipeID uuid.UUID) (*inbound.RecipeDTO, error) {
	args := m.Called(ctx, recipeID)
	return dtoOrNil(args.Get(0)), args.Error(1)
}

// GetRecipeImage mocks image lookup
func (m *MockRecipeService) GetRecipeImage(ctx context.Context, recipeID uuid.UUID) (*inbound.RecipeImage, error) {
	args := m.Called(ctx, recipeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbound.RecipeImage), args.Error(1)
}

// ListRecipes mocks recipe listing
func (m *MockRecipeService) ListRecipes(ctx context.Context, params inbound.ListParams) (*inbound.RecipeList, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbound.RecipeList), args.Error(1)
}

// MockGenerationService provides a mock photo to recipe pipeline
type MockGenerationService struct {
	mock.Mock
}

var _ inbound.GenerationService = (*MockGenerationService)(nil)

// GenerateFromImage mocks recipe generation
func (m *MockGenerationService) GenerateFromImage(ctx context.Context, cmd inbound.GenerateRecipeCommand) (*inbound.RecipeDTO, error) {
	args := m.Called(ctx, cmd)
	return dtoOrNil(args.Get(0)), args.Error(1)
}

func dtoOrNil(v interface{}) *inbound.RecipeDTO {
	if v == nil {
		return nil
	}
	return v.(*inbound.RecipeDTO)
}
