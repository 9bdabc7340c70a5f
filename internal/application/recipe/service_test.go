package recipe

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	domain "github.com/cookscabinet/cabinet/internal/domain/recipe"
	"github.com/cookscabinet/cabinet/internal/domain/shared"
	"github.com/cookscabinet/cabinet/internal/ports/inbound"
	"github.com/cookscabinet/cabinet/internal/ports/outbound"
	"github.com/cookscabinet/cabinet/pkg/errors"
	"github.com/cookscabinet/cabinet/test/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type RecipeServiceTestSuite struct {
	suite.Suite
	repo    *testutils.MockRecipeRepository
	cache   *testutils.MockCacheRepository
	events  *testutils.MockEventPublisher
	service *RecipeService
	factory *testutils.RecipeFactory
	ctx     context.Context
}

func (suite *RecipeServiceTestSuite) SetupTest() {
	suite.repo = new(testutils.MockRecipeRepository)
	suite.cache = new(testutils.MockCacheRepository)
	suite.events = new(testutils.MockEventPublisher)
	suite.factory = testutils.NewRecipeFactory(99)
	suite.ctx = context.Background()

	suite.service = NewRecipeService(suite.repo, suite.cache, suite.events, Config{CacheTTL: time.Minute}, zap.NewNop())
}

func (suite *RecipeServiceTestSuite) TearDownTest() {
	suite.repo.AssertExpectations(suite.T())
	suite.cache.AssertExpectations(suite.T())
	suite.events.AssertExpectations(suite.T())
}

func publishedNames(names ...string) interface{} {
	return mock.MatchedBy(func(events []shared.DomainEvent) bool {
		if len(events) != len(names) {
			return false
		}
		for i, e := range events {
			if e.EventName() != names[i] {
				return false
			}
		}
		return true
	})
}

func (suite *RecipeServiceTestSuite) TestCreateRecipe_Success() {
	cmd := inbound.CreateRecipeCommand{
		Title:        "  Shakshuka ",
		Description:  "Eggs poached in spiced tomato sauce",
		Ingredients:  []string{"4 eggs", "1 can tomatoes"},
		Instructions: []string{"Simmer the sauce.", "Crack in the eggs."},
		Image:        testutils.JPEGFixture(4, 4),
	}

	suite.repo.On("Create", suite.ctx, mock.AnythingOfType("*recipe.Recipe")).Return(nil).Once()
	suite.events.On("Publish", suite.ctx, publishedNames("recipe.created")).Return(nil).Once()

	dto, err := suite.service.CreateRecipe(suite.ctx, cmd)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Shakshuka", dto.Title)
	assert.Equal(suite.T(), cmd.Ingredients, dto.Ingredients)
	assert.Equal(suite.T(), cmd.Instructions, dto.Instructions)
	assert.True(suite.T(), dto.HasImage)
	assert.Equal(suite.T(), domain.Digest(cmd.Image), dto.ImageDigest)
}

func (suite *RecipeServiceTestSuite) TestCreateRecipe_ValidationFailure() {
	dto, err := suite.service.CreateRecipe(suite.ctx, inbound.CreateRecipeCommand{Title: ""})

	assert.Nil(suite.T(), dto)
	assert.Equal(suite.T(), errors.CodeValidationFailed, errors.GetCode(err))
	suite.repo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *RecipeServiceTestSuite) TestCreateRecipe_DomainValidationFailure() {
	// Whitespace passes the struct tags but not the domain rules
	dto, err := suite.service.CreateRecipe(suite.ctx, inbound.CreateRecipeCommand{Title: "   "})

	assert.Nil(suite.T(), dto)
	assert.Equal(suite.T(), errors.CodeValidationFailed, errors.GetCode(err))
	assert.ErrorIs(suite.T(), err, domain.ErrTitleRequired)
}

func (suite *RecipeServiceTestSuite) TestCreateRecipe_DatabaseFailure() {
	suite.repo.On("Create", suite.ctx, mock.Anything).Return(stderrors.New("disk full")).Once()

	_, err := suite.service.CreateRecipe(suite.ctx, inbound.CreateRecipeCommand{Title: "Soup"})

	assert.Equal(suite.T(), errors.CodeDatabaseError, errors.GetCode(err))
	suite.events.AssertNotCalled(suite.T(), "Publish", mock.Anything, mock.Anything)
}

func (suite *RecipeServiceTestSuite) TestCreateRecipe_PublishFailureIsNotReturned() {
	suite.repo.On("Create", suite.ctx, mock.Anything).Return(nil).Once()
	suite.events.On("Publish", suite.ctx, mock.Anything).Return(stderrors.New("bus down")).Once()

	dto, err := suite.service.CreateRecipe(suite.ctx, inbound.CreateRecipeCommand{Title: "Soup"})

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Soup", dto.Title)
}

func (suite *RecipeServiceTestSuite) TestGetRecipe_CacheMissLoadsAndCaches() {
	r := suite.factory.Recipe()
	key := "recipe:" + r.ID().String()

	suite.cache.On("Get", suite.ctx, key).Return(nil, outbound.ErrCacheMiss).Once()
	suite.repo.On("FindByID", mock.Anything, r.ID()).Return(r, nil).Once()
	suite.cache.On("Set", mock.Anything, key, mock.Anything, time.Minute).Return(nil).Once()

	dto, err := suite.service.GetRecipe(suite.ctx, r.ID())

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), r.ID(), dto.ID)
	assert.Equal(suite.T(), r.Title(), dto.Title)
}

func (suite *RecipeServiceTestSuite) TestGetRecipe_CacheHit() {
	cached := inbound.RecipeDTO{ID: uuid.New(), Title: "Cached"}
	data, err := json.Marshal(cached)
	require.NoError(suite.T(), err)

	suite.cache.On("Get", suite.ctx, "recipe:"+cached.ID.String()).Return(data, nil).Once()

	dto, err := suite.service.GetRecipe(suite.ctx, cached.ID)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Cached", dto.Title)
	suite.repo.AssertNotCalled(suite.T(), "FindByID", mock.Anything, mock.Anything)
}

func (suite *RecipeServiceTestSuite) TestGetRecipe_NotFound() {
	id := uuid.New()
	suite.cache.On("Get", suite.ctx, "recipe:"+id.String()).Return(nil, outbound.ErrCacheMiss).Once()
	suite.repo.On("FindByID", mock.Anything, id).Return(nil, outbound.ErrRecipeNotFound).Once()

	_, err := suite.service.GetRecipe(suite.ctx, id)

	assert.Equal(suite.T(), errors.CodeRecipeNotFound, errors.GetCode(err))
}

func (suite *RecipeServiceTestSuite) TestUpdateRecipe_AppliesOnlyProvidedFields() {
	r := suite.factory.Recipe()
	originalIngredients := r.Ingredients()
	title := "Renamed"
	steps := []string{"Only step."}

	suite.repo.On("FindByID", suite.ctx, r.ID()).Return(r, nil).Once()
	suite.repo.On("Update", suite.ctx, r).Return(nil).Once()
	suite.cache.On("Delete", suite.ctx, "recipe:"+r.ID().String()).Return(nil).Once()
	suite.events.On("Publish", suite.ctx, publishedNames("recipe.updated", "recipe.updated")).Return(nil).Once()

	dto, err := suite.service.UpdateRecipe(suite.ctx, inbound.UpdateRecipeCommand{
		RecipeID:     r.ID(),
		Title:        &title,
		Instructions: &steps,
	})

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Renamed", dto.Title)
	assert.Equal(suite.T(), steps, dto.Instructions)
	assert.Equal(suite.T(), originalIngredients, dto.Ingredients)
}

func (suite *RecipeServiceTestSuite) TestUpdateRecipe_InvalidIngredientRejected() {
	r := suite.factory.Recipe()
	ingredients := []string{"salt", "   "}

	suite.repo.On("FindByID", suite.ctx, r.ID()).Return(r, nil).Once()

	_, err := suite.service.UpdateRecipe(suite.ctx, inbound.UpdateRecipeCommand{
		RecipeID:    r.ID(),
		Ingredients: &ingredients,
	})

	assert.Equal(suite.T(), errors.CodeValidationFailed, errors.GetCode(err))
	suite.repo.AssertNotCalled(suite.T(), "Update", mock.Anything, mock.Anything)
}

func (suite *RecipeServiceTestSuite) TestSetRecipeImage() {
	r := suite.factory.Recipe()
	img := testutils.PNGFixture(2, 2)

	suite.repo.On("FindByID", suite.ctx, r.ID()).Return(r, nil).Once()
	suite.repo.On("Update", suite.ctx, r).Return(nil).Once()
	suite.cache.On("Delete", suite.ctx, "recipe:"+r.ID().String()).Return(nil).Once()
	suite.events.On("Publish", suite.ctx, publishedNames("recipe.updated")).Return(nil).Once()

	dto, err := suite.service.SetRecipeImage(suite.ctx, r.ID(), img)

	require.NoError(suite.T(), err)
	assert.True(suite.T(), dto.HasImage)
	assert.Equal(suite.T(), domain.Digest(img), dto.ImageDigest)
}

func (suite *RecipeServiceTestSuite) TestSetRecipeImage_EmptyRejected() {
	_, err := suite.service.SetRecipeImage(suite.ctx, uuid.New(), nil)

	assert.Equal(suite.T(), errors.CodeValidationFailed, errors.GetCode(err))
}

func (suite *RecipeServiceTestSuite) TestClearRecipeImage() {
	r := suite.factory.RecipeWithImage()

	suite.repo.On("FindByID", suite.ctx, r.ID()).Return(r, nil).Once()
	suite.repo.On("Update", suite.ctx, r).Return(nil).Once()
	suite.cache.On("Delete", suite.ctx, "recipe:"+r.ID().String()).Return(nil).Once()
	suite.events.On("Publish", suite.ctx, publishedNames("recipe.image.cleared")).Return(nil).Once()

	dto, err := suite.service.ClearRecipeImage(suite.ctx, r.ID())

	require.NoError(suite.T(), err)
	assert.False(suite.T(), dto.HasImage)
	assert.Empty(suite.T(), dto.ImageDigest)
}

func (suite *RecipeServiceTestSuite) TestGetRecipeImage() {
	r := suite.factory.RecipeWithImage()
	suite.repo.On("FindByID", suite.ctx, r.ID()).Return(r, nil).Once()

	img, err := suite.service.GetRecipeImage(suite.ctx, r.ID())

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), r.Image(), img.Data)
	assert.Equal(suite.T(), r.ImageDigest(), img.Digest)
	assert.Equal(suite.T(), "image/jpeg", img.ContentType)
}

func (suite *RecipeServiceTestSuite) TestGetRecipeImage_NoImage() {
	r := suite.factory.Recipe()
	suite.repo.On("FindByID", suite.ctx, r.ID()).Return(r, nil).Once()

	_, err := suite.service.GetRecipeImage(suite.ctx, r.ID())

	assert.Equal(suite.T(), errors.CodeRecipeImageNotFound, errors.GetCode(err))
}

func (suite *RecipeServiceTestSuite) TestDeleteRecipe() {
	r := suite.factory.Recipe()

	suite.repo.On("FindByID", suite.ctx, r.ID()).Return(r, nil).Once()
	suite.repo.On("Delete", suite.ctx, r.ID()).Return(nil).Once()
	suite.cache.On("Delete", suite.ctx, "recipe:"+r.ID().String()).Return(nil).Once()
	suite.events.On("Publish", suite.ctx, publishedNames("recipe.deleted")).Return(nil).Once()

	err := suite.service.DeleteRecipe(suite.ctx, r.ID())

	require.NoError(suite.T(), err)
}

func (suite *RecipeServiceTestSuite) TestDeleteRecipe_NotFound() {
	id := uuid.New()
	suite.repo.On("FindByID", suite.ctx, id).Return(nil, outbound.ErrRecipeNotFound).Once()

	err := suite.service.DeleteRecipe(suite.ctx, id)

	assert.Equal(suite.T(), errors.CodeRecipeNotFound, errors.GetCode(err))
}

func (suite *RecipeServiceTestSuite) TestListRecipes_Pagination() {
	recipes := suite.factory.Recipes(3)

	suite.repo.On("List", suite.ctx, outbound.ListOptions{Offset: 20, Limit: 20, Query: "soup"}).
		Return(recipes, int64(43), nil).Once()

	list, err := suite.service.ListRecipes(suite.ctx, inbound.ListParams{Page: 2, Query: "soup"})

	require.NoError(suite.T(), err)
	assert.Len(suite.T(), list.Recipes, 3)
	assert.Equal(suite.T(), int64(43), list.Total)
	assert.Equal(suite.T(), 2, list.Page)
	assert.Equal(suite.T(), 20, list.PageSize)
	assert.Equal(suite.T(), 3, list.TotalPages)
}

func (suite *RecipeServiceTestSuite) TestListRecipes_PageSizeOverMaxRejected() {
	_, err := suite.service.ListRecipes(suite.ctx, inbound.ListParams{PageSize: 500})

	assert.Equal(suite.T(), errors.CodeValidationFailed, errors.GetCode(err))
}

func TestRecipeServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RecipeServiceTestSuite))
}

func TestRecipeService_WorksWithoutCacheOrEvents(t *testing.T) {
	ctx := context.Background()
	repo := new(testutils.MockRecipeRepository)
	service := NewRecipeService(repo, nil, nil, Config{}, zap.NewNop())
	r := testutils.NewRecipeFactory(1).Recipe()

	repo.On("FindByID", mock.Anything, r.ID()).Return(r, nil).Twice()
	repo.On("Delete", ctx, r.ID()).Return(nil).Once()

	dto, err := service.GetRecipe(ctx, r.ID())
	require.NoError(t, err)
	assert.Equal(t, r.ID(), dto.ID)

	require.NoError(t, service.DeleteRecipe(ctx, r.ID()))
	repo.AssertExpectations(t)
}
