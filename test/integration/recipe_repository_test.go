//go:build integration

// Package integration runs the persistence and HTTP stack against a real postgres
package integration

import (
	"context"
	"testing"
	"time"

	"github.com/cookscabinet/cabinet/internal/domain/recipe"
	gormrepo "github.com/cookscabinet/cabinet/internal/infrastructure/persistence/gorm"
	"github.com/cookscabinet/cabinet/internal/ports/outbound"
	"github.com/cookscabinet/cabinet/test/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

// RecipeRepositoryIntegrationTestSuite exercises the GORM repository on postgres
type RecipeRepositoryIntegrationTestSuite struct {
	suite.Suite
	testDB  *testutils.TestDatabase
	repo    *gormrepo.RecipeRepository
	factory *testutils.RecipeFactory
	ctx     context.Context
}

func (suite *RecipeRepositoryIntegrationTestSuite) SetupSuite() {
	suite.ctx = context.Background()
	suite.testDB = testutils.SetupTestDatabase(suite.T())
	require.NoError(suite.T(), suite.testDB.RunMigrations(), "Failed to run database migrations")

	suite.repo = gormrepo.NewRecipeRepository(suite.testDB.GormDB, nil, zap.NewNop())
	suite.factory = testutils.NewRecipeFactory(time.Now().UnixNano())
}

func (suite *RecipeRepositoryIntegrationTestSuite) SetupTest() {
	require.NoError(suite.T(), suite.testDB.TruncateRecipes(suite.ctx), "Failed to clean database")
}

func (suite *RecipeRepositoryIntegrationTestSuite) TestCreateAndFind_RoundTripsImage() {
	original := suite.factory.RecipeWithImage()

	require.NoError(suite.T(), suite.repo.Create(suite.ctx, original))

	loaded, err := suite.repo.FindByID(suite.ctx, original.ID())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), original.Title(), loaded.Title())
	assert.Equal(suite.T(), original.Ingredients(), loaded.Ingredients())
	assert.Equal(suite.T(), original.Instructions(), loaded.Instructions())
	assert.Equal(suite.T(), original.Image(), loaded.Image())
	assert.Equal(suite.T(), original.ImageDigest(), loaded.ImageDigest())

	count, err := suite.testDB.CountRecipes(suite.ctx)
	require.NoError(suite.T(), err)
	assert.EqualValues(suite.T(), 1, count)
}

func (suite *RecipeRepositoryIntegrationTestSuite) TestFindByID_NotFound() {
	_, err := suite.repo.FindByID(suite.ctx, uuid.New())

	assert.ErrorIs(suite.T(), err, outbound.ErrRecipeNotFound)
}

func (suite *RecipeRepositoryIntegrationTestSuite) TestUpdate_ClearsImage() {
	r := suite.factory.RecipeWithImage()
	require.NoError(suite.T(), suite.repo.Create(suite.ctx, r))

	r.ClearImage()
	require.NoError(suite.T(), suite.repo.Update(suite.ctx, r))

	loaded, err := suite.repo.FindByID(suite.ctx, r.ID())
	require.NoError(suite.T(), err)
	assert.False(suite.T(), loaded.HasImage())
	assert.Empty(suite.T(), loaded.ImageDigest())
}

func (suite *RecipeRepositoryIntegrationTestSuite) TestList_OrdersByTitleAndFilters() {
	for _, title := range []string{"Zucchini Bread", "Apple Pie", "Banana Bread"} {
		details := suite.factory.Details()
		details.Title = title
		r, err := recipe.NewRecipe(details)
		require.NoError(suite.T(), err)
		require.NoError(suite.T(), suite.repo.Create(suite.ctx, r))
	}

	all, total, err := suite.repo.List(suite.ctx, outbound.ListOptions{Limit: 10})
	require.NoError(suite.T(), err)
	assert.EqualValues(suite.T(), 3, total)
	require.Len(suite.T(), all, 3)
	assert.Equal(suite.T(), "Banana Bread", all[0].Title())
	assert.Equal(suite.T(), "Zucchini Bread", all[1].Title())
	assert.Equal(suite.T(), "Apple Pie", all[2].Title())

	breads, total, err := suite.repo.List(suite.ctx, outbound.ListOptions{Limit: 10, Query: "bread"})
	require.NoError(suite.T(), err)
	assert.EqualValues(suite.T(), 2, total)
	assert.Len(suite.T(), breads, 2)

	page, _, err := suite.repo.List(suite.ctx, outbound.ListOptions{Offset: 1, Limit: 1})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), page, 1)
	assert.Equal(suite.T(), "Banana Bread", page[0].Title())
}

func (suite *RecipeRepositoryIntegrationTestSuite) TestDelete() {
	r := suite.factory.Recipe()
	require.NoError(suite.T(), suite.repo.Create(suite.ctx, r))

	require.NoError(suite.T(), suite.repo.Delete(suite.ctx, r.ID()))

	_, err := suite.repo.FindByID(suite.ctx, r.ID())
	assert.ErrorIs(suite.T(), err, outbound.ErrRecipeNotFound)
	assert.ErrorIs(suite.T(), suite.repo.Delete(suite.ctx, r.ID()), outbound.ErrRecipeNotFound)
}

func TestRecipeRepositoryIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(RecipeRepositoryIntegrationTestSuite))
}
