package gorm_test

import (
	"context"
	"testing"
	"time"

	"github.com/cookscabinet/cabinet/internal/domain/recipe"
	gormrepo "github.com/cookscabinet/cabinet/internal/infrastructure/persistence/gorm"
	"github.com/cookscabinet/cabinet/internal/infrastructure/persistence/sqlite"
	"github.com/cookscabinet/cabinet/internal/ports/outbound"
	"github.com/cookscabinet/cabinet/test/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type RecipeRepositoryTestSuite struct {
	suite.Suite
	db      *gorm.DB
	repo    *gormrepo.RecipeRepository
	factory *testutils.RecipeFactory
	ctx     context.Context
}

func (suite *RecipeRepositoryTestSuite) SetupTest() {
	db, err := sqlite.SetupDatabase(":memory:", logger.Default.LogMode(logger.Silent))
	require.NoError(suite.T(), err)

	suite.db = db
	suite.repo = gormrepo.NewRecipeRepository(db, nil, zap.NewNop())
	suite.factory = testutils.NewRecipeFactory(7)
	suite.ctx = context.Background()
}

func (suite *RecipeRepositoryTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	if err == nil {
		sqlDB.Close()
	}
}

func (suite *RecipeRepositoryTestSuite) TestCreateAndFind_RoundTripsAllFields() {
	original := suite.factory.RecipeWithImage()

	require.NoError(suite.T(), suite.repo.Create(suite.ctx, original))

	loaded, err := suite.repo.FindByID(suite.ctx, original.ID())
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), original.ID(), loaded.ID())
	assert.Equal(suite.T(), original.Title(), loaded.Title())
	assert.Equal(suite.T(), original.Description(), loaded.Description())
	assert.Equal(suite.T(), original.Ingredients(), loaded.Ingredients())
	assert.Equal(suite.T(), original.Instructions(), loaded.Instructions())
	assert.Equal(suite.T(), original.Image(), loaded.Image())
	assert.Equal(suite.T(), original.ImageDigest(), loaded.ImageDigest())
	assert.WithinDuration(suite.T(), original.CreatedAt(), loaded.CreatedAt(), time.Millisecond)
}

func (suite *RecipeRepositoryTestSuite) TestCreate_PreservesListOrder() {
	r, err := recipe.NewRecipe(recipe.Details{
		Title:        "Ordered",
		Ingredients:  []string{"zucchini", "apple", "mango"},
		Instructions: []string{"third? no, first", "second", "last"},
	})
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), suite.repo.Create(suite.ctx, r))

	loaded, err := suite.repo.FindByID(suite.ctx, r.ID())
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), []string{"zucchini", "apple", "mango"}, loaded.Ingredients())
	assert.Equal(suite.T(), []string{"third? no, first", "second", "last"}, loaded.Instructions())
	assert.False(suite.T(), loaded.HasImage())
}

func (suite *RecipeRepositoryTestSuite) TestFindByID_Missing() {
	_, err := suite.repo.FindByID(suite.ctx, uuid.New())

	assert.ErrorIs(suite.T(), err, outbound.ErrRecipeNotFound)
}

func (suite *RecipeRepositoryTestSuite) TestUpdate_PersistsChanges() {
	r := suite.factory.RecipeWithImage()
	require.NoError(suite.T(), suite.repo.Create(suite.ctx, r))

	require.NoError(suite.T(), r.UpdateTitle("Renamed"))
	require.NoError(suite.T(), r.SetIngredients([]string{"salt"}))
	r.ClearImage()
	require.NoError(suite.T(), suite.repo.Update(suite.ctx, r))

	loaded, err := suite.repo.FindByID(suite.ctx, r.ID())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Renamed", loaded.Title())
	assert.Equal(suite.T(), []string{"salt"}, loaded.Ingredients())
	assert.False(suite.T(), loaded.HasImage())
	assert.Nil(suite.T(), loaded.Image())
}

func (suite *RecipeRepositoryTestSuite) TestUpdate_Missing() {
	err := suite.repo.Update(suite.ctx, suite.factory.Recipe())

	assert.ErrorIs(suite.T(), err, outbound.ErrRecipeNotFound)
}

func (suite *RecipeRepositoryTestSuite) TestDelete_RemovesFromListing() {
	keep := suite.factory.Recipe()
	gone := suite.factory.Recipe()
	require.NoError(suite.T(), suite.repo.Create(suite.ctx, keep))
	require.NoError(suite.T(), suite.repo.Create(suite.ctx, gone))

	require.NoError(suite.T(), suite.repo.Delete(suite.ctx, gone.ID()))

	recipes, total, err := suite.repo.List(suite.ctx, outbound.ListOptions{})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(1), total)
	require.Len(suite.T(), recipes, 1)
	assert.Equal(suite.T(), keep.ID(), recipes[0].ID())

	_, err = suite.repo.FindByID(suite.ctx, gone.ID())
	assert.ErrorIs(suite.T(), err, outbound.ErrRecipeNotFound)

	assert.ErrorIs(suite.T(), suite.repo.Delete(suite.ctx, gone.ID()), outbound.ErrRecipeNotFound)
}

func (suite *RecipeRepositoryTestSuite) TestList_OrdersByTitleAndOmitsImages() {
	for _, title := range []string{"Waffles", "Apple Pie", "Minestrone"} {
		details := suite.factory.Details()
		details.Title = title
		details.Image = testutils.JPEGFixture(4, 4)
		r, err := recipe.NewRecipe(details)
		require.NoError(suite.T(), err)
		require.NoError(suite.T(), suite.repo.Create(suite.ctx, r))
	}

	recipes, total, err := suite.repo.List(suite.ctx, outbound.ListOptions{})
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), int64(3), total)
	require.Len(suite.T(), recipes, 3)
	assert.Equal(suite.T(), "Apple Pie", recipes[0].Title())
	assert.Equal(suite.T(), "Minestrone", recipes[1].Title())
	assert.Equal(suite.T(), "Waffles", recipes[2].Title())
	for _, r := range recipes {
		assert.True(suite.T(), r.HasImage())
		assert.Nil(suite.T(), r.Image())
	}
}

func (suite *RecipeRepositoryTestSuite) TestList_PaginatesAndFilters() {
	for _, title := range []string{"Banana Bread", "Corn Bread", "Soda Bread", "Ramen"} {
		details := suite.factory.Details()
		details.Title = title
		r, err := recipe.NewRecipe(details)
		require.NoError(suite.T(), err)
		require.NoError(suite.T(), suite.repo.Create(suite.ctx, r))
	}

	page, total, err := suite.repo.List(suite.ctx, outbound.ListOptions{Offset: 1, Limit: 1, Query: "bread"})
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), int64(3), total)
	require.Len(suite.T(), page, 1)
	assert.Equal(suite.T(), "Corn Bread", page[0].Title())

	count, err := suite.repo.Count(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(4), count)
}

func (suite *RecipeRepositoryTestSuite) TestList_QueryMatchesWildcardsLiterally() {
	for _, title := range []string{"100% Rye", "1000 Layer Cake", "Pad_Thai", "Pad Thai", `Back\slash Buns`} {
		details := suite.factory.Details()
		details.Title = title
		r, err := recipe.NewRecipe(details)
		require.NoError(suite.T(), err)
		require.NoError(suite.T(), suite.repo.Create(suite.ctx, r))
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"100%", []string{"100% Rye"}},
		{"pad_", []string{"Pad_Thai"}},
		{"%", []string{"100% Rye"}},
		{"_", []string{"Pad_Thai"}},
		{`k\s`, []string{`Back\slash Buns`}},
	}

	for _, tt := range tests {
		suite.Run(tt.query, func() {
			found, total, err := suite.repo.List(suite.ctx, outbound.ListOptions{Query: tt.query})
			require.NoError(suite.T(), err)

			titles := make([]string, len(found))
			for i, r := range found {
				titles[i] = r.Title()
			}
			assert.Equal(suite.T(), tt.want, titles)
			assert.Equal(suite.T(), int64(len(tt.want)), total)
		})
	}
}

func (suite *RecipeRepositoryTestSuite) TestObjectStore_HoldsImagePayload() {
	store := new(testutils.MockImageStore)
	repo := gormrepo.NewRecipeRepository(suite.db, store, zap.NewNop())
	r := suite.factory.RecipeWithImage()
	key := gormrepo.ImageKey(r.ID())

	store.On("Put", mock.Anything, key, r.Image(), "image/jpeg").Return(nil).Once()
	store.On("Get", mock.Anything, key).Return(r.Image(), nil).Once()
	store.On("Delete", mock.Anything, key).Return(nil).Once()

	require.NoError(suite.T(), repo.Create(suite.ctx, r))

	var model gormrepo.RecipeModel
	require.NoError(suite.T(), suite.db.First(&model, "id = ?", r.ID()).Error)
	assert.Empty(suite.T(), model.Image)
	assert.Equal(suite.T(), key, model.ImageKey)

	loaded, err := repo.FindByID(suite.ctx, r.ID())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), r.Image(), loaded.Image())

	require.NoError(suite.T(), repo.Delete(suite.ctx, r.ID()))
	store.AssertExpectations(suite.T())
}

func TestRecipeRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RecipeRepositoryTestSuite))
}
