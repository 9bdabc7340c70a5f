package seed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cookscabinet/cabinet/internal/ports/inbound"
	"github.com/cookscabinet/cabinet/test/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefault(t *testing.T) {
	fixtures, err := Default()

	require.NoError(t, err)
	require.Len(t, fixtures, 3)
	for _, f := range fixtures {
		assert.NotEmpty(t, f.Title)
		assert.NotEmpty(t, f.Ingredients)
		assert.NotEmpty(t, f.Instructions)
	}
}

func TestParse_RejectsUnknownFieldsAndMissingTitles(t *testing.T) {
	_, err := Parse(strings.NewReader("recipes:\n  - title: Soup\n    servings: 4\n"))
	assert.Error(t, err)

	_, err = Parse(strings.NewReader("recipes:\n  - description: no title\n"))
	assert.Error(t, err)
}

func TestLoadFile_ResolvesImagePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "recipes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("recipes:\n  - title: Toast\n    image: toast.jpg\n"), 0o600))

	fixtures, err := LoadFile(path)

	require.NoError(t, err)
	require.Len(t, fixtures, 1)
	assert.Equal(t, filepath.Join(dir, "toast.jpg"), fixtures[0].Image)
}

func TestSeeder_SkipsExistingTitles(t *testing.T) {
	ctx := context.Background()
	service := new(testutils.MockRecipeService)
	seeder := NewSeeder(service, zap.NewNop())

	fixtures := []Fixture{
		{Title: "Pancakes", Ingredients: []string{"flour"}, Instructions: []string{"Cook."}},
		{Title: "Waffles", Ingredients: []string{"flour"}, Instructions: []string{"Cook."}},
	}

	service.On("ListRecipes", ctx, inbound.ListParams{PageSize: 100, Query: "Pancakes"}).
		Return(&inbound.RecipeList{Recipes: []*inbound.RecipeDTO{{Title: "pancakes"}}}, nil)
	service.On("ListRecipes", ctx, inbound.ListParams{PageSize: 100, Query: "Waffles"}).
		Return(&inbound.RecipeList{Recipes: []*inbound.RecipeDTO{{Title: "Belgian Waffles"}}}, nil)
	service.On("CreateRecipe", ctx, mock.MatchedBy(func(cmd inbound.CreateRecipeCommand) bool {
		return cmd.Title == "Waffles"
	})).Return(&inbound.RecipeDTO{ID: uuid.New(), Title: "Waffles"}, nil).Once()

	result, err := seeder.Seed(ctx, fixtures)

	require.NoError(t, err)
	assert.Equal(t, Result{Created: 1, Skipped: 1}, result)
	service.AssertExpectations(t)
}
