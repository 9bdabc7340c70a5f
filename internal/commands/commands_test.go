package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cookscabinet/cabinet/internal/infrastructure/config"
	"github.com/cookscabinet/cabinet/internal/infrastructure/persistence/migrations"
	"github.com/cookscabinet/cabinet/internal/infrastructure/persistence/seed"
	"github.com/cookscabinet/cabinet/internal/ports/inbound"
	"github.com/cookscabinet/cabinet/test/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMigrator struct {
	version uint
	dirty   bool
	calls   []string
	closed  bool
	upErr   error
}

func (f *fakeMigrator) Up() error {
	f.calls = append(f.calls, "up")
	if f.upErr != nil {
		return f.upErr
	}
	f.version = 2
	return nil
}

func (f *fakeMigrator) Down() error {
	f.calls = append(f.calls, "down")
	f.version--
	return nil
}

func (f *fakeMigrator) Version() (uint, bool, error) { return f.version, f.dirty, nil }

func (f *fakeMigrator) Force(v int) error {
	f.calls = append(f.calls, "force")
	f.version = uint(v)
	f.dirty = false
	return nil
}

func (f *fakeMigrator) Status() (*migrations.MigrationStatus, error) {
	return &migrations.MigrationStatus{
		Version: f.version,
		Applied: []migrations.Migration{{Version: 1, Name: "create_recipes"}},
		Pending: []migrations.Migration{{Version: 2, Name: "recipes_title_search"}},
	}, nil
}

func (f *fakeMigrator) Close() error {
	f.closed = true
	return nil
}

type harness struct {
	recipes    *testutils.MockRecipeService
	generation *testutils.MockGenerationService
	migrator   *fakeMigrator
	closed     bool
	cfg        *config.Config
}

func newHarness() *harness {
	return &harness{
		recipes:    new(testutils.MockRecipeService),
		generation: new(testutils.MockGenerationService),
		migrator:   &fakeMigrator{version: 1},
		cfg: &config.Config{
			App:      config.AppConfig{LogLevel: "info"},
			Server:   config.ServerConfig{ShutdownTimeout: time.Second},
			Database: config.DatabaseConfig{Driver: "postgres"},
		},
	}
}

func (h *harness) deps() Deps {
	return Deps{
		LoadConfig: func(string) (*config.Config, error) { return h.cfg, nil },
		Open: func(context.Context, *config.Config) (*Runtime, error) {
			return &Runtime{
				Recipes:    h.recipes,
				Generation: h.generation,
				Seeder:     seed.NewSeeder(h.recipes, zap.NewNop()),
				stop: func(context.Context) error {
					h.closed = true
					return nil
				},
			}, nil
		},
		OpenMigrator: func(context.Context, *config.Config) (Migrator, error) {
			return h.migrator, nil
		},
	}
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand(h.deps())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func sampleRecipe() *inbound.RecipeDTO {
	return &inbound.RecipeDTO{
		ID:           uuid.New(),
		Title:        "Tomato Soup",
		Description:  "Warm and simple",
		Ingredients:  []string{"4 tomatoes", "1 onion"},
		Instructions: []string{"Chop.", "Simmer."},
	}
}

func TestNewRootCommand_Structure(t *testing.T) {
	cmd := NewRootCommand(Deps{})

	assert.Equal(t, "cookscabinet", cmd.Use)
	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))

	uses := make([]string, 0, len(cmd.Commands()))
	for _, sub := range cmd.Commands() {
		uses = append(uses, sub.Name())
	}
	assert.Subset(t, uses, []string{"serve", "generate", "recipes", "seed", "migrate"})

	recipes, _, err := cmd.Find([]string{"recipes"})
	require.NoError(t, err)
	names := make([]string, 0)
	for _, sub := range recipes.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"list", "show", "delete", "rename", "clear-image", "export-image"}, names)
}

func TestRecipesList(t *testing.T) {
	h := newHarness()
	r := sampleRecipe()
	h.recipes.On("ListRecipes", mock.Anything, inbound.ListParams{Page: 2, PageSize: 5}).
		Return(&inbound.RecipeList{Recipes: []*inbound.RecipeDTO{r}, Total: 6, Page: 2, PageSize: 5, TotalPages: 2}, nil)

	out, err := h.run(t, "recipes", "list", "--page", "2", "--page-size", "5")

	require.NoError(t, err)
	assert.Contains(t, out, "Tomato Soup")
	assert.Contains(t, out, r.ID.String())
	assert.Contains(t, out, "page 2 of 2")
	assert.True(t, h.closed)
	h.recipes.AssertExpectations(t)
}

func TestRecipesShow(t *testing.T) {
	h := newHarness()
	r := sampleRecipe()
	h.recipes.On("GetRecipe", mock.Anything, r.ID).Return(r, nil)

	out, err := h.run(t, "recipes", "show", r.ID.String())

	require.NoError(t, err)
	assert.Contains(t, out, "Tomato Soup")
	assert.Contains(t, out, "4 tomatoes")
	assert.Contains(t, out, "2. Simmer.")
}

func TestRecipesShow_InvalidID(t *testing.T) {
	h := newHarness()

	_, err := h.run(t, "recipes", "show", "not-a-uuid")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid recipe id")
	h.recipes.AssertNotCalled(t, "GetRecipe", mock.Anything, mock.Anything)
}

func TestRecipesRename_JoinsTitleWords(t *testing.T) {
	h := newHarness()
	r := sampleRecipe()
	h.recipes.On("UpdateRecipe", mock.Anything, mock.MatchedBy(func(cmd inbound.UpdateRecipeCommand) bool {
		return cmd.RecipeID == r.ID && cmd.Title != nil && *cmd.Title == "Roasted Tomato Soup"
	})).Return(&inbound.RecipeDTO{ID: r.ID, Title: "Roasted Tomato Soup"}, nil)

	out, err := h.run(t, "recipes", "rename", r.ID.String(), "Roasted", "Tomato", "Soup")

	require.NoError(t, err)
	assert.Contains(t, out, "Roasted Tomato Soup")
	h.recipes.AssertExpectations(t)
}

func TestRecipesDelete_PropagatesServiceError(t *testing.T) {
	h := newHarness()
	id := uuid.New()
	h.recipes.On("DeleteRecipe", mock.Anything, id).Return(errors.New("gone"))

	_, err := h.run(t, "recipes", "delete", id.String())

	require.EqualError(t, err, "gone")
	assert.True(t, h.closed, "runtime is closed even when the command fails")
}

func TestRecipesClearImage(t *testing.T) {
	h := newHarness()
	r := sampleRecipe()
	h.recipes.On("ClearRecipeImage", mock.Anything, r.ID).Return(r, nil)

	out, err := h.run(t, "recipes", "clear-image", r.ID.String())

	require.NoError(t, err)
	assert.Contains(t, out, "Cleared image")
}

func TestRecipesExportImage(t *testing.T) {
	h := newHarness()
	id := uuid.New()
	jpeg := testutils.JPEGFixture(4, 4)
	h.recipes.On("GetRecipeImage", mock.Anything, id).
		Return(&inbound.RecipeImage{Data: jpeg, ContentType: "image/jpeg"}, nil)

	target := filepath.Join(t.TempDir(), "out.jpg")
	_, err := h.run(t, "recipes", "export-image", id.String(), target)

	require.NoError(t, err)
	written, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, jpeg, written)
}

func TestGenerate(t *testing.T) {
	h := newHarness()
	photo := testutils.JPEGFixture(4, 4)
	path := filepath.Join(t.TempDir(), "dish.jpg")
	require.NoError(t, os.WriteFile(path, photo, 0o600))

	r := sampleRecipe()
	h.generation.On("GenerateFromImage", mock.Anything, inbound.GenerateRecipeCommand{
		Image:  photo,
		Prompt: "make it vegan",
	}).Return(r, nil)

	out, err := h.run(t, "generate", "--image", path, "--prompt", "make it vegan")

	require.NoError(t, err)
	assert.Contains(t, out, "Tomato Soup")
	h.generation.AssertExpectations(t)
}

func TestGenerate_RequiresImageFlag(t *testing.T) {
	h := newHarness()

	_, err := h.run(t, "generate")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "image")
}

func TestSeed_Default(t *testing.T) {
	h := newHarness()
	fixtures, err := seed.Default()
	require.NoError(t, err)

	h.recipes.On("ListRecipes", mock.Anything, mock.Anything).Return(&inbound.RecipeList{}, nil)
	h.recipes.On("CreateRecipe", mock.Anything, mock.Anything).Return(sampleRecipe(), nil)

	out, err := h.run(t, "seed")

	require.NoError(t, err)
	assert.Contains(t, out, "Seeded")
	h.recipes.AssertNumberOfCalls(t, "CreateRecipe", len(fixtures))
}

func TestMigrate(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		calls   []string
		version string
	}{
		{"up", []string{"migrate", "up"}, []string{"up"}, "Schema version 2"},
		{"down", []string{"migrate", "down"}, []string{"down"}, "Schema version 0"},
		{"version", []string{"migrate", "version"}, nil, "Schema version 1"},
		{"force", []string{"migrate", "force", "3"}, []string{"force"}, "Schema version 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()

			out, err := h.run(t, tt.args...)

			require.NoError(t, err)
			assert.Equal(t, tt.calls, h.migrator.calls)
			assert.Contains(t, out, tt.version)
			assert.True(t, h.migrator.closed)
		})
	}
}

func TestMigrate_Status(t *testing.T) {
	h := newHarness()

	out, err := h.run(t, "migrate", "status")

	require.NoError(t, err)
	assert.Contains(t, out, "create_recipes")
	assert.Contains(t, out, "recipes_title_search")
}

func TestMigrate_UpFailureStillCloses(t *testing.T) {
	h := newHarness()
	h.migrator.upErr = errors.New("dirty database")

	_, err := h.run(t, "migrate", "up")

	require.Error(t, err)
	assert.True(t, h.migrator.closed)
}

func TestOpenMigrator_RejectsSQLite(t *testing.T) {
	_, err := openMigrator(context.Background(), &config.Config{Database: config.DatabaseConfig{Driver: "sqlite"}})

	assert.ErrorIs(t, err, ErrMigrateDriver)
}

func TestLogLevelFlagOverridesConfig(t *testing.T) {
	h := newHarness()
	var seen string
	deps := h.deps()
	deps.Open = func(_ context.Context, cfg *config.Config) (*Runtime, error) {
		seen = cfg.App.LogLevel
		return nil, errors.New("stop here")
	}

	cmd := NewRootCommand(deps)
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"--log-level", "debug", "recipes", "list"})
	_ = cmd.ExecuteContext(context.Background())

	assert.Equal(t, "debug", seen)
}
