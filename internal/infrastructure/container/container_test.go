package container

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cookscabinet/cabinet/internal/infrastructure/config"
	"github.com/cookscabinet/cabinet/internal/infrastructure/http/server"
	"github.com/cookscabinet/cabinet/internal/ports/inbound"
	"github.com/cookscabinet/cabinet/pkg/healthcheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := config.Load("")
	require.NoError(t, err)

	cfg.App.LogLevel = "error"
	cfg.Database.Path = filepath.Join(t.TempDir(), "cabinet.db")
	cfg.Cache.Provider = "memory"
	cfg.Monitoring.EnableTracing = false
	return cfg
}

func TestModule_GraphIsComplete(t *testing.T) {
	cfg := testConfig(t)

	err := fx.ValidateApp(fx.Supply(cfg), Module)

	assert.NoError(t, err)
}

func TestCoreModule_ServesRecipes(t *testing.T) {
	cfg := testConfig(t)

	var (
		recipes inbound.RecipeService
		health  *healthcheck.HealthCheck
	)
	app := New(cfg, CoreModule, fx.Populate(&recipes, &health))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, app.Start(ctx))
	defer app.Stop(ctx)

	created, err := recipes.CreateRecipe(ctx, inbound.CreateRecipeCommand{
		Title:        "Shakshuka",
		Ingredients:  []string{"eggs", "tomatoes"},
		Instructions: []string{"Simmer the sauce.", "Poach the eggs."},
	})
	require.NoError(t, err)

	loaded, err := recipes.GetRecipe(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Shakshuka", loaded.Title)

	report := health.Check(ctx)
	assert.NotEqual(t, healthcheck.StatusUnhealthy, report.Status, "missing AI key only degrades")
}

func TestModule_BuildsServers(t *testing.T) {
	cfg := testConfig(t)

	var api *server.Server
	app := fx.New(fx.Supply(cfg), CoreModule, HTTPModule, fx.Populate(&api), fx.NopLogger)

	require.NoError(t, app.Err())
	assert.Equal(t, cfg.GetServerAddr(), api.Addr())
}
