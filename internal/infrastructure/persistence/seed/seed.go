// Package seed loads sample recipes from YAML fixtures
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cookscabinet/cabinet/internal/ports/inbound"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures/recipes.yaml
var defaultFixtures []byte

// Fixture is one recipe in a seed file
type Fixture struct {
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description"`
	Ingredients  []string `yaml:"ingredients"`
	Instructions []string `yaml:"instructions"`
	// Image is a path to an image file, relative to the seed file
	Image string `yaml:"image,omitempty"`
}

type document struct {
	Recipes []Fixture `yaml:"recipes"`
}

// Result reports what a seed run did
type Result struct {
	Created int
	Skipped int
}

// Seeder creates fixture recipes through the recipe service
type Seeder struct {
	service inbound.RecipeService
	logger  *zap.Logger
}

// NewSeeder creates a new seeder
func NewSeeder(service inbound.RecipeService, logger *zap.Logger) *Seeder {
	return &Seeder{
		service: service,
		logger:  logger.Named("seed"),
	}
}

// Default returns the built in sample recipes
func Default() ([]Fixture, error) {
	return Parse(bytes.NewReader(defaultFixtures))
}

// Parse decodes a seed document
func Parse(r io.Reader) ([]Fixture, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}

	for i, f := range doc.Recipes {
		if strings.TrimSpace(f.Title) == "" {
			return nil, fmt.Errorf("seed recipe %d has no title", i+1)
		}
	}
	return doc.Recipes, nil
}

// LoadFile reads fixtures from path and resolves their image paths
func LoadFile(path string) ([]Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fixtures, err := Parse(f)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	for i := range fixtures {
		if fixtures[i].Image != "" && !filepath.IsAbs(fixtures[i].Image) {
			fixtures[i].Image = filepath.Join(base, fixtures[i].Image)
		}
	}
	return fixtures, nil
}

// Seed creates every fixture whose title is not already stored
func (s *Seeder) Seed(ctx context.Context, fixtures []Fixture) (Result, error) {
	var result Result

	for _, f := range fixtures {
		exists, err := s.titleExists(ctx, f.Title)
		if err != nil {
			return result, err
		}
		if exists {
			result.Skipped++
			continue
		}

		cmd := inbound.CreateRecipeCommand{
			Title:        f.Title,
			Description:  f.Description,
			Ingredients:  f.Ingredients,
			Instructions: f.Instructions,
		}
		if f.Image != "" {
			data, err := os.ReadFile(f.Image)
			if err != nil {
				return result, fmt.Errorf("read image for %q: %w", f.Title, err)
			}
			cmd.Image = data
		}

		created, err := s.service.CreateRecipe(ctx, cmd)
		if err != nil {
			return result, fmt.Errorf("seed %q: %w", f.Title, err)
		}

		s.logger.Info("Seeded recipe",
			zap.String("recipe_id", created.ID.String()),
			zap.String("title", created.Title),
		)
		result.Created++
	}

	return result, nil
}

func (s *Seeder) titleExists(ctx context.Context, title string) (bool, error) {
	list, err := s.service.ListRecipes(ctx, inbound.ListParams{
		PageSize: 100,
		Query:    strings.TrimSpace(title),
	})
	if err != nil {
		return false, err
	}

	for _, r := range list.Recipes {
		if strings.EqualFold(r.Title, strings.TrimSpace(title)) {
			return true, nil
		}
	}
	return false, nil
}
