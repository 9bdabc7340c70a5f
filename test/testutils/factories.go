// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/cookscabinet/cabinet/internal/domain/recipe"
	"github.com/cookscabinet/cabinet/internal/ports/inbound"
	"github.com/google/uuid"
)

// RecipeFactory provides methods to create test recipes
type RecipeFactory struct {
	faker *gofakeit.Faker
}

// NewRecipeFactory creates a new recipe factory with seeded faker
func NewRecipeFactory(seed int64) *RecipeFactory {
	return &RecipeFactory{
		faker: gofakeit.New(seed),
	}
}

// Details returns valid recipe content
func (f *RecipeFactory) Details() recipe.Details {
	ingredients := make([]string, f.faker.Number(2, 6))
	for i := range ingredients {
		ingredients[i] = fmt.Sprintf("%d %s %s", f.faker.Number(1, 4), f.faker.RandomString([]string{"cup", "tbsp", "tsp", "g"}), f.faker.Vegetable())
	}

	instructions := make([]string, f.faker.Number(2, 5))
	for i := range instructions {
		instructions[i] = f.faker.Sentence(8)
	}

	return recipe.Details{
		Title:        f.faker.Dessert(),
		Description:  f.faker.Sentence(15),
		Ingredients:  ingredients,
		Instructions: instructions,
	}
}

// Recipe creates a valid recipe without an image
func (f *RecipeFactory) Recipe() *recipe.Recipe {
	r, err := recipe.NewRecipe(f.Details())
	if err != nil {
		panic(fmt.Sprintf("factory produced invalid recipe: %v", err))
	}
	r.Events()
	return r
}

// RecipeWithImage creates a valid recipe carrying a small JPEG
func (f *RecipeFactory) RecipeWithImage() *recipe.Recipe {
	details := f.Details()
	details.Image = JPEGFixture(8, 8)

	r, err := recipe.NewRecipe(details)
	if err != nil {
		panic(fmt.Sprintf("factory produced invalid recipe: %v", err))
	}
	r.Events()
	return r
}

// Recipes creates count recipes
func (f *RecipeFactory) Recipes(count int) []*recipe.Recipe {
	recipes := make([]*recipe.Recipe, count)
	for i := range recipes {
		recipes[i] = f.Recipe()
	}
	return recipes
}

// DTO returns the API shape of a fresh recipe
func (f *RecipeFactory) DTO() *inbound.RecipeDTO {
	d := f.Details()
	now := time.Now().UTC().Truncate(time.Second)
	return &inbound.RecipeDTO{
		ID:           uuid.New(),
		Title:        d.Title,
		Description:  d.Description,
		Ingredients:  d.Ingredients,
		Instructions: d.Instructions,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// JPEGFixture encodes a solid colour JPEG of the given size
func JPEGFixture(width, height int) []byte {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, solid(width, height), &jpeg.Options{Quality: 80}); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// PNGFixture encodes a solid colour PNG of the given size
func PNGFixture(width, height int) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, solid(width, height)); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func solid(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	c := color.RGBA{R: 200, G: 120, B: 40, A: 255}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}
