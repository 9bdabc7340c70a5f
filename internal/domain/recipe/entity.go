// Package recipe contains the core domain logic for recipe management.
package recipe

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cookscabinet/cabinet/internal/domain/shared"
	"github.com/google/uuid"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000
	maxInstructionLength = 1000
	maxListEntries       = 100
)

// Recipe is the persisted recipe record. It owns its ordered ingredient and
// instruction lists and an optional image blob.
type Recipe struct {
	id          uuid.UUID
	title       string
	description string

	ingredients  []string
	instructions []string

	image       []byte
	imageDigest string

	createdAt time.Time
	updatedAt time.Time

	// Domain events to be dispatched
	events []shared.DomainEvent
}

// Details carries the user editable content of a recipe
type Details struct {
	Title        string
	Description  string
	Ingredients  []string
	Instructions []string
	Image        []byte
}

// NewRecipe creates a new Recipe with validation
func NewRecipe(d Details) (*Recipe, error) {
	title, err := normalizeTitle(d.Title)
	if err != nil {
		return nil, err
	}

	description, err := normalizeDescription(d.Description)
	if err != nil {
		return nil, err
	}

	ingredients, err := normalizeIngredients(d.Ingredients)
	if err != nil {
		return nil, err
	}

	instructions, err := normalizeInstructions(d.Instructions)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	recipe := &Recipe{
		id:           uuid.New(),
		title:        title,
		description:  description,
		ingredients:  ingredients,
		instructions: instructions,
		createdAt:    now,
		updatedAt:    now,
		events:       []shared.DomainEvent{},
	}
	recipe.setImage(d.Image)

	recipe.addEvent(RecipeCreatedEvent{
		RecipeID:  recipe.id,
		Title:     title,
		HasImage:  recipe.HasImage(),
		CreatedAt: now,
	})

	return recipe, nil
}

// Snapshot is the storage representation used to rebuild a Recipe
type Snapshot struct {
	ID           uuid.UUID
	Title        string
	Description  string
	Ingredients  []string
	Instructions []string
	Image        []byte
	ImageDigest  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Restore rebuilds a recipe from storage. Stored data is trusted, so no
// validation runs and no events are raised.
func Restore(s Snapshot) *Recipe {
	r := &Recipe{
		id:           s.ID,
		title:        s.Title,
		description:  s.Description,
		ingredients:  copyStrings(s.Ingredients),
		instructions: copyStrings(s.Instructions),
		imageDigest:  s.ImageDigest,
		createdAt:    s.CreatedAt,
		updatedAt:    s.UpdatedAt,
		events:       []shared.DomainEvent{},
	}
	if len(s.Image) > 0 {
		r.image = copyBytes(s.Image)
		if r.imageDigest == "" {
			r.imageDigest = Digest(s.Image)
		}
	}
	return r
}

// ID returns the recipe's unique identifier
func (r *Recipe) ID() uuid.UUID {
	return r.id
}

// Title returns the recipe's title
func (r *Recipe) Title() string {
	return r.title
}

// Description returns the recipe's description
func (r *Recipe) Description() string {
	return r.description
}

// Ingredients returns a copy of the ordered ingredient list
func (r *Recipe) Ingredients() []string {
	return copyStrings(r.ingredients)
}

// Instructions returns a copy of the ordered instruction list
func (r *Recipe) Instructions() []string {
	return copyStrings(r.instructions)
}

// Image returns a copy of the image bytes, or nil when the image is absent
// or was not loaded.
func (r *Recipe) Image() []byte {
	return copyBytes(r.image)
}

// ImageDigest returns the hex SHA-256 of the image, empty when there is none
func (r *Recipe) ImageDigest() string {
	return r.imageDigest
}

// HasImage reports whether the recipe owns an image. It stays true for
// recipes loaded without their image payload.
func (r *Recipe) HasImage() bool {
	return r.imageDigest != ""
}

// CreatedAt returns when the recipe was created
func (r *Recipe) CreatedAt() time.Time {
	return r.createdAt
}

// UpdatedAt returns when the recipe was last modified
func (r *Recipe) UpdatedAt() time.Time {
	return r.updatedAt
}

// UpdateTitle changes the recipe title
func (r *Recipe) UpdateTitle(title string) error {
	title, err := normalizeTitle(title)
	if err != nil {
		return err
	}
	if title == r.title {
		return nil
	}

	r.title = title
	r.touch("title")
	return nil
}

// UpdateDescription changes the recipe description
func (r *Recipe) UpdateDescription(description string) error {
	description, err := normalizeDescription(description)
	if err != nil {
		return err
	}
	if description == r.description {
		return nil
	}

	r.description = description
	r.touch("description")
	return nil
}

// SetIngredients replaces the ingredient list, keeping the given order
func (r *Recipe) SetIngredients(ingredients []string) error {
	normalized, err := normalizeIngredients(ingredients)
	if err != nil {
		return err
	}

	r.ingredients = normalized
	r.touch("ingredients")
	return nil
}

// SetInstructions replaces the instruction list, keeping the given order
func (r *Recipe) SetInstructions(instructions []string) error {
	normalized, err := normalizeInstructions(instructions)
	if err != nil {
		return err
	}

	r.instructions = normalized
	r.touch("instructions")
	return nil
}

// SetImage replaces the image. An empty image clears it.
func (r *Recipe) SetImage(image []byte) {
	if len(image) == 0 {
		r.ClearImage()
		return
	}

	r.setImage(image)
	r.touch("image")
}

// ClearImage removes the image
func (r *Recipe) ClearImage() {
	if !r.HasImage() {
		return
	}

	r.image = nil
	r.imageDigest = ""
	r.updatedAt = time.Now().UTC()
	r.addEvent(RecipeImageClearedEvent{
		RecipeID:  r.id,
		ClearedAt: r.updatedAt,
	})
}

// MarkDeleted records the deletion of the recipe
func (r *Recipe) MarkDeleted() {
	r.addEvent(RecipeDeletedEvent{
		RecipeID:  r.id,
		Title:     r.title,
		DeletedAt: time.Now().UTC(),
	})
}

// Events returns and clears pending domain events
func (r *Recipe) Events() []shared.DomainEvent {
	events := r.events
	r.events = []shared.DomainEvent{}
	return events
}

func (r *Recipe) addEvent(event shared.DomainEvent) {
	r.events = append(r.events, event)
}

func (r *Recipe) touch(field string) {
	r.updatedAt = time.Now().UTC()
	r.addEvent(RecipeUpdatedEvent{
		RecipeID:  r.id,
		Field:     field,
		UpdatedAt: r.updatedAt,
	})
}

func (r *Recipe) setImage(image []byte) {
	if len(image) == 0 {
		r.image = nil
		r.imageDigest = ""
		return
	}
	r.image = copyBytes(image)
	r.imageDigest = Digest(image)
}

// Digest returns the hex SHA-256 of data
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}

func normalizeDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return "", ErrDescriptionTooLong
	}
	return description, nil
}

func normalizeIngredients(ingredients []string) ([]string, error) {
	if len(ingredients) > maxListEntries {
		return nil, ErrTooManyIngredients
	}

	out := make([]string, 0, len(ingredients))
	for _, ingredient := range ingredients {
		ingredient = strings.TrimSpace(ingredient)
		if ingredient == "" {
			return nil, ErrInvalidIngredient
		}
		out = append(out, ingredient)
	}
	return out, nil
}

func normalizeInstructions(instructions []string) ([]string, error) {
	if len(instructions) > maxListEntries {
		return nil, ErrTooManyInstructions
	}

	out := make([]string, 0, len(instructions))
	for _, step := range instructions {
		step = strings.TrimSpace(step)
		if step == "" || utf8.RuneCountInString(step) > maxInstructionLength {
			return nil, ErrInvalidInstruction
		}
		out = append(out, step)
	}
	return out, nil
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func copyBytes(in []byte) []byte {
	if len(in) == 0 {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}
