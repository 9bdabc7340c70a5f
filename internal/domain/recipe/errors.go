package recipe

import "errors"

// Domain errors for recipe operations

var (
	// Entity validation errors
	ErrTitleRequired       = errors.New("recipe title is required")
	ErrTitleTooLong        = errors.New("recipe title must not exceed 200 characters")
	ErrDescriptionTooLong  = errors.New("recipe description must not exceed 2000 characters")
	ErrInvalidIngredient   = errors.New("ingredient must not be empty")
	ErrTooManyIngredients  = errors.New("recipe must not have more than 100 ingredients")
	ErrInvalidInstruction  = errors.New("instruction must not be empty or exceed 1000 characters")
	ErrTooManyInstructions = errors.New("recipe must not have more than 100 instructions")

	// Lookup errors
	ErrRecipeNotFound = errors.New("recipe not found")
)

// IsValidationError reports whether err is one of the recipe validation errors
func IsValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrTitleRequired),
		errors.Is(err, ErrTitleTooLong),
		errors.Is(err, ErrDescriptionTooLong),
		errors.Is(err, ErrInvalidIngredient),
		errors.Is(err, ErrTooManyIngredients),
		errors.Is(err, ErrInvalidInstruction),
		errors.Is(err, ErrTooManyInstructions):
		return true
	}
	return false
}
