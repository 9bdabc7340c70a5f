package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrDraftMissingTitle is returned when the decoded recipe has no title
var ErrDraftMissingTitle = errors.New("recipe draft has no title")

// RecipeDraft is the recipe proposed by the model before it is saved
type RecipeDraft struct {
	Title        string       `json:"title"`
	Description  string       `json:"recipeDescription"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions []string     `json:"instructions"`
}

// IngredientLines returns the ingredients as display strings
func (d *RecipeDraft) IngredientLines() []string {
	lines := make([]string, 0, len(d.Ingredients))
	for _, ingredient := range d.Ingredients {
		if line := ingredient.String(); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// DecodeDraft decodes the JSON extracted from a model response
func DecodeDraft(raw string) (*RecipeDraft, error) {
	var draft RecipeDraft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil, fmt.Errorf("failed to decode recipe draft: %w", err)
	}

	draft.Title = strings.TrimSpace(draft.Title)
	if draft.Title == "" {
		return nil, ErrDraftMissingTitle
	}
	draft.Description = strings.TrimSpace(draft.Description)

	instructions := make([]string, 0, len(draft.Instructions))
	for _, step := range draft.Instructions {
		if step = strings.TrimSpace(step); step != "" {
			instructions = append(instructions, step)
		}
	}
	draft.Instructions = instructions

	return &draft, nil
}

// Ingredient is a single ingredient line. Models answer with a plain string,
// a {"quantity","name"} object or a [quantity, name] pair; all three decode
// into the same value.
type Ingredient struct {
	Quantity string `json:"quantity,omitempty"`
	Name     string `json:"name"`
}

// String joins quantity and name with a space
func (i Ingredient) String() string {
	return strings.TrimSpace(strings.TrimSpace(i.Quantity) + " " + strings.TrimSpace(i.Name))
}

// UnmarshalJSON implements json.Unmarshaler. A null element decodes to an
// empty ingredient, which IngredientLines drops.
func (i *Ingredient) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New("empty ingredient")
	}

	switch data[0] {
	case 'n':
		if !bytes.Equal(data, []byte("null")) {
			return fmt.Errorf("unsupported ingredient value %s", string(data))
		}
		*i = Ingredient{}
		return nil
	case '"':
		var line string
		if err := json.Unmarshal(data, &line); err != nil {
			return err
		}
		*i = Ingredient{Name: strings.TrimSpace(line)}
		return nil
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("ingredient pair: %w", err)
		}
		parts := make([]string, 0, len(raw))
		for _, element := range raw {
			text, err := scalarText(element)
			if err != nil {
				return fmt.Errorf("ingredient pair: %w", err)
			}
			if text != "" {
				parts = append(parts, text)
			}
		}
		switch len(parts) {
		case 0:
			*i = Ingredient{}
		case 1:
			*i = Ingredient{Name: parts[0]}
		default:
			*i = Ingredient{Quantity: parts[0], Name: strings.Join(parts[1:], " ")}
		}
		return nil
	case '{':
		var obj struct {
			Quantity json.RawMessage `json:"quantity"`
			Name     json.RawMessage `json:"name"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("ingredient object: %w", err)
		}
		quantity, err := scalarText(obj.Quantity)
		if err != nil {
			return fmt.Errorf("ingredient quantity: %w", err)
		}
		name, err := scalarText(obj.Name)
		if err != nil {
			return fmt.Errorf("ingredient name: %w", err)
		}
		*i = Ingredient{Quantity: quantity, Name: name}
		return nil
	default:
		return fmt.Errorf("unsupported ingredient value %s", string(data))
	}
}

// scalarText reads a JSON string or number as text. Missing and null
// values read as empty.
func scalarText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("expected string or number, got %s", string(raw))
	}
	return n.String(), nil
}
