package ai

import (
	"fmt"
	"strings"
)

// RecipeInstruction is sent as the developer message of the vision request
const RecipeInstruction = "You are a helpful assistant trained as a chef designed to output a recipe in JSON format. " +
	"following this format {title: String, recipeDescription: String, ingredients: [[quantity:String, name:String]], instructions: [String]}"

// DefaultRequest is the user text sent alongside the photo
const DefaultRequest = "Create a recipe based off of the ingredients in this image."

// ImagePrompt builds the image generation prompt for a finished dish
func ImagePrompt(title, description string, ingredients []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A realistic, appetizing food photograph of %s", strings.TrimSpace(title))
	if d := strings.TrimSpace(description); d != "" {
		fmt.Fprintf(&b, ". %s", strings.TrimSuffix(d, "."))
	}
	if len(ingredients) > 0 {
		fmt.Fprintf(&b, ". Made with %s", strings.Join(ingredients, ", "))
	}
	b.WriteString(". Plated on a table, natural light, no text.")
	return b.String()
}

// Stage names one step of the generation chain
type Stage string

const (
	StageValidate      Stage = "validate_image"
	StageInfer         Stage = "infer"
	StageExtract       Stage = "extract"
	StageDecode        Stage = "decode"
	StageGenerateImage Stage = "generate_image"
	StageDownloadImage Stage = "download_image"
	StageSave          Stage = "save"
)

// Stages lists the chain in execution order
var Stages = []Stage{
	StageValidate,
	StageInfer,
	StageExtract,
	StageDecode,
	StageGenerateImage,
	StageDownloadImage,
	StageSave,
}
