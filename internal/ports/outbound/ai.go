package outbound

import "context"

// InferenceRequest is a single vision chat request
type InferenceRequest struct {
	// Instruction is sent as the system/developer message
	Instruction string
	// Prompt is the user text sent with the image
	Prompt string
	// Image holds the encoded photo
	Image []byte
	// MIMEType of Image, e.g. image/jpeg
	MIMEType string
}

// RecipeInferrer asks a vision model to describe a recipe for a photo.
// It returns the raw assistant text.
type RecipeInferrer interface {
	InferRecipe(ctx context.Context, req InferenceRequest) (string, error)
}

// GeneratedImage is the result of an image generation call. Providers return
// either a URL to download or the encoded image inline.
type GeneratedImage struct {
	URL           string
	Data          []byte
	RevisedPrompt string
}

// ImageGenerator creates an illustrative image from a prompt
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (*GeneratedImage, error)
}

// ImageFetcher downloads an image by URL
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
