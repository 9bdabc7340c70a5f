package handlers

import (
	"net/http"

	"github.com/cookscabinet/cabinet/internal/infrastructure/monitoring"
	"github.com/cookscabinet/cabinet/internal/ports/inbound"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GenerationHandlers handles photo to recipe requests
type GenerationHandlers struct {
	generationService inbound.GenerationService
	logger            *zap.Logger
}

// NewGenerationHandlers creates a new generation handlers instance
func NewGenerationHandlers(
	generationService inbound.GenerationService,
	logger *zap.Logger,
) *GenerationHandlers {
	return &GenerationHandlers{
		generationService: generationService,
		logger:            logger,
	}
}

// Register mounts the generation route
func (h *GenerationHandlers) Register(rg *gin.RouterGroup) {
	rg.POST("/recipes/generate", h.GenerateRecipe)
}

// GenerateRecipe handles POST /api/v1/recipes/generate
func (h *GenerationHandlers) GenerateRecipe(c *gin.Context) {
	image, err := readImage(c)
	if err != nil {
		fail(c, err)
		return
	}

	cmd := inbound.GenerateRecipeCommand{
		Image:  image,
		Prompt: c.PostForm("prompt"),
	}
	if cmd.Prompt == "" {
		cmd.Prompt = c.Query("prompt")
	}

	monitoring.LoggerWithContext(c.Request.Context(), h.logger).Info("AI recipe generation request",
		zap.Int("image_bytes", len(image)),
		zap.Bool("custom_prompt", cmd.Prompt != ""),
	)

	dto, err := h.generationService.GenerateFromImage(c.Request.Context(), cmd)
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusCreated, dto, "Recipe generated successfully")
}
