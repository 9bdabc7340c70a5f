package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/cookscabinet/cabinet/internal/infrastructure/imaging"
	"github.com/cookscabinet/cabinet/internal/ports/inbound"
	apperrors "github.com/cookscabinet/cabinet/pkg/errors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecipeHandlers handles recipe CRUD requests
type RecipeHandlers struct {
	recipeService inbound.RecipeService
	jpegQuality   int
	maxPixels     int
	logger        *zap.Logger
}

// NewRecipeHandlers creates a new recipe handlers instance
func NewRecipeHandlers(
	recipeService inbound.RecipeService,
	jpegQuality int,
	maxPixels int,
	logger *zap.Logger,
) *RecipeHandlers {
	if jpegQuality <= 0 {
		jpegQuality = imaging.DefaultQuality
	}
	return &RecipeHandlers{
		recipeService: recipeService,
		jpegQuality:   jpegQuality,
		maxPixels:     maxPixels,
		logger:        logger,
	}
}

// Register mounts the recipe routes
func (h *RecipeHandlers) Register(rg *gin.RouterGroup) {
	rg.GET("/recipes", h.ListRecipes)
	rg.POST("/recipes", h.CreateRecipe)
	rg.GET("/recipes/:id", h.GetRecipe)
	rg.PATCH("/recipes/:id", h.UpdateRecipe)
	rg.DELETE("/recipes/:id", h.DeleteRecipe)
	rg.GET("/recipes/:id/image", h.GetRecipeImage)
	rg.PUT("/recipes/:id/image", h.SetRecipeImage)
	rg.DELETE("/recipes/:id/image", h.ClearRecipeImage)
}

// ListRecipes handles GET /api/v1/recipes
func (h *RecipeHandlers) ListRecipes(c *gin.Context) {
	var params inbound.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		fail(c, apperrors.NewBadRequestError("Invalid query parameters").WithCause(err))
		return
	}

	list, err := h.recipeService.ListRecipes(c.Request.Context(), params)
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusOK, list, "")
}

// CreateRecipe handles POST /api/v1/recipes
func (h *RecipeHandlers) CreateRecipe(c *gin.Context) {
	var cmd inbound.CreateRecipeCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		fail(c, apperrors.NewBadRequestError("Invalid JSON payload").WithCause(err))
		return
	}

	if len(cmd.Image) > 0 {
		normalized, err := h.normalize(cmd.Image)
		if err != nil {
			fail(c, err)
			return
		}
		cmd.Image = normalized
	}

	dto, err := h.recipeService.CreateRecipe(c.Request.Context(), cmd)
	if err != nil {
		fail(c, err)
		return
	}

	c.Header("Location", fmt.Sprintf("%s/%s", c.FullPath(), dto.ID))
	respond(c, http.StatusCreated, dto, "Recipe created successfully")
}

// GetRecipe handles GET /api/v1/recipes/:id
func (h *RecipeHandlers) GetRecipe(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	dto, err := h.recipeService.GetRecipe(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusOK, dto, "")
}

// UpdateRecipe handles PATCH /api/v1/recipes/:id
func (h *RecipeHandlers) UpdateRecipe(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	var cmd inbound.UpdateRecipeCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		fail(c, apperrors.NewBadRequestError("Invalid JSON payload").WithCause(err))
		return
	}
	cmd.RecipeID = id

	if cmd.Image != nil && len(*cmd.Image) > 0 {
		normalized, err := h.normalize(*cmd.Image)
		if err != nil {
			fail(c, err)
			return
		}
		cmd.Image = &normalized
	}

	dto, err := h.recipeService.UpdateRecipe(c.Request.Context(), cmd)
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusOK, dto, "Recipe updated successfully")
}

// DeleteRecipe handles DELETE /api/v1/recipes/:id
func (h *RecipeHandlers) DeleteRecipe(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	if err := h.recipeService.DeleteRecipe(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetRecipeImage handles GET /api/v1/recipes/:id/image
func (h *RecipeHandlers) GetRecipeImage(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	img, err := h.recipeService.GetRecipeImage(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	etag := fmt.Sprintf("%q", img.Digest)
	c.Header("ETag", etag)
	c.Header("Cache-Control", "public, max-age=0, must-revalidate")
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}

	c.Data(http.StatusOK, img.ContentType, img.Data)
}

// SetRecipeImage handles PUT /api/v1/recipes/:id/image
func (h *RecipeHandlers) SetRecipeImage(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	data, err := readImage(c)
	if err != nil {
		fail(c, err)
		return
	}
	if len(data) == 0 {
		fail(c, apperrors.NewImageError(apperrors.CodeImageRequired, "Image is required", "Send the image as the request body"))
		return
	}

	normalized, err := h.normalize(data)
	if err != nil {
		fail(c, err)
		return
	}

	dto, err := h.recipeService.SetRecipeImage(c.Request.Context(), id, normalized)
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusOK, dto, "Recipe image updated")
}

// ClearRecipeImage handles DELETE /api/v1/recipes/:id/image
func (h *RecipeHandlers) ClearRecipeImage(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	dto, err := h.recipeService.ClearRecipeImage(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	respond(c, http.StatusOK, dto, "Recipe image cleared")
}

// normalize stores every uploaded image as JPEG
func (h *RecipeHandlers) normalize(data []byte) ([]byte, error) {
	out, err := imaging.NormalizeJPEG(data, h.jpegQuality, h.maxPixels)
	if errors.Is(err, imaging.ErrTooLarge) {
		return nil, apperrors.NewImageError(apperrors.CodeImageTooLarge,
			"Image dimensions are too large", "Upload a smaller image").WithCause(err)
	}
	if err != nil {
		return nil, apperrors.NewImageError(apperrors.CodeImageUnsupported,
			"Unsupported image format", "Upload a JPEG, PNG or GIF image").WithCause(err)
	}
	return out, nil
}
