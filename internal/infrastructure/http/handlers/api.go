// Package handlers provides HTTP handlers for the REST API
package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"

	apperrors "github.com/cookscabinet/cabinet/pkg/errors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool                    `json:"success"`
	Data    interface{}             `json:"data,omitempty"`
	Error   *apperrors.ErrorDetails `json:"error,omitempty"`
	Message string                  `json:"message,omitempty"`
}

func respond(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// fail hands the error to the error handler middleware
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func recipeID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, apperrors.NewBadRequestError("Invalid recipe id").WithCause(err))
		return uuid.Nil, false
	}
	return id, true
}

// readImage returns the uploaded image from a multipart "image" field
// or, for any other content type, the raw request body
func readImage(c *gin.Context) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(c.GetHeader("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, bodyError(err)
		}
		return data, nil
	}

	header, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, apperrors.NewImageError(apperrors.CodeImageRequired,
				"Image is required", "Attach the photo as the multipart field \"image\"")
		}
		return nil, bodyError(err)
	}

	file, err := header.Open()
	if err != nil {
		return nil, bodyError(err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, bodyError(err)
	}
	return data, nil
}

func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return err
	}
	return apperrors.NewBadRequestError("Could not read request body").WithCause(err)
}
