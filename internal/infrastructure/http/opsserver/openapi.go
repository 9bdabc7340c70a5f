package opsserver

import (
	_ "embed"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openAPISpec []byte

// OpenAPIHandler serves the API description in YAML and JSON
type OpenAPIHandler struct {
	logger   *zap.Logger
	jsonSpec []byte
}

// NewOpenAPIHandler converts the embedded document once at startup
func NewOpenAPIHandler(logger *zap.Logger) *OpenAPIHandler {
	h := &OpenAPIHandler{logger: logger}

	var doc map[string]interface{}
	if err := yaml.Unmarshal(openAPISpec, &doc); err != nil {
		logger.Error("Failed to parse OpenAPI document", zap.Error(err))
		return h
	}

	data, err := json.Marshal(doc)
	if err != nil {
		logger.Error("Failed to encode OpenAPI document", zap.Error(err))
		return h
	}
	h.jsonSpec = data

	return h
}

// ServeYAML serves the OpenAPI document as written
func (h *OpenAPIHandler) ServeYAML(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	w.Write(openAPISpec)
}

// ServeJSON serves the OpenAPI document converted to JSON
func (h *OpenAPIHandler) ServeJSON(w http.ResponseWriter, r *http.Request) {
	if h.jsonSpec == nil {
		http.Error(w, "OpenAPI document unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(h.jsonSpec)
}
