package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cookscabinet/cabinet/internal/infrastructure/config"
	"github.com/cookscabinet/cabinet/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(&config.AIConfig{OllamaURL: server.URL, OllamaModel: "llava"}, zap.NewNop())
}

func TestInferRecipe(t *testing.T) {
	image := []byte("jpeg bytes")

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var body chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "llava", body.Model)
		assert.False(t, body.Stream)
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "system", body.Messages[0].Role)
		assert.Equal(t, "instruction", body.Messages[0].Content)
		assert.Equal(t, "prompt", body.Messages[1].Content)
		assert.Equal(t, []string{base64.StdEncoding.EncodeToString(image)}, body.Messages[1].Images)

		w.Write([]byte(`{"model":"llava","message":{"role":"assistant","content":"a recipe"},"done":true}`))
	})

	text, err := client.InferRecipe(context.Background(), outbound.InferenceRequest{
		Instruction: "instruction",
		Prompt:      "prompt",
		Image:       image,
	})

	require.NoError(t, err)
	assert.Equal(t, "a recipe", text)
}

func TestInferRecipe_ErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	})

	_, err := client.InferRecipe(context.Background(), outbound.InferenceRequest{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}

func TestPing(t *testing.T) {
	t.Run("model present", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/tags", r.URL.Path)
			w.Write([]byte(`{"models":[{"name":"llama3.2:3b"},{"name":"llava:latest"}]}`))
		})

		assert.NoError(t, client.Ping(context.Background()))
	})

	t.Run("model missing", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"models":[{"name":"llama3.2:3b"}]}`))
		})

		assert.Error(t, client.Ping(context.Background()))
	})
}
