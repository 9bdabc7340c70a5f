// Package openai provides the OpenAI chat completion and image generation client
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cookscabinet/cabinet/internal/infrastructure/config"
	"github.com/cookscabinet/cabinet/internal/ports/outbound"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrMissingAPIKey is returned when a call is made without a configured key
var ErrMissingAPIKey = errors.New("openai api key is not configured")

// ErrEmptyResponse is returned when the API answers without usable content
var ErrEmptyResponse = errors.New("openai returned no content")

const defaultBaseURL = "https://api.openai.com"

// Client talks to the OpenAI REST API
type Client struct {
	apiKey     string
	baseURL    string
	chatModel  string
	imageModel string
	imageSize  string
	store      bool
	client     *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

var (
	_ outbound.RecipeInferrer = (*Client)(nil)
	_ outbound.ImageGenerator = (*Client)(nil)
)

// NewClient creates a new OpenAI client
func NewClient(cfg *config.AIConfig, logger *zap.Logger) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	logger = logger.Named("openai-client")
	if cfg.APIKey == "" {
		logger.Warn("OpenAI API key not configured, generation requests will fail")
	} else {
		logger.Info("OpenAI client initialized",
			zap.String("base_url", baseURL),
			zap.String("chat_model", cfg.ChatModel),
			zap.String("image_model", cfg.ImageModel))
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		chatModel:  cfg.ChatModel,
		imageModel: cfg.ImageModel,
		imageSize:  cfg.ImageSize,
		store:      cfg.StoreCompletions,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// OpenAI API structures
type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Store    bool          `json:"store,omitempty"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type imageGenerationRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size,omitempty"`
}

type imageGenerationResponse struct {
	Data []struct {
		URL           string `json:"url"`
		B64JSON       string `json:"b64_json"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
}

// APIError is the error body returned by the API
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	Code       string `json:"code"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("openai error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("openai error %d: %s", e.StatusCode, e.Message)
}

// InferRecipe sends the photo to the chat completions endpoint and returns
// the assistant text
func (c *Client) InferRecipe(ctx context.Context, req outbound.InferenceRequest) (string, error) {
	mimeType := req.MIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	body := chatCompletionRequest{
		Model: c.chatModel,
		Messages: []chatMessage{
			{
				Role:    "developer",
				Content: []contentPart{{Type: "text", Text: req.Instruction}},
			},
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: req.Prompt},
					{Type: "image_url", ImageURL: &imageURL{
						URL: "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(req.Image),
					}},
				},
			},
		},
		Store: c.store,
	}

	var resp chatCompletionResponse
	if err := c.post(ctx, "/v1/chat/completions", body, &resp); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}

	c.logger.Info("Chat completion succeeded",
		zap.String("model", c.chatModel),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.String("finish_reason", resp.Choices[0].FinishReason),
	)

	return resp.Choices[0].Message.Content, nil
}

// GenerateImage creates one image for prompt
func (c *Client) GenerateImage(ctx context.Context, prompt string) (*outbound.GeneratedImage, error) {
	body := imageGenerationRequest{
		Model:  c.imageModel,
		Prompt: prompt,
		N:      1,
		Size:   c.imageSize,
	}

	var resp imageGenerationResponse
	if err := c.post(ctx, "/v1/images/generations", body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, ErrEmptyResponse
	}

	first := resp.Data[0]
	result := &outbound.GeneratedImage{URL: first.URL, RevisedPrompt: first.RevisedPrompt}
	if first.B64JSON != "" {
		data, err := base64.StdEncoding.DecodeString(first.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("decode generated image: %w", err)
		}
		result.Data = data
	}
	if result.URL == "" && len(result.Data) == 0 {
		return nil, ErrEmptyResponse
	}

	c.logger.Info("Image generation succeeded",
		zap.String("model", c.imageModel),
		zap.Bool("inline", len(result.Data) > 0))

	return result, nil
}

// Ping lists models to confirm the key is accepted
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/v1/models", nil, nil)
}

// Configured reports whether an API key is present
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, payload, out)
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, out interface{}) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("OpenAI request completed",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func decodeError(status int, body []byte) error {
	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		envelope.Error.StatusCode = status
		return envelope.Error
	}
	return &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}
}
