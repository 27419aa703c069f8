// Package recommend is the recommendation collaborator: chat completions over the OpenAI API.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/domain"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/observability"
)

const defaultModel = "gpt-4o-mini"

// secretPattern matches OpenAI-style keys that upstream error messages sometimes echo.
var secretPattern = regexp.MustCompile(`sk-[A-Za-z0-9_\-*]{4,}`)

// Config holds recommendation client configuration.
type Config struct {
	APIKey      string
	BaseURL     string // Default: https://api.openai.com/v1
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Client produces recommendation text with a single chat completion per call. It never retries.
type Client struct {
	api         *openai.Client
	apiKey      string
	model       string
	temperature float32
	maxTokens   int
	logger      *observability.Logger
}

// NewClient creates a recommendation client. APIKey is required.
func NewClient(cfg Config, logger *observability.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Client{
		api:         openai.NewClientWithConfig(apiCfg),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger,
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Recommend sends the system instruction and user turn and returns the trimmed reply.
// A blank reply is returned as "" without error.
func (c *Client) Recommend(ctx context.Context, system, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	if c.maxTokens > 0 {
		req.MaxTokens = c.maxTokens
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", c.mapError(ctx, err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// mapError converts a client error into a DomainError with caller-safe details.
func (c *Client) mapError(ctx context.Context, err error) error {
	if derr := domain.FromContext(ctx, "recommendation"); derr != nil {
		return derr
	}
	var netErr interface{ Timeout() bool }
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return domain.TimeoutError("recommendation", err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return domain.RecommendationError(
			"recommendation service error",
			apiErr.HTTPStatusCode,
			c.redact(apiErr.Message),
			err,
		)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		details := ""
		if reqErr.Err != nil {
			details = c.redact(reqErr.Err.Error())
		}
		return domain.RecommendationError(
			"recommendation service error",
			reqErr.HTTPStatusCode,
			details,
			err,
		)
	}

	return domain.RecommendationError("recommendation request failed", 0, c.redact(err.Error()), err)
}

func (c *Client) redact(s string) string {
	if c.apiKey != "" {
		s = strings.ReplaceAll(s, c.apiKey, "[redacted]")
	}
	return secretPattern.ReplaceAllString(s, "[redacted]")
}
