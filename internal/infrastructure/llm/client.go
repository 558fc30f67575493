package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/cartscout/backend/internal/domain"
)

// Client sends cart selection prompts to an OpenAI-compatible chat completion API.
type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// Config holds the chat completion settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	Logger      *zap.Logger
}

// NewClient creates a chat completion client.
func NewClient(cfg *Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger,
	}
}

// Complete implements domain.SelectionClient. It makes exactly one request and
// returns the raw text of the first choice; decoding is the caller's job.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		c.logger.Warn("Selection request failed",
			zap.String("model", c.model),
			zap.Duration("latency", duration),
			zap.Error(err),
		)
		return "", parseAPIError(err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("empty completion response: %w", domain.ErrSelectionParse)
	}

	c.logger.Info("Selection request completed",
		zap.String("model", c.model),
		zap.Duration("latency", duration),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
	)
	return resp.Choices[0].Message.Content, nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrSelectionUnavailable.
func parseAPIError(err error) error {
	wrap := domain.ErrSelectionUnavailable

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if detail := extractDetail(reqErr.Body); detail != "" {
			return fmt.Errorf("completion API error %d: %s: %w", reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("completion API error %d: %s: %w", reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("completion API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("completion request aborted: %v: %w", err, wrap)
	}
	return fmt.Errorf("completion request failed: %v: %w", err, wrap)
}

// extractDetail reads the "detail" field some OpenAI-compatible gateways return
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
