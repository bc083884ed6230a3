// Package llm is a small client for the Anthropic Messages API: one system
// prompt, one user turn, text out.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-sonnet-20241022"
	DefaultMaxTokens = 3000
	DefaultTimeout   = 60 * time.Second
	APIVersion       = "2023-06-01"
	messagesPath     = "/v1/messages"
)

var (
	ErrNotConfigured = errors.New("llm: api key is not configured")
	ErrEmptyResponse = errors.New("llm: response has no text content")
)

// StatusError is a non-2xx reply from the API.
type StatusError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("llm: api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("llm: api returned status %d: %s: %s", e.StatusCode, e.Type, e.Message)
}

type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type MessagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
}

type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type MessagesResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Role       string         `json:"role"`
	Model      string         `json:"model"`
	Content    []ContentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      Usage          `json:"usage"`
}

type errorEnvelope struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client calls the Messages API. Requests are not retried.
type Client struct {
	http      *resty.Client
	apiKey    string
	model     string
	maxTokens int
	logger    zerolog.Logger
}

func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	rc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("anthropic-version", APIVersion)
	if cfg.APIKey != "" {
		rc.SetHeader("x-api-key", cfg.APIKey)
	}

	return &Client{
		http:      rc,
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    logger.With().Str("component", "llm").Logger(),
	}
}

// Model returns the model requests are sent to.
func (c *Client) Model() string { return c.model }

// Complete sends a single user turn and returns the concatenated text blocks
// of the reply.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	req := MessagesRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    system,
		Messages:  []Message{{Role: "user", Content: user}},
	}

	start := time.Now()
	var out MessagesResponse
	var apiErr errorEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&apiErr).
		Post(messagesPath)
	if err != nil {
		c.logger.Error().Err(err).Msg("messages request failed")
		return "", fmt.Errorf("llm: messages request: %w", err)
	}
	if resp.IsError() {
		serr := &StatusError{
			StatusCode: resp.StatusCode(),
			Type:       apiErr.Error.Type,
			Message:    apiErr.Error.Message,
		}
		c.logger.Error().
			Int("status", serr.StatusCode).
			Str("error_type", serr.Type).
			Msg("messages api returned error")
		return "", serr
	}

	var sb strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}

	c.logger.Info().
		Str("model", out.Model).
		Str("stop_reason", out.StopReason).
		Int("input_tokens", out.Usage.InputTokens).
		Int("output_tokens", out.Usage.OutputTokens).
		Dur("latency", time.Since(start)).
		Msg("messages request completed")
	return sb.String(), nil
}
