// Package llm provides the chat-completion adapter the agents speak through.
// It wraps an OpenAI-compatible HTTP endpoint with timeout, bounded retry
// with exponential backoff, and a typed failure after exhaustion.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ronappleton/campaign-engine/internal/campaign"
	"go.uber.org/zap"
)

// Config configures the adapter.
type Config struct {
	BaseURL        string
	APIKey         string
	Model          string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 2 * time.Second
	}
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	return c
}

// Error is the typed failure raised after retries exhaust. It carries the
// last underlying cause; callers decide how to degrade.
type Error struct {
	Attempts int
	Status   int
	Cause    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("llm completion failed after %d attempts: %v", e.Attempts, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Client is the LLM adapter. Stateless between calls.
type Client struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// New creates an adapter against an OpenAI-compatible completion endpoint.
func New(cfg Config, logger *zap.Logger) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type chatRequest struct {
	Model       string             `json:"model"`
	Messages    []campaign.Message `json:"messages"`
	Temperature float64            `json:"temperature"`
	MaxTokens   int                `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the messages and returns the completion text. Transient
// failures (timeouts, rate limits, malformed responses) are retried up to
// MaxAttempts with exponential backoff; after exhaustion a *Error surfaces.
func (c *Client) Complete(ctx context.Context, messages []campaign.Message, temperature float64, maxTokens int) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("llm: messages must not be empty")
	}
	if temperature < 0 || temperature > 1 {
		return "", fmt.Errorf("llm: temperature %v out of range [0,1]", temperature)
	}

	attempts := 0
	lastStatus := 0
	op := func() (string, error) {
		attempts++
		text, status, err := c.attempt(ctx, messages, temperature, maxTokens)
		lastStatus = status
		if err != nil {
			if status >= 400 && status < 500 && status != http.StatusTooManyRequests {
				return "", backoff.Permanent(err)
			}
			c.logger.Warn("llm attempt failed",
				zap.Int("attempt", attempts),
				zap.Int("status", status),
				zap.Error(err))
			return "", err
		}
		return text, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.InitialBackoff
	bo.Multiplier = 2
	bo.RandomizationFactor = 0

	text, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(c.cfg.MaxAttempts)))
	if err != nil {
		return "", &Error{Attempts: attempts, Status: lastStatus, Cause: err}
	}
	return text, nil
}

func (c *Client) attempt(ctx context.Context, messages []campaign.Message, temperature float64, maxTokens int) (string, int, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, err
	}
	if resp.StatusCode != http.StatusOK {
		return "", resp.StatusCode, fmt.Errorf("llm endpoint returned status %d", resp.StatusCode)
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		// One tolerant re-parse of the structured portion before the
		// attempt counts as a retry-eligible failure.
		if extracted, ok := ExtractJSON(string(raw)); ok {
			if err2 := json.Unmarshal([]byte(extracted), &decoded); err2 == nil {
				c.logger.Warn("llm response required tolerant re-parse")
				return contentOf(decoded, resp.StatusCode)
			}
		}
		return "", resp.StatusCode, fmt.Errorf("malformed llm response: %w", err)
	}
	return contentOf(decoded, resp.StatusCode)
}

func contentOf(decoded chatResponse, status int) (string, int, error) {
	if len(decoded.Choices) == 0 || decoded.Choices[0].Message.Content == "" {
		return "", status, fmt.Errorf("llm response contained no content")
	}
	return decoded.Choices[0].Message.Content, status, nil
}
