// Package image provides the image-generation adapter. Generation is
// enhancement, not correctness-critical: exhausted retries yield a
// deterministic placeholder reference instead of an error the caller
// has to handle.
package image

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// PlaceholderURL is returned when generation cannot produce a real image.
const PlaceholderURL = "https://placehold.co/1024x1024?text=Campaign+Image"

// Ref is a reference to a generated (or placeholder) image.
type Ref struct {
	URL         string `json:"url"`
	Prompt      string `json:"prompt"`
	Placeholder bool   `json:"placeholder"`
}

// Config configures the adapter.
type Config struct {
	BaseURL        string
	APIKey         string
	Model          string
	Size           string
	MaxPromptChars int
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = "dall-e-3"
	}
	if c.Size == "" {
		c.Size = "1024x1024"
	}
	if c.MaxPromptChars <= 0 {
		c.MaxPromptChars = 3800
	}
	if c.Timeout <= 0 {
		c.Timeout = 90 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 2 * time.Second
	}
	return c
}

// Client is the image-generation adapter.
type Client struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Size   string `json:"size"`
	N      int    `json:"n"`
}

type generateResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// Generate produces an image for the prompt. Over-length prompts are
// truncated to the provider limit (logged, never silent). The returned Ref
// is always usable; the error, when non-nil, reports why a placeholder was
// substituted.
func (c *Client) Generate(ctx context.Context, prompt string) (Ref, error) {
	if len(prompt) > c.cfg.MaxPromptChars {
		c.logger.Warn("image prompt truncated to provider limit",
			zap.Int("original_chars", len(prompt)),
			zap.Int("limit", c.cfg.MaxPromptChars))
		prompt = prompt[:c.cfg.MaxPromptChars]
	}

	op := func() (string, error) {
		url, status, err := c.attempt(ctx, prompt)
		if err != nil {
			if status >= 400 && status < 500 && status != http.StatusTooManyRequests {
				return "", backoff.Permanent(err)
			}
			return "", err
		}
		return url, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.InitialBackoff
	bo.Multiplier = 2
	bo.RandomizationFactor = 0

	url, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(c.cfg.MaxAttempts)))
	if err != nil {
		c.logger.Warn("image generation exhausted retries; using placeholder", zap.Error(err))
		return Ref{URL: PlaceholderURL, Prompt: prompt, Placeholder: true}, err
	}
	return Ref{URL: url, Prompt: prompt}, nil
}

func (c *Client) attempt(ctx context.Context, prompt string) (string, int, error) {
	body, err := json.Marshal(generateRequest{
		Model:  c.cfg.Model,
		Prompt: prompt,
		Size:   c.cfg.Size,
		N:      1,
	})
	if err != nil {
		return "", 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/images/generations", bytes.NewReader(body))
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
		return "", resp.StatusCode, fmt.Errorf("image endpoint returned status %d", resp.StatusCode)
	}

	var decoded generateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", resp.StatusCode, fmt.Errorf("malformed image response: %w", err)
	}
	if len(decoded.Data) == 0 || decoded.Data[0].URL == "" {
		return "", resp.StatusCode, fmt.Errorf("image response contained no url")
	}
	return decoded.Data[0].URL, resp.StatusCode, nil
}
