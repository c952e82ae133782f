// Package proxy implements the client for the remote chat completion API.
// The endpoint is OpenAI-compatible; only non-streaming completions are used.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 60 * time.Second
	maxRetries     = 3
	initialBackoff = 500 * time.Millisecond
)

// Client communicates with the completion API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewClient creates a completion client with the given API key and model.
func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// NewClientWithBaseURL creates a client pointing at a custom base URL
// (self-hosted gateways, tests).
func NewClientWithBaseURL(apiKey, model, baseURL string) *Client {
	c := NewClient(apiKey, model)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Chat sends messages to the completion endpoint and returns the reply text.
// A single logical attempt is made; only HTTP 429 is retried, with
// exponential backoff, before giving up.
func (c *Client) Chat(ctx context.Context, messages []Message, maxTokens int) (string, error) {
	body, err := json.Marshal(ChatRequest{
		Model:               c.model,
		Messages:            messages,
		MaxCompletionTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	var lastErr error
	for attempt := range maxRetries {
		reply, err := c.doChat(ctx, body)
		if err == nil {
			return reply, nil
		}

		if !isRateLimit(err) {
			return "", err
		}

		lastErr = err
		if attempt < maxRetries-1 {
			backoff := time.Duration(float64(initialBackoff) * math.Pow(2, float64(attempt)))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return "", fmt.Errorf("rate limited after %d retries: %w", maxRetries, lastErr)
}

// rateLimitError is returned on HTTP 429.
type rateLimitError struct {
	status int
}

func (e *rateLimitError) Error() string {
	return fmt.Sprintf("rate limited (HTTP %d)", e.status)
}

func isRateLimit(err error) bool {
	_, ok := err.(*rateLimitError)
	return ok
}

func (c *Client) doChat(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &rateLimitError{status: resp.StatusCode}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var parsed chatResponse
		if json.Unmarshal(respBody, &parsed) == nil && parsed.Error != nil {
			return "", fmt.Errorf("completion API error (%s): %s", parsed.Error.Type, parsed.Error.Message)
		}
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion response has no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
