// Package provider wraps the chat-completion backends the pipeline talks
// to: any OpenAI-compatible HTTP endpoint plus a deterministic mock.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config holds everything needed to reach a chat-completion endpoint.
type Config struct {
	Kind    Kind
	BaseURL string
	APIKey  string
	Timeout int // seconds, 0 means default
}

const defaultTimeoutSeconds = 120

// Build returns the client for the configured provider kind.
func Build(cfg Config, retry RetryPolicy) (Client, error) {
	switch cfg.Kind {
	case KindMock:
		return NewMockClient(), nil
	case KindOpenAICompat, KindOpenRouter, KindVLLM, "":
		return NewHTTPClient(cfg, retry), nil
	default:
		return nil, fmt.Errorf("unknown provider kind: %s", cfg.Kind)
	}
}

// DefaultBaseURL returns the conventional endpoint for a provider kind.
func DefaultBaseURL(kind Kind) string {
	switch kind {
	case KindOpenRouter:
		return "https://openrouter.ai/api/v1"
	default:
		return "http://localhost:8000/v1"
	}
}

// HTTPClient talks to an OpenAI-compatible /chat/completions endpoint.
// Thread-safe for concurrent use.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	retry      RetryPolicy
	httpClient *http.Client
}

func NewHTTPClient(cfg Config, retry RetryPolicy) *HTTPClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL(cfg.Kind)
	}
	timeout := defaultTimeoutSeconds
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		retry:   retry,
		httpClient: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Chat sends the messages and returns the assistant's text content,
// retrying per the configured policy.
func (c *HTTPClient) Chat(ctx context.Context, model string, messages []Message) (string, error) {
	var content string
	err := c.retry.Do(ctx, func() error {
		var err error
		content, err = c.chatOnce(ctx, model, messages)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	return content, nil
}

func (c *HTTPClient) chatOnce(ctx context.Context, model string, messages []Message) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var parsed chatResponse
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// error bodies are not always JSON; gateways answer with HTML
		if json.Unmarshal(body, &parsed) == nil && parsed.Error != nil && parsed.Error.Message != "" {
			return "", fmt.Errorf("provider returned status %d: %s", resp.StatusCode, parsed.Error.Message)
		}
		return "", fmt.Errorf("provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return "", fmt.Errorf("provider error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return parsed.Choices[0].Message.Content, nil
}
