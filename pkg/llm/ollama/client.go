// Package ollama provides an llm.Provider backed by a local Ollama service.
//
// Ollama keeps generation on the user's machine, which matches the
// privacy posture of the encrypted store: entry text never leaves the host.
// It is the default provider when no API key is configured.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lucidnotes/memvault/pkg/llm"
)

// Client implements llm.Provider against the Ollama chat API.
type Client struct {
	client  *http.Client
	model   string
	baseURL string
}

// Config is the Ollama provider configuration.
type Config struct {
	// Model is the model name, defaults to "gemma2:2b".
	Model string

	// BaseURL is the Ollama service address, defaults to
	// "http://localhost:11434".
	BaseURL string

	// HTTPClient overrides the default client (120s timeout; local models
	// can be slow on first load).
	HTTPClient *http.Client
}

// NewClient creates a new Ollama provider.
func NewClient(cfg *Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	model := cfg.Model
	if model == "" {
		model = "gemma2:2b"
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	return &Client{
		client:  client,
		model:   model,
		baseURL: baseURL,
	}, nil
}

// Generate generates text from a single prompt.
func (c *Client) Generate(ctx context.Context, prompt string, opts ...llm.GenerateOption) (string, error) {
	return c.GenerateWithMessages(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

// GenerateWithMessages generates text from a conversation history.
// Ollama names the token limit "num_predict" rather than "max_tokens".
func (c *Client) GenerateWithMessages(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (string, error) {
	options := llm.ApplyGenerateOptions(opts)

	reqBody := map[string]interface{}{
		"model":    c.model,
		"messages": messages,
		"stream":   false,
		"options": map[string]interface{}{
			"temperature": options.Temperature,
			"num_predict": options.MaxTokens,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/chat", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if response.Message.Content == "" {
		return "", errors.New("llm generation failed: empty response from Ollama API")
	}
	return response.Message.Content, nil
}

// Close is a no-op; the HTTP client holds no long-lived resources.
func (c *Client) Close() error {
	return nil
}
