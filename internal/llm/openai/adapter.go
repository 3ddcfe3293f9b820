// Package openai implements llm.Generator against any OpenAI-compatible
// chat-completions endpoint (api.openai.com or a proxy).
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/routelab/optiroute/internal/llm"
)

// Adapter implements llm.Generator for the chat-completions API.
type Adapter struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	client      *http.Client
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithTimeout sets the HTTP client timeout for model calls.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) { a.client.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client (e.g. to add an
// otelhttp transport). Apply before WithTimeout when combining.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) { a.client = c }
}

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(a *Adapter) { a.model = model }
}

// New creates an adapter for the given API key and base URL.
func New(apiKey, baseURL string, opts ...Option) *Adapter {
	a := &Adapter{
		apiKey:      apiKey,
		baseURL:     baseURL,
		model:       "gpt-3.5-turbo",
		temperature: 0.7,
		maxTokens:   500,
		client:      &http.Client{},
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (a *Adapter) Generate(ctx context.Context, system, prompt string) (string, error) {
	payload := map[string]any{
		"model": a.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": prompt},
		},
		"temperature": a.temperature,
		"max_tokens":  a.maxTokens,
	}

	body, err := llm.DoRequest(ctx, a.client, a.baseURL+"/chat/completions", payload, map[string]string{
		"Authorization": "Bearer " + a.apiKey,
	})
	if err != nil {
		return "", err
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("response contained no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
