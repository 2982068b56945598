// Package openai adapts an OpenAI-compatible chat-completions and embeddings
// API to the classification, assessment and embedding ports.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

type Client struct {
	baseURL       string
	apiKey        string
	classifyModel string
	assessModel   string
	embedModel    string
	httpClient    *http.Client
	limiter       *rate.Limiter
}

type Options struct {
	BaseURL       string
	APIKey        string
	ClassifyModel string
	AssessModel   string
	EmbedModel    string
	// RequestsPerSecond throttles all outbound calls; zero disables throttling.
	RequestsPerSecond float64
	Timeout           time.Duration
}

func New(opts Options) *Client {
	if opts.ClassifyModel == "" {
		opts.ClassifyModel = "gpt-4o-mini"
	}
	if opts.AssessModel == "" {
		opts.AssessModel = "gpt-4o"
	}
	if opts.EmbedModel == "" {
		opts.EmbedModel = "text-embedding-3-small"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &Client{
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		apiKey:        opts.APIKey,
		classifyModel: opts.ClassifyModel,
		assessModel:   opts.AssessModel,
		embedModel:    opts.EmbedModel,
		httpClient:    &http.Client{Timeout: opts.Timeout},
		limiter:       limiter,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// completeJSON sends one system+user exchange and returns the assistant text,
// requesting a JSON object response.
func (c *Client) completeJSON(ctx context.Context, model, system, user, operation string) (string, error) {
	req := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:    0,
		ResponseFormat: map[string]any{"type": "json_object"},
	}

	var resp chatResponse
	if err := c.postJSON(ctx, "/v1/chat/completions", req, &resp, operation); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: empty choices in engine response", operation)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *Client) embed(ctx context.Context, text string) ([]float32, error) {
	req := map[string]any{
		"model": c.embedModel,
		"input": text,
	}
	var resp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := c.postJSON(ctx, "/v1/embeddings", req, &resp, "embed"); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embed: empty embedding result")
	}
	return resp.Data[0].Embedding, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any, operation string) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("engine %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &HTTPStatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(raw)),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

// extractJSONObject tolerates engines that wrap JSON in prose or code fences.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
