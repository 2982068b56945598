package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dkozyrev/reg-radar/internal/core/domain"
	"github.com/dkozyrev/reg-radar/internal/core/ports"
	"github.com/dkozyrev/reg-radar/internal/infrastructure/resilience"
)

// Classifier implements the relevance-scoring engine port.
type Classifier struct {
	client *Client
	exec   *resilience.Executor
}

func NewClassifier(client *Client, exec *resilience.Executor) *Classifier {
	return &Classifier{client: client, exec: exec}
}

type classifyPayload struct {
	RelevanceScore int      `json:"relevance_score"`
	Confidence     float64  `json:"confidence"`
	Pillars        []string `json:"pillars"`
	Categories     []string `json:"categories"`
	Reasoning      string   `json:"reasoning"`
}

func (c *Classifier) Classify(ctx context.Context, input ports.ClassificationInput) (ports.ClassificationResult, error) {
	var raw string
	err := c.exec.Execute(ctx, "engine.classify", func(ctx context.Context) error {
		var callErr error
		raw, callErr = c.client.completeJSON(ctx, c.client.classifyModel,
			classifySystemPrompt, buildClassifyPrompt(input), "classify")
		return callErr
	}, classifyEngineError)
	if err != nil {
		return ports.ClassificationResult{}, wrapTemporaryIfNeeded("classify", err)
	}

	var payload classifyPayload
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &payload); err != nil {
		return ports.ClassificationResult{}, fmt.Errorf("parse classification json: %w", err)
	}

	pillars := make([]domain.Pillar, 0, len(payload.Pillars))
	for _, p := range payload.Pillars {
		pillars = append(pillars, domain.Pillar(p))
	}
	categories := payload.Categories
	if categories == nil {
		categories = []string{}
	}

	return ports.ClassificationResult{
		RelevanceScore: payload.RelevanceScore,
		Confidence:     payload.Confidence,
		Pillars:        pillars,
		Categories:     categories,
		Reasoning:      payload.Reasoning,
		ModelID:        c.client.classifyModel,
	}, nil
}
