package openai

import (
	"context"

	"github.com/dkozyrev/reg-radar/internal/infrastructure/resilience"
)

// Embedder implements the embedding port used by the similarity index.
type Embedder struct {
	client *Client
	exec   *resilience.Executor
}

func NewEmbedder(client *Client, exec *resilience.Executor) *Embedder {
	return &Embedder{client: client, exec: exec}
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := e.exec.Execute(ctx, "engine.embed", func(ctx context.Context) error {
		var callErr error
		vector, callErr = e.client.embed(ctx, text)
		return callErr
	}, classifyEngineError)
	if err != nil {
		return nil, wrapTemporaryIfNeeded("embed", err)
	}
	return vector, nil
}
