package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultEmbeddingModel balances quality and cost for short product queries.
const DefaultEmbeddingModel = openai.EmbeddingModelTextEmbedding3Small

// Embedder turns text into dense vectors using the OpenAI embeddings API.
// It satisfies the retrieval side's Embedder interface.
type Embedder struct {
	client openai.Client
	model  openai.EmbeddingModel
}

// NewEmbedder constructs an Embedder authenticated with apiKey.
func NewEmbedder(apiKey string) *Embedder {
	return &Embedder{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  DefaultEmbeddingModel,
	}
}

// Embed returns the embedding vector for text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response contained no data")
	}

	raw := resp.Data[0].Embedding
	vector := make([]float32, len(raw))
	for i, v := range raw {
		vector[i] = float32(v)
	}
	return vector, nil
}
