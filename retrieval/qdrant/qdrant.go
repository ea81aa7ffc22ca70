// Package qdrant implements retrieval.Retriever against Qdrant's REST
// points-search endpoint. Queries are embedded by a pluggable Embedder and
// filtered server-side by a cosine similarity threshold.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopchat/shopchat/core"
)

// Collection and threshold tuning for the product index.
const (
	DefaultCollection = "products"
	// ScoreThreshold is the minimum cosine similarity; results below it
	// are discarded by the server.
	ScoreThreshold = 0.5
)

// Embedder turns free text into a dense vector matching the collection's
// dimensionality.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Options configures the Qdrant retriever.
type Options struct {
	Collection     string
	ScoreThreshold float64
	HTTPClient     *http.Client
}

// Retriever searches a Qdrant collection of product payloads.
type Retriever struct {
	baseURL  string
	embedder Embedder
	opts     Options
}

// NewRetriever constructs a Retriever for the Qdrant instance at baseURL.
func NewRetriever(baseURL string, embedder Embedder, optFns ...func(o *Options)) *Retriever {
	opts := Options{
		Collection:     DefaultCollection,
		ScoreThreshold: ScoreThreshold,
		HTTPClient:     &http.Client{Timeout: 10 * time.Second},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Retriever{baseURL: baseURL, embedder: embedder, opts: opts}
}

type searchRequest struct {
	Vector         []float32 `json:"vector"`
	Limit          int       `json:"limit"`
	WithPayload    bool      `json:"with_payload"`
	ScoreThreshold float64   `json:"score_threshold"`
}

type searchResponse struct {
	Result []struct {
		Payload core.Product `json:"payload"`
	} `json:"result"`
}

// Search embeds the query and returns up to limit product payloads above
// the similarity threshold, ranked by the server.
func (r *Retriever) Search(ctx context.Context, query string, limit int) ([]core.Product, error) {
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	body, err := json.Marshal(searchRequest{
		Vector:         vector,
		Limit:          limit,
		WithPayload:    true,
		ScoreThreshold: r.opts.ScoreThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", r.baseURL, r.opts.Collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qdrant search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("qdrant search: unexpected status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	products := make([]core.Product, 0, len(parsed.Result))
	for _, hit := range parsed.Result {
		products = append(products, hit.Payload)
	}
	return products, nil
}
