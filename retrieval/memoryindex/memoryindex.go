// Package memoryindex provides an in-memory retrieval.Retriever backed by
// brute-force cosine similarity. It is meant for development and tests where
// a Qdrant instance is not available.
package memoryindex

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/shopchat/shopchat/core"
	"github.com/shopchat/shopchat/retrieval/qdrant"
)

// ScoreThreshold matches the server-side cutoff used in production search.
const ScoreThreshold = 0.5

type indexed struct {
	product core.Product
	vector  []float32
}

// Index is a concurrency-safe in-memory vector index over products.
type Index struct {
	embedder qdrant.Embedder

	mu    sync.RWMutex
	items []indexed
}

// NewIndex constructs an empty index using embedder for both documents and
// queries.
func NewIndex(embedder qdrant.Embedder) *Index {
	return &Index{embedder: embedder}
}

// Add embeds and stores a product. The text embedded is the product's name,
// brand and category joined, which is enough for the small catalogs this
// index is used with.
func (idx *Index) Add(ctx context.Context, p core.Product) error {
	vector, err := idx.embedder.Embed(ctx, p.Name+" "+p.Brand+" "+p.Category)
	if err != nil {
		return err
	}
	idx.mu.Lock()
	idx.items = append(idx.items, indexed{product: p, vector: vector})
	idx.mu.Unlock()
	return nil
}

// Len reports the number of indexed products.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.items)
}

// Search returns up to limit products whose cosine similarity to the query
// clears the threshold, best matches first.
func (idx *Index) Search(ctx context.Context, query string, limit int) ([]core.Product, error) {
	vector, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	type scored struct {
		product core.Product
		score   float64
	}

	idx.mu.RLock()
	hits := make([]scored, 0, len(idx.items))
	for _, item := range idx.items {
		score := cosineSimilarity(vector, item.vector)
		if score >= ScoreThreshold {
			hits = append(hits, scored{product: item.product, score: score})
		}
	}
	idx.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	products := make([]core.Product, 0, len(hits))
	for _, h := range hits {
		products = append(products, h.product)
	}
	return products, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		fa := float64(a[i])
		fb := float64(b[i])
		dot += fa * fb
		normA += fa * fa
		normB += fb * fb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
