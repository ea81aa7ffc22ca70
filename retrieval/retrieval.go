// Package retrieval decides whether a user message needs semantic product
// retrieval, performs the best-effort lookup, and merges results with the
// session's explicit context. Retrieval is never allowed to fail a turn.
package retrieval

import (
	"context"
	"strings"

	"github.com/shopchat/shopchat/core"
	"github.com/shopchat/shopchat/logging"
)

// DefaultLimit caps how many candidates a retrieval call may return.
const DefaultLimit = 15

// Retriever returns ranked product records relevant to free text, already
// filtered by the backend's similarity threshold.
type Retriever interface {
	Search(ctx context.Context, query string, limit int) ([]core.Product, error)
}

// skipPhrases are cart/favorites intent phrases that bypass retrieval
// entirely: those turns are handled by tools, not product grounding. Exact
// phrase matches only; single generic words ("favorite") would misfire.
var skipPhrases = []string{
	"sepete ekle",
	"sepetime ekle",
	"sepetimde",
	"sepetimi göster",
	"sepeti göster",
	"sepetten çıkar",
	"sepetimden çıkar",
	"sepeti temizle",
	"sepeti boşalt",
	"favorilere ekle",
	"favorilerime ekle",
	"favorilerimi göster",
	"favorilerden çıkar",
	"favorilerimden çıkar",
	"add to cart",
	"add to my cart",
	"show my cart",
	"remove from cart",
	"clear my cart",
	"add to favorites",
	"remove from favorites",
	"show my favorites",
}

// ShouldSkipRetrieval reports whether the message carries a cart/favorites
// intent that makes product retrieval pointless for this turn.
func ShouldSkipRetrieval(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range skipPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// Gate wraps a Retriever with the keyword bypass and failure swallowing.
type Gate struct {
	retriever Retriever
	logger    logging.Logger
	limit     int
}

// GateOptions configures a Gate.
type GateOptions struct {
	// Limit caps the number of candidates per query.
	Limit int
}

// NewGate constructs a Gate. A nil retriever disables retrieval entirely.
func NewGate(retriever Retriever, logger logging.Logger, optFns ...func(o *GateOptions)) *Gate {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	opts := GateOptions{Limit: DefaultLimit}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Gate{retriever: retriever, logger: logger, limit: opts.Limit}
}

// Retrieve returns retrieval candidates for the message, or nil when the
// message carries a tool intent, the retriever is absent, or the backend
// fails. Retrieval is never allowed to fail a turn.
func (g *Gate) Retrieve(ctx context.Context, text string) []core.Product {
	if g.retriever == nil {
		return nil
	}
	if ShouldSkipRetrieval(text) {
		g.logger.Debug("retrieval.skipped", "reason", "tool_intent")
		return nil
	}

	products, err := g.retriever.Search(ctx, text, g.limit)
	if err != nil {
		g.logger.Warn("retrieval.failed", "error", err.Error())
		return nil
	}
	return products
}

// MergeContext drops retrieved items whose SKU is already in the explicit
// context, avoiding duplicate grounding.
func MergeContext(explicit, retrieved []core.Product) []core.Product {
	if len(retrieved) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(explicit))
	for _, p := range explicit {
		seen[core.NormalizeSKU(p.SKU)] = struct{}{}
	}
	var out []core.Product
	for _, p := range retrieved {
		if _, dup := seen[core.NormalizeSKU(p.SKU)]; dup {
			continue
		}
		out = append(out, p)
	}
	return out
}
