package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shopchat/shopchat/core"
	"github.com/shopchat/shopchat/logging"
)

type fakeRetriever struct {
	products []core.Product
	err      error
	calls    int
}

func (f *fakeRetriever) Search(ctx context.Context, query string, limit int) ([]core.Product, error) {
	f.calls++
	return f.products, f.err
}

func TestShouldSkipRetrieval(t *testing.T) {
	tests := []struct {
		text string
		skip bool
	}{
		{"iPhone'u sepete ekle", true},
		{"Add to cart please", true},
		{"favorilerimi göster", true},
		{"Show my favorites", true},
		{"Bu telefonun kamerası nasıl?", false},
		// Single ambiguous words must not trigger the bypass.
		{"My favorite color is blue", false},
		{"hangisi daha iyi", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.skip, ShouldSkipRetrieval(tt.text), tt.text)
	}
}

func TestGateSkipsForToolIntent(t *testing.T) {
	r := &fakeRetriever{products: []core.Product{{SKU: "SKU-IP15"}}}
	g := NewGate(r, logging.NoOpLogger{})

	assert.Nil(t, g.Retrieve(context.Background(), "sepete ekle"))
	assert.Equal(t, 0, r.calls)
}

func TestGateSwallowsFailures(t *testing.T) {
	r := &fakeRetriever{err: errors.New("qdrant unreachable")}
	g := NewGate(r, logging.NoOpLogger{})

	assert.Nil(t, g.Retrieve(context.Background(), "kamera karşılaştır"))
	assert.Equal(t, 1, r.calls)
}

func TestGateNilRetriever(t *testing.T) {
	g := NewGate(nil, logging.NoOpLogger{})
	assert.Nil(t, g.Retrieve(context.Background(), "herhangi bir şey"))
}

func TestMergeContextDropsDuplicates(t *testing.T) {
	explicit := []core.Product{{SKU: "SKU-IP15"}}
	retrieved := []core.Product{
		{SKU: "sku-ip15"}, // dup, case-insensitive
		{SKU: "SKU-S24"},
	}

	merged := MergeContext(explicit, retrieved)
	assert.Len(t, merged, 1)
	assert.Equal(t, "SKU-S24", merged[0].SKU)
}

func TestMergeContextEmptyRetrieved(t *testing.T) {
	assert.Nil(t, MergeContext([]core.Product{{SKU: "SKU-IP15"}}, nil))
}
