package assemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopchat/shopchat/core"
)

func TestBuildPrompt(t *testing.T) {
	phone := core.Product{SKU: "SKU-IP15", Name: "iPhone 15", Brand: "Apple"}
	laptop := core.Product{SKU: "SKU-MBA", Name: "MacBook Air M3", Brand: "Apple"}

	t.Run("explicit only", func(t *testing.T) {
		prompt := BuildPrompt([]core.Product{phone}, nil, "sess-1", false)
		assert.Contains(t, prompt, "karşılaştırılacak ürünlerin bilgileri")
		assert.Contains(t, prompt, "SKU-IP15")
		assert.NotContains(t, prompt, "Aramayla eşleşen")
	})

	t.Run("retrieved only", func(t *testing.T) {
		prompt := BuildPrompt(nil, []core.Product{laptop}, "sess-1", false)
		assert.Contains(t, prompt, "sorusuyla eşleşen ürünler")
		assert.Contains(t, prompt, "SKU-MBA")
	})

	t.Run("both sections are distinct", func(t *testing.T) {
		prompt := BuildPrompt([]core.Product{phone}, []core.Product{laptop}, "sess-1", false)
		assert.Contains(t, prompt, "Kullanıcının seçtiği ürünler")
		assert.Contains(t, prompt, "Aramayla eşleşen diğer ürünler")
		assert.Contains(t, prompt, "SKU-IP15")
		assert.Contains(t, prompt, "SKU-MBA")
	})

	t.Run("neither", func(t *testing.T) {
		prompt := BuildPrompt(nil, nil, "sess-1", false)
		assert.Contains(t, prompt, "ürün bağlamı yok")
		assert.NotContains(t, prompt, "SKU-")
	})

	t.Run("tool directives carry session identity", func(t *testing.T) {
		prompt := BuildPrompt([]core.Product{phone}, nil, "sess-42", true)
		require.Contains(t, prompt, "Araç kullanım kuralları")
		assert.Contains(t, prompt, `userId olarak "sess-42"`)
		assert.Contains(t, prompt, "quantity 1")
	})

	t.Run("no tool directives without tools", func(t *testing.T) {
		prompt := BuildPrompt([]core.Product{phone}, nil, "sess-42", false)
		assert.NotContains(t, prompt, "Araç kullanım kuralları")
	})
}
