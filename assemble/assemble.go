// Package assemble builds the per-turn system prompt from explicit product
// selections, retrieved candidates and tool availability.
package assemble

import (
	"encoding/json"
	"strings"

	"github.com/shopchat/shopchat/core"
)

// FallbackMessage is returned verbatim when a turn has no product context
// and no tools to fall back on.
const FallbackMessage = "Üzgünüm, karşılaştırılacak ürün bulamadım. Lütfen ürün seçin veya aramanızı farklı kelimelerle deneyin."

const basePrompt = `Sen bir ürün karşılaştırma asistanısın. Kullanıcıya ürünleri karşılaştırmasında yardımcı oluyorsun.

Görevlerin:
- Ürünleri özelliklerine göre karşılaştır
- Avantaj ve dezavantajları belirt
- Kullanıcının ihtiyacına göre öneri yap
- Fiyat/performans değerlendirmesi yap
- Türkçe cevap ver
- Kısa ve öz cevaplar ver, gereksiz uzatma`

// BuildPrompt renders the system prompt for one turn. The product context
// section differs depending on which of explicit and retrieved are present;
// tool directives are appended only when the model has tools to call.
func BuildPrompt(explicit, retrieved []core.Product, sessionID string, toolsAvailable bool) string {
	var b strings.Builder
	b.WriteString(basePrompt)

	switch {
	case len(explicit) > 0 && len(retrieved) > 0:
		b.WriteString("\n\nKullanıcının seçtiği ürünler:\n\n")
		b.WriteString(renderProducts(explicit))
		b.WriteString("\n\nAramayla eşleşen diğer ürünler (gerekirse öner):\n\n")
		b.WriteString(renderProducts(retrieved))
	case len(explicit) > 0:
		b.WriteString("\n\nAşağıda karşılaştırılacak ürünlerin bilgileri verilmiştir:\n\n")
		b.WriteString(renderProducts(explicit))
	case len(retrieved) > 0:
		b.WriteString("\n\nKullanıcının sorusuyla eşleşen ürünler:\n\n")
		b.WriteString(renderProducts(retrieved))
	default:
		b.WriteString("\n\nŞu anda ürün bağlamı yok. Kullanıcıya hangi ürünlerle ilgilendiğini sor.")
	}

	if toolsAvailable {
		b.WriteString("\n\nAraç kullanım kuralları:\n")
		b.WriteString("- Sepet ve favori araçlarını çağırırken userId olarak \"" + sessionID + "\" değerini kullan\n")
		b.WriteString("- Sepete eklemede miktar belirtilmemişse quantity 1 kullan\n")
		b.WriteString("- Araç sonuçlarını (başarı veya hata) kullanıcıya doğal dilde aktar")
	}

	return b.String()
}

func renderProducts(products []core.Product) string {
	data, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(data)
}
