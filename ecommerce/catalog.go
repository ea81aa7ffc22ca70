// Package ecommerce hosts the mock store backend: a fixed product catalog
// plus in-memory cart and favorites services keyed by user id. All state is
// process-local and lost on restart.
package ecommerce

import (
	"sort"

	"github.com/shopchat/shopchat/core"
)

// Currency is the single currency the catalog prices in.
const Currency = "TRY"

var catalog = map[string]core.Product{
	"SKU-IP15": {
		SKU: "SKU-IP15", Name: "iPhone 15 Pro", Brand: "Apple",
		Price: 49999, Currency: Currency, Category: "Telefon",
		Specs: map[string]string{
			"ekran":    "6.1 inç Super Retina XDR OLED",
			"islemci":  "A17 Pro",
			"ram":      "8 GB",
			"depolama": "256 GB",
			"kamera":   "48 MP + 12 MP + 12 MP",
			"batarya":  "3274 mAh",
			"agirlik":  "187 g",
		},
	},
	"SKU-S24": {
		SKU: "SKU-S24", Name: "Samsung Galaxy S24 Ultra", Brand: "Samsung",
		Price: 54999, Currency: Currency, Category: "Telefon",
		Specs: map[string]string{
			"ekran":    "6.8 inç Dynamic AMOLED 2X",
			"islemci":  "Snapdragon 8 Gen 3",
			"ram":      "12 GB",
			"depolama": "256 GB",
			"kamera":   "200 MP + 50 MP + 12 MP + 10 MP",
			"batarya":  "5000 mAh",
			"agirlik":  "232 g",
		},
	},
	"SKU-P9": {
		SKU: "SKU-P9", Name: "Google Pixel 9 Pro", Brand: "Google",
		Price: 39999, Currency: Currency, Category: "Telefon",
		Specs: map[string]string{
			"ekran":    "6.3 inç Super Actua LTPO OLED",
			"islemci":  "Tensor G4",
			"ram":      "16 GB",
			"depolama": "128 GB",
			"kamera":   "50 MP + 48 MP + 48 MP",
			"batarya":  "4700 mAh",
			"agirlik":  "199 g",
		},
	},
	"SKU-MBA": {
		SKU: "SKU-MBA", Name: "MacBook Air M3", Brand: "Apple",
		Price: 44999, Currency: Currency, Category: "Laptop",
		Specs: map[string]string{
			"ekran":    "13.6 inç Liquid Retina",
			"islemci":  "Apple M3",
			"ram":      "8 GB",
			"depolama": "256 GB SSD",
			"batarya":  "18 saat",
			"agirlik":  "1.24 kg",
		},
	},
	"SKU-TP14": {
		SKU: "SKU-TP14", Name: "Lenovo ThinkPad X1 Carbon Gen 11", Brand: "Lenovo",
		Price: 52999, Currency: Currency, Category: "Laptop",
		Specs: map[string]string{
			"ekran":    "14 inç 2.8K OLED",
			"islemci":  "Intel Core i7-1365U",
			"ram":      "16 GB",
			"depolama": "512 GB SSD",
			"batarya":  "15 saat",
			"agirlik":  "1.12 kg",
		},
	},
	"SKU-XPS15": {
		SKU: "SKU-XPS15", Name: "Dell XPS 15", Brand: "Dell",
		Price: 47999, Currency: Currency, Category: "Laptop",
		Specs: map[string]string{
			"ekran":    "15.6 inç 3.5K OLED",
			"islemci":  "Intel Core i7-13700H",
			"ram":      "16 GB",
			"depolama": "512 GB SSD",
			"batarya":  "13 saat",
			"agirlik":  "1.86 kg",
		},
	},
}

// Catalog returns every product, ordered by SKU.
func Catalog() []core.Product {
	products := make([]core.Product, 0, len(catalog))
	for _, p := range catalog {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].SKU < products[j].SKU })
	return products
}

// GetBySKU looks up a product case-insensitively.
func GetBySKU(sku string) (core.Product, bool) {
	p, ok := catalog[core.NormalizeSKU(sku)]
	return p, ok
}

// GetProductsBySKU resolves a SKU list, returning a lookup-failure marker
// record (original casing preserved) for each unknown SKU.
func GetProductsBySKU(skus []string) []core.Product {
	out := make([]core.Product, 0, len(skus))
	for _, sku := range skus {
		if p, ok := GetBySKU(sku); ok {
			out = append(out, p)
			continue
		}
		out = append(out, core.Product{SKU: sku, Err: "Ürün bulunamadı"})
	}
	return out
}
