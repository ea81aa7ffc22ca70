package core

import "strings"

// Product is a catalog record used for grounding context. Lookup-failure
// placeholders carry Err and must never be merged into session context.
type Product struct {
	SKU      string            `json:"sku"`
	Name     string            `json:"name,omitempty"`
	Brand    string            `json:"brand,omitempty"`
	Price    float64           `json:"price,omitempty"`
	Currency string            `json:"currency,omitempty"`
	Category string            `json:"category,omitempty"`
	Specs    map[string]string `json:"specs,omitempty"`
	Err      string            `json:"error,omitempty"` // "not found" marker, set by lookups
}

// IsError reports whether the record is a lookup-failure placeholder.
func (p Product) IsError() bool { return p.Err != "" }

// NormalizeSKU upper-cases a SKU for case-insensitive keying.
func NormalizeSKU(sku string) string { return strings.ToUpper(sku) }
