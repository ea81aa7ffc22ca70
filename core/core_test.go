package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageText(t *testing.T) {
	msg := Message{Role: RoleAssistant, Blocks: []Block{
		TextBlock{Text: "Here is part one. "},
		ToolUseBlock{ID: "tool_1", Name: "ecommerce_get_cart"},
		TextBlock{Text: "And part two."},
	}}

	assert.Equal(t, "Here is part one. And part two.", msg.Text())
}

func TestMessageToolUses(t *testing.T) {
	msg := Message{Role: RoleAssistant, Blocks: []Block{
		TextBlock{Text: "Adding..."},
		ToolUseBlock{ID: "tool_1", Name: "ecommerce_add_to_cart"},
		ToolUseBlock{ID: "tool_2", Name: "ecommerce_add_to_favorites"},
	}}

	uses := msg.ToolUses()
	assert.Len(t, uses, 2)
	assert.Equal(t, "tool_1", uses[0].ID)
	assert.Equal(t, "tool_2", uses[1].ID)
}

func TestNewToolResultMessage(t *testing.T) {
	msg := NewToolResultMessage([]ToolResultBlock{
		{ToolUseID: "tool_1", Text: "ok"},
		{ToolUseID: "tool_2", Text: "Tool hatası: boom", IsError: true},
	})

	assert.Equal(t, RoleUser, msg.Role)
	assert.Len(t, msg.Blocks, 2)
	first, ok := msg.Blocks[0].(ToolResultBlock)
	assert.True(t, ok)
	assert.Equal(t, "tool_1", first.ToolUseID)
}

func TestNormalizeSKU(t *testing.T) {
	assert.Equal(t, "SKU-IP15", NormalizeSKU("sku-ip15"))
}

func TestProductIsError(t *testing.T) {
	assert.False(t, Product{SKU: "SKU-IP15", Name: "iPhone 15 Pro"}.IsError())
	assert.True(t, Product{SKU: "SKU-NOPE", Err: "Ürün bulunamadı"}.IsError())
}
