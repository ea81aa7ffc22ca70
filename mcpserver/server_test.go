package mcpserver

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopchat/shopchat/ecommerce"
	"github.com/shopchat/shopchat/server"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	e := echo.New()
	server.NewEcomHandler(ecommerce.NewCartService(), ecommerce.NewFavoriteService()).Register(e)
	api := httptest.NewServer(e)
	t.Cleanup(api.Close)

	s, err := New(func(o *Options) { o.APIBaseURL = api.URL })
	require.NoError(t, err)
	return s
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestAddToCartTool(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, _, err := s.AddToCart(ctx, nil, AddToCartInput{UserID: "u1", SKU: "SKU-IP15"})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	text := textOf(t, res)
	assert.Contains(t, text, "iPhone 15 Pro")
	assert.Contains(t, text, `"quantity": 1`, "quantity defaults to 1")

	res, _, err = s.GetCart(ctx, nil, UserInput{UserID: "u1"})
	require.NoError(t, err)
	assert.Contains(t, textOf(t, res), "totalPrice")
}

func TestAddToCartToolUnknownProduct(t *testing.T) {
	s := newTestServer(t)

	res, _, err := s.AddToCart(context.Background(), nil, AddToCartInput{UserID: "u1", SKU: "SKU-YOK", Quantity: 1})
	require.NoError(t, err, "API errors become error results, not protocol errors")
	assert.True(t, res.IsError)
	assert.Contains(t, textOf(t, res), "Hata: Ürün bulunamadı")
}

func TestFavoritesTools(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, _, err := s.AddToFavorites(ctx, nil, UserSKUInput{UserID: "u1", SKU: "SKU-S24"})
	require.NoError(t, err)
	assert.False(t, res.IsError)

	res, _, err = s.AddToFavorites(ctx, nil, UserSKUInput{UserID: "u1", SKU: "SKU-S24"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, textOf(t, res), "Hata: Ürün zaten favorilerde")

	res, _, err = s.GetFavorites(ctx, nil, UserInput{UserID: "u1"})
	require.NoError(t, err)
	assert.Contains(t, textOf(t, res), "SKU-S24")
}

func TestToolAPIUnreachable(t *testing.T) {
	s, err := New(func(o *Options) { o.APIBaseURL = "http://127.0.0.1:1" })
	require.NoError(t, err)

	res, _, err := s.ClearCart(context.Background(), nil, UserInput{UserID: "u1"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, textOf(t, res), "ulaşılamadı")
}
