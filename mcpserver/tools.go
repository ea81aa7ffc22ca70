package mcpserver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// UserInput identifies the acting user for read-only tools.
type UserInput struct {
	UserID string `json:"userId" jsonschema:"the unique identifier of the user (session ID)"`
}

// UserSKUInput identifies a user and a target product.
type UserSKUInput struct {
	UserID string `json:"userId" jsonschema:"the unique identifier of the user (session ID)"`
	SKU    string `json:"sku" jsonschema:"the SKU code of the product, e.g. SKU-IP15"`
}

// AddToCartInput additionally carries a quantity; zero means the default of 1.
type AddToCartInput struct {
	UserID   string `json:"userId" jsonschema:"the unique identifier of the user (session ID)"`
	SKU      string `json:"sku" jsonschema:"the SKU code of the product, e.g. SKU-IP15"`
	Quantity int    `json:"quantity,omitempty" jsonschema:"number of items to add (default 1)"`
}

func (s *Server) registerTools() error {
	userSchema, err := jsonschema.For[UserInput](nil)
	if err != nil {
		return fmt.Errorf("schema for user input: %w", err)
	}
	userSKUSchema, err := jsonschema.For[UserSKUInput](nil)
	if err != nil {
		return fmt.Errorf("schema for user+sku input: %w", err)
	}
	addToCartSchema, err := jsonschema.For[AddToCartInput](nil)
	if err != nil {
		return fmt.Errorf("schema for add-to-cart input: %w", err)
	}

	mcp.AddTool(s.srv, &mcp.Tool{
		Name:        "ecommerce_get_favorites",
		Description: "Get a user's favorite products list. Use when the user asks to see their favorites or wishlist.",
		InputSchema: userSchema,
	}, s.GetFavorites)

	mcp.AddTool(s.srv, &mcp.Tool{
		Name:        "ecommerce_add_to_favorites",
		Description: "Add a product to the user's favorites list by SKU. Fails if the product is already a favorite.",
		InputSchema: userSKUSchema,
	}, s.AddToFavorites)

	mcp.AddTool(s.srv, &mcp.Tool{
		Name:        "ecommerce_remove_from_favorites",
		Description: "Remove a product from the user's favorites list by SKU.",
		InputSchema: userSKUSchema,
	}, s.RemoveFromFavorites)

	mcp.AddTool(s.srv, &mcp.Tool{
		Name:        "ecommerce_get_cart",
		Description: "Get a user's shopping cart contents including quantities and the total price.",
		InputSchema: userSchema,
	}, s.GetCart)

	mcp.AddTool(s.srv, &mcp.Tool{
		Name:        "ecommerce_add_to_cart",
		Description: "Add a product to the user's shopping cart by SKU. If the product is already in the cart its quantity is increased.",
		InputSchema: addToCartSchema,
	}, s.AddToCart)

	mcp.AddTool(s.srv, &mcp.Tool{
		Name:        "ecommerce_remove_from_cart",
		Description: "Remove a product from the user's shopping cart entirely, regardless of quantity.",
		InputSchema: userSKUSchema,
	}, s.RemoveFromCart)

	mcp.AddTool(s.srv, &mcp.Tool{
		Name:        "ecommerce_clear_cart",
		Description: "Remove all products from the user's shopping cart at once.",
		InputSchema: userSchema,
	}, s.ClearCart)

	return nil
}

func (s *Server) GetFavorites(ctx context.Context, req *mcp.CallToolRequest, input UserInput) (*mcp.CallToolResult, any, error) {
	env, err := s.api.do(ctx, http.MethodGet, "/api/favorites/"+input.UserID, nil)
	return s.resultFor(env, err)
}

func (s *Server) AddToFavorites(ctx context.Context, req *mcp.CallToolRequest, input UserSKUInput) (*mcp.CallToolResult, any, error) {
	env, err := s.api.do(ctx, http.MethodPost, "/api/favorites", input)
	return s.resultFor(env, err)
}

func (s *Server) RemoveFromFavorites(ctx context.Context, req *mcp.CallToolRequest, input UserSKUInput) (*mcp.CallToolResult, any, error) {
	env, err := s.api.do(ctx, http.MethodDelete, "/api/favorites", input)
	return s.resultFor(env, err)
}

func (s *Server) GetCart(ctx context.Context, req *mcp.CallToolRequest, input UserInput) (*mcp.CallToolResult, any, error) {
	env, err := s.api.do(ctx, http.MethodGet, "/api/cart/"+input.UserID, nil)
	return s.resultFor(env, err)
}

func (s *Server) AddToCart(ctx context.Context, req *mcp.CallToolRequest, input AddToCartInput) (*mcp.CallToolResult, any, error) {
	if input.Quantity == 0 {
		input.Quantity = 1
	}
	env, err := s.api.do(ctx, http.MethodPost, "/api/cart", input)
	return s.resultFor(env, err)
}

func (s *Server) RemoveFromCart(ctx context.Context, req *mcp.CallToolRequest, input UserSKUInput) (*mcp.CallToolResult, any, error) {
	env, err := s.api.do(ctx, http.MethodDelete, "/api/cart", input)
	return s.resultFor(env, err)
}

func (s *Server) ClearCart(ctx context.Context, req *mcp.CallToolRequest, input UserInput) (*mcp.CallToolResult, any, error) {
	env, err := s.api.do(ctx, http.MethodDelete, "/api/cart/clear", input)
	return s.resultFor(env, err)
}
