package ecommerce

import (
	"fmt"
	"sync"

	"github.com/shopchat/shopchat/core"
)

// CartItem is a catalog product annotated with its cart quantity.
type CartItem struct {
	core.Product
	Quantity int     `json:"quantity"`
	Subtotal float64 `json:"subtotal"`
}

// Cart is a priced snapshot of a user's cart.
type Cart struct {
	Items      []CartItem `json:"items"`
	TotalPrice float64    `json:"totalPrice"`
	Currency   string     `json:"currency"`
}

// ClearResult reports the outcome of emptying a cart.
type ClearResult struct {
	Cleared      bool   `json:"cleared"`
	ItemsRemoved int    `json:"itemsRemoved"`
	Message      string `json:"message"`
}

type cartLine struct {
	sku      string
	quantity int
}

// CartService keeps per-user carts in memory. Lines are keyed by normalized
// SKU; adding an existing SKU merges quantities.
type CartService struct {
	mu    sync.Mutex
	carts map[string][]cartLine
}

func NewCartService() *CartService {
	return &CartService{carts: make(map[string][]cartLine)}
}

// Get returns the user's cart with full product details and a total.
// Unknown users get an empty cart.
func (s *CartService) Get(userID string) Cart {
	s.mu.Lock()
	lines := append([]cartLine(nil), s.carts[userID]...)
	s.mu.Unlock()
	return buildCart(lines)
}

func buildCart(lines []cartLine) Cart {
	cart := Cart{Items: make([]CartItem, 0, len(lines)), Currency: Currency}
	for _, line := range lines {
		product, _ := GetBySKU(line.sku)
		item := CartItem{
			Product:  product,
			Quantity: line.quantity,
			Subtotal: product.Price * float64(line.quantity),
		}
		cart.Items = append(cart.Items, item)
		cart.TotalPrice += item.Subtotal
	}
	return cart
}

// Add puts quantity units of sku into the user's cart, merging with an
// existing line if present.
func (s *CartService) Add(userID, sku string, quantity int) (CartItem, Cart, error) {
	product, ok := GetBySKU(sku)
	if !ok {
		return CartItem{}, Cart{}, ErrProductNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := core.NormalizeSKU(sku)
	lines := s.carts[userID]
	found := false
	for i := range lines {
		if lines[i].sku == normalized {
			lines[i].quantity += quantity
			quantity = lines[i].quantity
			found = true
			break
		}
	}
	if !found {
		lines = append(lines, cartLine{sku: normalized, quantity: quantity})
	}
	s.carts[userID] = lines

	item := CartItem{Product: product, Quantity: quantity, Subtotal: product.Price * float64(quantity)}
	return item, buildCart(lines), nil
}

// UpdateQuantity sets the line quantity for sku; zero removes the line. The
// returned item is nil when the line was removed.
func (s *CartService) UpdateQuantity(userID, sku string, quantity int) (*CartItem, Cart, error) {
	product, ok := GetBySKU(sku)
	if !ok {
		return nil, Cart{}, ErrProductNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := core.NormalizeSKU(sku)
	lines := s.carts[userID]
	idx := -1
	for i := range lines {
		if lines[i].sku == normalized {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, Cart{}, ErrNotInCart
	}

	if quantity == 0 {
		lines = append(lines[:idx], lines[idx+1:]...)
		s.carts[userID] = lines
		return nil, buildCart(lines), nil
	}

	lines[idx].quantity = quantity
	s.carts[userID] = lines
	item := &CartItem{Product: product, Quantity: quantity, Subtotal: product.Price * float64(quantity)}
	return item, buildCart(lines), nil
}

// Remove deletes the sku's line from the user's cart.
func (s *CartService) Remove(userID, sku string) (CartItem, Cart, error) {
	product, ok := GetBySKU(sku)
	if !ok {
		return CartItem{}, Cart{}, ErrProductNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := core.NormalizeSKU(sku)
	lines := s.carts[userID]
	idx := -1
	for i := range lines {
		if lines[i].sku == normalized {
			idx = i
			break
		}
	}
	if idx == -1 {
		return CartItem{}, Cart{}, ErrNotInCart
	}

	removed := lines[idx]
	lines = append(lines[:idx], lines[idx+1:]...)
	s.carts[userID] = lines

	item := CartItem{Product: product, Quantity: removed.quantity, Subtotal: product.Price * float64(removed.quantity)}
	return item, buildCart(lines), nil
}

// Clear empties the user's cart. Clearing an already-empty cart succeeds.
func (s *CartService) Clear(userID string) ClearResult {
	s.mu.Lock()
	removed := len(s.carts[userID])
	delete(s.carts, userID)
	s.mu.Unlock()

	return ClearResult{
		Cleared:      true,
		ItemsRemoved: removed,
		Message:      fmt.Sprintf("%d ürün sepetten çıkarıldı", removed),
	}
}
