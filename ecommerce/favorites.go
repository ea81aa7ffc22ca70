package ecommerce

import (
	"sort"
	"sync"

	"github.com/shopchat/shopchat/core"
)

// FavoriteService keeps per-user favorite sets in memory, keyed by
// normalized SKU.
type FavoriteService struct {
	mu        sync.Mutex
	favorites map[string]map[string]struct{}
}

func NewFavoriteService() *FavoriteService {
	return &FavoriteService{favorites: make(map[string]map[string]struct{})}
}

// Get returns the user's favorites with full product details, ordered by SKU.
func (s *FavoriteService) Get(userID string) []core.Product {
	s.mu.Lock()
	skus := make([]string, 0, len(s.favorites[userID]))
	for sku := range s.favorites[userID] {
		skus = append(skus, sku)
	}
	s.mu.Unlock()

	sort.Strings(skus)
	products := make([]core.Product, 0, len(skus))
	for _, sku := range skus {
		if p, ok := GetBySKU(sku); ok {
			products = append(products, p)
		}
	}
	return products
}

// Add marks sku as a favorite for the user.
func (s *FavoriteService) Add(userID, sku string) (core.Product, error) {
	product, ok := GetBySKU(sku)
	if !ok {
		return core.Product{}, ErrProductNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.favorites[userID]
	if set == nil {
		set = make(map[string]struct{})
		s.favorites[userID] = set
	}

	normalized := core.NormalizeSKU(sku)
	if _, exists := set[normalized]; exists {
		return core.Product{}, ErrAlreadyInFavorites
	}
	set[normalized] = struct{}{}
	return product, nil
}

// Remove unmarks sku as a favorite for the user.
func (s *FavoriteService) Remove(userID, sku string) (core.Product, error) {
	product, ok := GetBySKU(sku)
	if !ok {
		return core.Product{}, ErrProductNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := core.NormalizeSKU(sku)
	set := s.favorites[userID]
	if _, exists := set[normalized]; !exists {
		return core.Product{}, ErrNotInFavorites
	}
	delete(set, normalized)
	return product, nil
}
