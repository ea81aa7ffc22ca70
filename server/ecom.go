package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shopchat/shopchat/ecommerce"
)

// EcomHandler serves the mock store API: catalog, cart and favorites.
type EcomHandler struct {
	cart      *ecommerce.CartService
	favorites *ecommerce.FavoriteService
}

func NewEcomHandler(cart *ecommerce.CartService, favorites *ecommerce.FavoriteService) *EcomHandler {
	return &EcomHandler{cart: cart, favorites: favorites}
}

// Register mounts all store routes on e.
func (h *EcomHandler) Register(e *echo.Echo) {
	e.GET("/api/products", h.ListProducts)
	e.GET("/api/products/:sku", h.GetProduct)

	e.GET("/api/cart/:userId", h.GetCart)
	e.POST("/api/cart", h.AddToCart)
	e.PATCH("/api/cart", h.UpdateCartQuantity)
	e.DELETE("/api/cart", h.RemoveFromCart)
	e.DELETE("/api/cart/clear", h.ClearCart)

	e.GET("/api/favorites/:userId", h.GetFavorites)
	e.POST("/api/favorites", h.AddFavorite)
	e.DELETE("/api/favorites", h.RemoveFavorite)
}

func (h *EcomHandler) ListProducts(c echo.Context) error {
	return respondOK(c, map[string]any{"products": ecommerce.Catalog()})
}

func (h *EcomHandler) GetProduct(c echo.Context) error {
	product, ok := ecommerce.GetBySKU(c.Param("sku"))
	if !ok {
		return respondServiceError(c, ecommerce.ErrProductNotFound)
	}
	return respondOK(c, map[string]any{"product": product})
}

func (h *EcomHandler) GetCart(c echo.Context) error {
	return respondOK(c, map[string]any{"cart": h.cart.Get(c.Param("userId"))})
}

type cartRequest struct {
	UserID   string `json:"userId"`
	SKU      string `json:"sku"`
	Quantity *int   `json:"quantity"`
}

func (r cartRequest) identified() bool { return r.UserID != "" && r.SKU != "" }

func (h *EcomHandler) AddToCart(c echo.Context) error {
	var req cartRequest
	if err := c.Bind(&req); err != nil || !req.identified() {
		return respondError(c, http.StatusBadRequest, "userId ve sku gerekli (string)", "MISSING_FIELDS")
	}
	if req.Quantity == nil || *req.Quantity < 1 {
		return respondError(c, http.StatusBadRequest, "quantity pozitif bir tam sayı olmalı", "INVALID_QUANTITY")
	}

	item, cart, err := h.cart.Add(req.UserID, req.SKU, *req.Quantity)
	if err != nil {
		return respondServiceError(c, err)
	}
	return respondOK(c, map[string]any{"item": item, "cart": cart})
}

func (h *EcomHandler) UpdateCartQuantity(c echo.Context) error {
	var req cartRequest
	if err := c.Bind(&req); err != nil || !req.identified() {
		return respondError(c, http.StatusBadRequest, "userId ve sku gerekli (string)", "MISSING_FIELDS")
	}
	if req.Quantity == nil || *req.Quantity < 0 {
		return respondError(c, http.StatusBadRequest, "quantity sıfır veya pozitif bir tam sayı olmalı", "INVALID_QUANTITY")
	}

	item, cart, err := h.cart.UpdateQuantity(req.UserID, req.SKU, *req.Quantity)
	if err != nil {
		return respondServiceError(c, err)
	}
	return respondOK(c, map[string]any{"item": item, "cart": cart})
}

func (h *EcomHandler) RemoveFromCart(c echo.Context) error {
	var req cartRequest
	if err := c.Bind(&req); err != nil || !req.identified() {
		return respondError(c, http.StatusBadRequest, "userId ve sku gerekli (string)", "MISSING_FIELDS")
	}

	item, cart, err := h.cart.Remove(req.UserID, req.SKU)
	if err != nil {
		return respondServiceError(c, err)
	}
	return respondOK(c, map[string]any{"removedItem": item, "cart": cart})
}

func (h *EcomHandler) ClearCart(c echo.Context) error {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := c.Bind(&req); err != nil || req.UserID == "" {
		return respondError(c, http.StatusBadRequest, "userId gerekli (string)", "MISSING_FIELDS")
	}
	return respondOK(c, h.cart.Clear(req.UserID))
}

func (h *EcomHandler) GetFavorites(c echo.Context) error {
	return respondOK(c, map[string]any{"favorites": h.favorites.Get(c.Param("userId"))})
}

type favoriteRequest struct {
	UserID string `json:"userId"`
	SKU    string `json:"sku"`
}

func (h *EcomHandler) AddFavorite(c echo.Context) error {
	var req favoriteRequest
	if err := c.Bind(&req); err != nil || req.UserID == "" || req.SKU == "" {
		return respondError(c, http.StatusBadRequest, "userId ve sku gerekli (string)", "MISSING_FIELDS")
	}

	product, err := h.favorites.Add(req.UserID, req.SKU)
	if err != nil {
		return respondServiceError(c, err)
	}
	return respondOK(c, map[string]any{"product": product})
}

func (h *EcomHandler) RemoveFavorite(c echo.Context) error {
	var req favoriteRequest
	if err := c.Bind(&req); err != nil || req.UserID == "" || req.SKU == "" {
		return respondError(c, http.StatusBadRequest, "userId ve sku gerekli (string)", "MISSING_FIELDS")
	}

	product, err := h.favorites.Remove(req.UserID, req.SKU)
	if err != nil {
		return respondServiceError(c, err)
	}
	return respondOK(c, map[string]any{"product": product})
}
