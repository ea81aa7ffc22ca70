package ecommerce

import "net/http"

// ServiceError is a store failure with a stable machine code and the HTTP
// status it maps to.
type ServiceError struct {
	Message    string `json:"message"`
	Code       string `json:"code"`
	StatusCode int    `json:"-"`
}

func (e *ServiceError) Error() string { return e.Message }

var (
	ErrProductNotFound    = &ServiceError{Message: "Ürün bulunamadı", Code: "PRODUCT_NOT_FOUND", StatusCode: http.StatusNotFound}
	ErrNotInCart          = &ServiceError{Message: "Ürün sepette bulunamadı", Code: "NOT_IN_CART", StatusCode: http.StatusNotFound}
	ErrAlreadyInFavorites = &ServiceError{Message: "Ürün zaten favorilerde", Code: "ALREADY_IN_FAVORITES", StatusCode: http.StatusConflict}
	ErrNotInFavorites     = &ServiceError{Message: "Ürün favorilerde bulunamadı", Code: "NOT_IN_FAVORITES", StatusCode: http.StatusNotFound}
)
