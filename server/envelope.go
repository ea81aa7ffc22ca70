// Package server exposes the HTTP surface: the chat endpoint (SSE) and the
// store CRUD API. Every JSON response uses the same envelope.
package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shopchat/shopchat/ecommerce"
)

// ErrorDetail is the machine-readable error half of the envelope.
type ErrorDetail struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Envelope is the uniform JSON response shape.
type Envelope struct {
	Success    bool         `json:"success"`
	Data       any          `json:"data"`
	Error      *ErrorDetail `json:"error"`
	StatusCode int          `json:"statusCode"`
}

func respondOK(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, Envelope{
		Success:    true,
		Data:       data,
		StatusCode: http.StatusOK,
	})
}

func respondError(c echo.Context, status int, message, code string) error {
	return c.JSON(status, Envelope{
		Success:    false,
		Error:      &ErrorDetail{Message: message, Code: code},
		StatusCode: status,
	})
}

// respondServiceError maps typed store failures to their HTTP status;
// anything else is an opaque 500.
func respondServiceError(c echo.Context, err error) error {
	var svcErr *ecommerce.ServiceError
	if errors.As(err, &svcErr) {
		return respondError(c, svcErr.StatusCode, svcErr.Message, svcErr.Code)
	}
	return respondError(c, http.StatusInternalServerError, "Bir hata oluştu", "INTERNAL_ERROR")
}
