package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/product-dashboard/internal/core/domain"
)

func TestHTTPErrorHandler_Mapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"not found", fmt.Errorf("update product: %w", domain.ErrProductNotFound), http.StatusNotFound, "product not found"},
		{"duplicate sku", domain.ErrDuplicateSKU, http.StatusConflict, "a product with this SKU already exists"},
		{"transition", fmt.Errorf("update status: %w (from delivered to pending)", domain.ErrInvalidTransition), http.StatusUnprocessableEntity, "update status: invalid status transition (from delivered to pending)"},
		{"credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		{"user exists", domain.ErrUserExists, http.StatusConflict, "user already exists"},
		{"echo error", echo.NewHTTPError(http.StatusBadRequest, "invalid payload"), http.StatusBadRequest, "invalid payload"},
		{"unexpected", errors.New("mongo exploded"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			NewHTTPErrorHandler(zerolog.Nop())(tt.err, c)

			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body.Error != tt.message {
				t.Fatalf("expected %q, got %q", tt.message, body.Error)
			}
		})
	}
}
