package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/product-dashboard/internal/api/middleware"
	"github.com/99minutos/product-dashboard/internal/core/ports"
)

// ctxClaims extracts the session claims injected by the Auth middleware and
// fails fast when they are missing or carry no user id.
func ctxClaims(c echo.Context) (*ports.SessionClaims, error) {
	claims, _ := c.Get(middleware.ClaimsKey).(*ports.SessionClaims)
	if claims == nil || claims.UserID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return claims, nil
}
