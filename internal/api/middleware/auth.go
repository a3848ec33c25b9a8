package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/product-dashboard/internal/core/domain"
	"github.com/99minutos/product-dashboard/internal/core/ports"
)

// SessionCookie is the HttpOnly cookie that carries the session token.
const SessionCookie = "session"

// Context keys set by Auth.
const (
	ClaimsKey = "claims"
	UserIDKey = "user_id"
	RoleKey   = "role"
)

// Verifier checks a session token.
type Verifier interface {
	Verify(ctx context.Context, token string) (*ports.SessionClaims, error)
}

// Auth validates the session token from the session cookie or, failing that, a
// bearer Authorization header, and injects the claims into context.
func Auth(v Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := TokenFromRequest(c.Request())
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			claims, err := v.Verify(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrInvalidCredentials) || errors.Is(err, domain.ErrSessionRevoked) {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
				}
				return err
			}

			setClaims(c, claims)
			return next(c)
		}
	}
}

// OptionalAuth behaves like Auth for a valid session and passes every other
// request through untouched.
func OptionalAuth(v Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token, err := TokenFromRequest(c.Request()); err == nil {
				if claims, err := v.Verify(c.Request().Context(), token); err == nil {
					setClaims(c, claims)
				}
			}
			return next(c)
		}
	}
}

// TokenFromRequest returns the session token from the cookie or the
// Authorization header.
func TokenFromRequest(r *http.Request) (string, error) {
	if ck, err := r.Cookie(SessionCookie); err == nil && ck.Value != "" {
		return ck.Value, nil
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("missing session")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", errors.New("invalid authorization header")
	}
	return parts[1], nil
}

func setClaims(c echo.Context, claims *ports.SessionClaims) {
	c.Set(ClaimsKey, claims)
	c.Set(UserIDKey, claims.UserID)
	c.Set(RoleKey, claims.Role)
}
