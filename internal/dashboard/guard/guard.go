// Package guard decides whether a protected dashboard page may render.
package guard

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/product-dashboard/internal/dashboard/store"
)

// DefaultDestination is where a login without a redirect target lands.
const DefaultDestination = "/products"

type State int

const (
	Checking State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "checking"
	}
}

// Decision is the guard's verdict for one path. Redirect is set only when
// State is Unauthenticated.
type Decision struct {
	State    State
	Redirect string
}

// Decide maps the auth slice to a guard state for path.
func Decide(auth store.AuthState, path string) Decision {
	switch {
	case !auth.Initialized:
		return Decision{State: Checking}
	case !auth.IsAuthenticated:
		return Decision{State: Unauthenticated, Redirect: LoginURL(path)}
	default:
		return Decision{State: Authenticated}
	}
}

// LoginURL is the login page that returns to path after signing in.
func LoginURL(path string) string {
	return "/login?redirect=" + url.QueryEscape(path)
}

// SafeRedirect returns raw when it is a same-origin absolute path and
// DefaultDestination otherwise.
func SafeRedirect(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return DefaultDestination
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return DefaultDestination
	}
	return raw
}

// AuthSource is anything that can report the current auth slice.
type AuthSource interface {
	Auth() store.AuthState
}

const checkingPage = `<!doctype html>
<html lang="en"><head><meta charset="utf-8"><meta http-equiv="refresh" content="1">
<title>Checking authentication...</title></head>
<body><main class="checking">Checking authentication...</main></body></html>
`

// Require renders protected pages only for a signed-in operator. While the
// session check is pending it serves a placeholder that reloads itself;
// signed-out visitors get an empty 303 to the login page.
func Require(src AuthSource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d := Decide(src.Auth(), c.Request().URL.Path)
			switch d.State {
			case Checking:
				c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
				return c.HTML(http.StatusOK, checkingPage)
			case Unauthenticated:
				return c.Redirect(http.StatusSeeOther, d.Redirect)
			}
			return next(c)
		}
	}
}
