package web

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type errorData struct {
	Code    int
	Message string
}

// newErrorHandler renders HTML error pages. Unknown routes and products get
// the 404 page.
func newErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := http.StatusText(code)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			}
		}

		if code >= http.StatusInternalServerError {
			log.Error().Ctx(c.Request().Context()).Err(err).Str("path", c.Path()).Msg("unhandled dashboard error")
			msg = http.StatusText(code)
		}

		v := view{Title: http.StatusText(code), Data: errorData{Code: code, Message: msg}}
		page := "error.html"
		if code == http.StatusNotFound {
			page = "not_found.html"
			v.Title = "Not found"
		}

		var renderErr error
		if c.Request().Method == http.MethodHead {
			renderErr = c.NoContent(code)
		} else {
			renderErr = c.Render(code, page, v)
		}
		if renderErr != nil {
			log.Error().Err(renderErr).Msg("failed to render error page")
		}
	}
}
