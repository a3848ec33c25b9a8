package observability

import (
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

// EchoTracing starts a server span per request through otelecho, continuing
// any incoming W3C trace context. Probes and /metrics are not traced.
func EchoTracing(service string) echo.MiddlewareFunc {
	return otelecho.Middleware(service, otelecho.WithSkipper(skipProbes))
}

func skipProbes(c echo.Context) bool {
	p := c.Request().URL.Path
	return p == "/metrics" || p == "/health" || strings.HasPrefix(p, "/health/")
}
