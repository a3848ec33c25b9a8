// Package web renders the dashboard for one operator. Every page reads the
// shared store; every intent goes through the data-sync layer.
package web

import (
	"context"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/99minutos/product-dashboard/internal/api/middleware"
	"github.com/99minutos/product-dashboard/internal/dashboard/apiclient"
	"github.com/99minutos/product-dashboard/internal/dashboard/guard"
	"github.com/99minutos/product-dashboard/internal/dashboard/store"
	"github.com/99minutos/product-dashboard/internal/infrastructure/http/handlers"
	"github.com/99minutos/product-dashboard/internal/observability"
)

// Syncer is the data-sync layer as the pages use it.
type Syncer interface {
	Bootstrap(ctx context.Context)
	Login(ctx context.Context, email, password string) (*store.User, error)
	Logout(ctx context.Context)
	CreateProduct(ctx context.Context, in apiclient.ProductInput) (*store.Product, error)
	UpdateProduct(ctx context.Context, id string, patch apiclient.ProductPatch) (*store.Product, error)
	ToggleStatus(ctx context.Context, p store.Product) (*store.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// Deps holds everything the dashboard router wires into handlers.
type Deps struct {
	Store  *store.Store
	Sync   Syncer
	Checks []handlers.Check
	Log    zerolog.Logger
	// Location is used for dates and month buckets. Nil means time.Local.
	Location *time.Location
	// Metrics registers the Prometheus middleware and /metrics.
	Metrics bool
}

// NewRouter builds the dashboard's Echo instance.
func NewRouter(d Deps) *echo.Echo {
	if d.Location == nil {
		d.Location = time.Local
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = newRenderer(d.Location)
	e.HTTPErrorHandler = newErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(observability.EchoTracing("productdash-dashboard"))
	e.Use(middleware.RequestLogger(d.Log))
	if d.Metrics {
		e.Use(echoprometheus.NewMiddleware("dashboard"))
		e.GET("/metrics", echoprometheus.NewHandler())
	}

	// --- Health ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(d.Checks...)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)

	e.StaticFS("/static", echo.MustSubFS(staticFS, "static"))

	h := &pages{store: d.Store, sync: d.Sync, log: d.Log, loc: d.Location}
	bootstrap := sessionCheck(d.Sync)

	// --- Public ---
	e.GET("/login", h.loginForm, bootstrap)
	e.POST("/login", h.login, bootstrap)
	e.POST("/logout", h.logout)

	// --- Protected ---
	// Routes are guarded one by one so unknown paths still reach the 404 page.
	protected := []echo.MiddlewareFunc{bootstrap, guard.Require(d.Store)}
	e.GET("/", h.analytics, protected...)
	e.GET("/analytics", h.analytics, protected...)
	e.GET("/live", h.live, protected...)

	e.GET("/products", h.products, protected...)
	e.GET("/products/new", h.newProduct, protected...)
	e.POST("/products", h.createProduct, protected...)
	e.GET("/products/:id/edit", h.editProduct, protected...)
	e.POST("/products/:id", h.updateProduct, protected...)
	e.GET("/products/:id/delete", h.confirmDelete, protected...)
	e.POST("/products/:id/delete", h.deleteProduct, protected...)
	e.GET("/products/:id/status", h.confirmStatus, protected...)
	e.POST("/products/:id/status", h.toggleStatus, protected...)

	return e
}

// sessionCheck resolves the first session check before any page renders.
func sessionCheck(s Syncer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s.Bootstrap(c.Request().Context())
			return next(c)
		}
	}
}
