package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/99minutos/product-dashboard/internal/api/handler"
	"github.com/99minutos/product-dashboard/internal/api/middleware"
	"github.com/99minutos/product-dashboard/internal/core/domain"
	"github.com/99minutos/product-dashboard/internal/core/ports"
	"github.com/99minutos/product-dashboard/internal/infrastructure/http/handlers"
	"github.com/99minutos/product-dashboard/internal/observability"

	_ "github.com/99minutos/product-dashboard/docs"
)

// Deps holds everything the router wires into handlers.
type Deps struct {
	AuthService    ports.AuthService
	ProductService ports.ProductService
	Hub            handler.SnapshotHub
	Checks         []handlers.Check
	Log            zerolog.Logger
	CookieSecure   bool
	// Metrics registers the Prometheus middleware and /metrics. Registration
	// is global, so only one router per process may enable it.
	Metrics bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(observability.EchoTracing("productdash-api"))
	e.Use(middleware.RequestLogger(d.Log))
	if d.Metrics {
		e.Use(echoprometheus.NewMiddleware("api"))
		e.GET("/metrics", echoprometheus.NewHandler())
	}

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.AuthService, handler.CookieOptions{Secure: d.CookieSecure}, d.Log)
	productHandler := handler.NewProductHandler(d.ProductService)
	streamHandler := handler.NewStreamHandler(d.Hub)
	requireSession := middleware.Auth(d.AuthService)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Auth routes ---
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout, middleware.OptionalAuth(d.AuthService))
	e.GET("/auth/me", authHandler.Me, requireSession)
	e.POST("/auth/register", authHandler.Register, requireSession, adminOnly)

	// --- Product routes ---
	products := e.Group("/products", requireSession)
	products.GET("", productHandler.List)
	products.GET("/stream", streamHandler.Stream)
	products.POST("", productHandler.Create)
	products.PATCH("/:id", productHandler.Update)
	products.PATCH("/:id/status", productHandler.UpdateStatus)
	products.DELETE("/:id", productHandler.Delete, adminOnly)

	// --- Docs ---
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(d.Checks...)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	return e
}
