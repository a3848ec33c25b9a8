// Package datasync is the only path between the dashboard and the product API.
// Network results become store transitions here, and mutations ask the live
// product feed to refresh instead of touching the store directly.
package datasync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/99minutos/product-dashboard/internal/core/domain"
	"github.com/99minutos/product-dashboard/internal/core/ports"
	"github.com/99minutos/product-dashboard/internal/dashboard/apiclient"
	"github.com/99minutos/product-dashboard/internal/dashboard/store"
	"github.com/99minutos/product-dashboard/internal/infrastructure/feed"
)

// ProductsResource is the key product refresh requests are routed under.
const ProductsResource = ports.ResourceProducts

var tracer = otel.Tracer("github.com/99minutos/product-dashboard/internal/dashboard/datasync")

// API is the slice of the product API the dashboard uses.
type API interface {
	Me(ctx context.Context) (*apiclient.User, error)
	Login(ctx context.Context, email, password string) (*apiclient.User, error)
	Logout(ctx context.Context) error
	ListProducts(ctx context.Context) ([]apiclient.Product, error)
	StreamProducts(ctx context.Context, onSnapshot func([]apiclient.Product)) error
	CreateProduct(ctx context.Context, in apiclient.ProductInput) (*apiclient.Product, error)
	UpdateProduct(ctx context.Context, id string, patch apiclient.ProductPatch) (*apiclient.Product, error)
	UpdateProductStatus(ctx context.Context, id, status string) (*apiclient.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// Invalidator asks live subscriptions for resource to re-read.
type Invalidator interface {
	Invalidate(resource string)
}

type Options struct {
	Logger zerolog.Logger
	// Invalidator defaults to the syncer's own feed registry.
	Invalidator Invalidator
	Backoff     func(attempt int) time.Duration
}

type Syncer struct {
	store       *store.Store
	api         API
	log         zerolog.Logger
	registry    *feed.Registry
	invalidator Invalidator
	backoff     func(int) time.Duration

	bootOnce sync.Once

	mu     sync.Mutex
	active *Watch
}

func New(st *store.Store, api API, opts Options) *Syncer {
	s := &Syncer{
		store:    st,
		api:      api,
		log:      opts.Logger,
		registry: feed.NewRegistry(),
		backoff:  opts.Backoff,
	}
	s.invalidator = opts.Invalidator
	if s.invalidator == nil {
		s.invalidator = s.registry
	}
	return s
}

// --- session ---

// Bootstrap runs the first session check. Later calls do nothing; use
// RefreshSession to check again.
func (s *Syncer) Bootstrap(ctx context.Context) {
	s.bootOnce.Do(func() {
		if s.store.Auth().Initialized {
			return
		}
		if err := s.RefreshSession(ctx); err != nil {
			s.log.Debug().Err(err).Msg("no active session")
		}
	})
}

// RefreshSession asks the API who is signed in. Any failure leaves the
// operator signed out.
func (s *Syncer) RefreshSession(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Syncer.RefreshSession")
	defer span.End()

	u, err := s.api.Me(ctx)
	if err != nil {
		s.store.ResetAuth()
		return err
	}
	s.store.SetUser(toStoreUser(u))
	return nil
}

func (s *Syncer) Login(ctx context.Context, email, password string) (*store.User, error) {
	ctx, span := tracer.Start(ctx, "Syncer.Login")
	defer span.End()

	u, err := s.api.Login(ctx, email, password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		return nil, err
	}
	user := toStoreUser(u)
	s.store.SetUser(user)
	s.log.Info().Str("user_id", user.ID).Msg("signed in")
	return user, nil
}

// Logout always signs the operator out locally, whatever the API answers.
func (s *Syncer) Logout(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "Syncer.Logout")
	defer span.End()

	if err := s.api.Logout(ctx); err != nil {
		span.RecordError(err)
		s.log.Warn().Err(err).Msg("logout request failed, signing out locally")
	}
	s.store.ResetAuth()
	s.unmount()
	s.store.ClearProducts()
}

// --- mutations ---

func (s *Syncer) CreateProduct(ctx context.Context, in apiclient.ProductInput) (*store.Product, error) {
	ctx, span := tracer.Start(ctx, "Syncer.CreateProduct")
	defer span.End()

	p, err := s.api.CreateProduct(ctx, in)
	if err != nil {
		return nil, s.failed(span, "create product", err)
	}
	span.SetAttributes(attribute.String("product.id", p.ID))
	s.invalidator.Invalidate(ProductsResource)
	out := toStoreProduct(recordOf(*p))
	return &out, nil
}

func (s *Syncer) UpdateProduct(ctx context.Context, id string, patch apiclient.ProductPatch) (*store.Product, error) {
	ctx, span := tracer.Start(ctx, "Syncer.UpdateProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", id))

	p, err := s.api.UpdateProduct(ctx, id, patch)
	if err != nil {
		return nil, s.failed(span, "update product", err)
	}
	s.invalidator.Invalidate(ProductsResource)
	out := toStoreProduct(recordOf(*p))
	return &out, nil
}

func (s *Syncer) UpdateProductStatus(ctx context.Context, id, status string) (*store.Product, error) {
	ctx, span := tracer.Start(ctx, "Syncer.UpdateProductStatus")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", id), attribute.String("product.status", status))

	p, err := s.api.UpdateProductStatus(ctx, id, status)
	if err != nil {
		return nil, s.failed(span, "update product status", err)
	}
	s.invalidator.Invalidate(ProductsResource)
	out := toStoreProduct(recordOf(*p))
	return &out, nil
}

// ToggleStatus moves p one step along its lifecycle. Delivered products
// cannot be toggled and no request is sent for them.
func (s *Syncer) ToggleStatus(ctx context.Context, p store.Product) (*store.Product, error) {
	next, err := NextStatus(p.Status)
	if err != nil {
		return nil, err
	}
	return s.UpdateProductStatus(ctx, p.ID, next)
}

func (s *Syncer) DeleteProduct(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Syncer.DeleteProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", id))

	if err := s.api.DeleteProduct(ctx, id); err != nil {
		return s.failed(span, "delete product", err)
	}
	s.invalidator.Invalidate(ProductsResource)
	return nil
}

// NextStatus is the status the toggle action moves status to.
func NextStatus(status string) (string, error) {
	next, err := domain.ProductStatus(status).Toggle()
	if err != nil {
		return "", fmt.Errorf("a %s product cannot change status: %w", status, err)
	}
	return string(next), nil
}

func (s *Syncer) failed(span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, op+" failed")
	s.log.Warn().Err(err).Str("op", op).Msg("mutation failed")
	return err
}
