package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/99minutos/product-dashboard/internal/core/domain"
	"github.com/99minutos/product-dashboard/internal/core/ports"
)

var tracer = otel.Tracer("github.com/99minutos/product-dashboard/internal/core/service")

type ProductService struct {
	repo     ports.ProductRepository
	notifier ports.ChangeNotifier
	logger   zerolog.Logger
	now      func() time.Time
}

// NewProductService wires a ProductService. notifier may be nil when no live feed
// needs to hear about changes.
func NewProductService(repo ports.ProductRepository, notifier ports.ChangeNotifier, logger zerolog.Logger) *ProductService {
	return &ProductService{repo: repo, notifier: notifier, logger: logger, now: time.Now}
}

// CreateProduct validates and stores a new product. Status defaults to pending.
func (s *ProductService) CreateProduct(ctx context.Context, input ports.CreateProductInput) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "ProductService.CreateProduct")
	defer span.End()

	status := domain.StatusPending
	if input.Status != "" {
		status = domain.ProductStatus(input.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("create product: %w: %q", domain.ErrInvalidStatus, input.Status)
		}
	}

	name := strings.TrimSpace(input.Name)
	sku := strings.TrimSpace(input.SKU)
	category := strings.TrimSpace(input.Category)
	if name == "" || sku == "" || category == "" {
		return nil, fmt.Errorf("create product: %w: name, sku and category are required", domain.ErrInvalidProduct)
	}
	if input.Price < 0 || input.Stock < 0 {
		return nil, fmt.Errorf("create product: %w: price and stock must not be negative", domain.ErrInvalidProduct)
	}

	now := s.now().UTC()
	product := &domain.Product{
		Name:      name,
		SKU:       sku,
		Price:     input.Price,
		Stock:     input.Stock,
		Category:  category,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		s.logger.Error().Ctx(ctx).Err(err).Str("sku", sku).Msg("failed to create product")
		return nil, fmt.Errorf("create product: %w", err)
	}
	span.SetAttributes(attribute.String("product.id", product.ID))

	s.logger.Info().Ctx(ctx).Str("product_id", product.ID).Str("sku", product.SKU).Msg("product created")
	s.announce(ctx)
	return product, nil
}

// UpdateProduct applies a partial update. A status change must follow the lifecycle.
func (s *ProductService) UpdateProduct(ctx context.Context, input ports.UpdateProductInput) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "ProductService.UpdateProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", input.ID))

	changes, err := toChanges(input)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	current, err := s.repo.FindByID(ctx, input.ID)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	if changes.Empty() {
		return current, nil
	}
	if changes.Status != nil {
		if !current.Status.CanTransitionTo(*changes.Status) {
			return nil, fmt.Errorf("update product: %w (from %s to %s)", domain.ErrInvalidTransition, current.Status, *changes.Status)
		}
		changes.FromStatus = &current.Status
	}

	updated, err := s.repo.Update(ctx, input.ID, changes, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.logger.Info().Ctx(ctx).Str("product_id", updated.ID).Msg("product updated")
	s.announce(ctx)
	return updated, nil
}

// UpdateStatus moves a product to a new status.
func (s *ProductService) UpdateStatus(ctx context.Context, id, status string) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "ProductService.UpdateStatus")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", id), attribute.String("product.status", status))

	next := domain.ProductStatus(status)
	if !next.Valid() {
		return nil, fmt.Errorf("update status: %w: %q", domain.ErrInvalidStatus, status)
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("update status: %w (from %s to %s)", domain.ErrInvalidTransition, current.Status, next)
	}

	updated, err := s.repo.Update(ctx, id, ports.ProductChanges{Status: &next, FromStatus: &current.Status}, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	s.logger.Info().Ctx(ctx).
		Str("product_id", id).
		Str("from", string(current.Status)).
		Str("to", string(next)).
		Msg("product status changed")
	s.announce(ctx)
	return updated, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "ProductService.DeleteProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", id))

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.logger.Info().Ctx(ctx).Str("product_id", id).Msg("product deleted")
	s.announce(ctx)
	return nil
}

func (s *ProductService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "ProductService.ListProducts")
	defer span.End()

	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// announce tells live feeds to re-read the collection. Failure is non-fatal: the
// change-stream trigger still sees the write.
func (s *ProductService) announce(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, ports.ResourceProducts); err != nil {
		s.logger.Warn().Ctx(ctx).Err(err).Msg("failed to announce product change")
	}
}

func toChanges(in ports.UpdateProductInput) (ports.ProductChanges, error) {
	var c ports.ProductChanges

	trimmed := func(field string, v *string) (*string, error) {
		if v == nil {
			return nil, nil
		}
		t := strings.TrimSpace(*v)
		if t == "" {
			return nil, fmt.Errorf("%w: %s must not be empty", domain.ErrInvalidProduct, field)
		}
		return &t, nil
	}

	var err error
	if c.Name, err = trimmed("name", in.Name); err != nil {
		return c, err
	}
	if c.SKU, err = trimmed("sku", in.SKU); err != nil {
		return c, err
	}
	if c.Category, err = trimmed("category", in.Category); err != nil {
		return c, err
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return c, fmt.Errorf("%w: price must not be negative", domain.ErrInvalidProduct)
		}
		c.Price = in.Price
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return c, fmt.Errorf("%w: stock must not be negative", domain.ErrInvalidProduct)
		}
		c.Stock = in.Stock
	}
	if in.Status != nil {
		st := domain.ProductStatus(*in.Status)
		if !st.Valid() {
			return c, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, *in.Status)
		}
		c.Status = &st
	}
	return c, nil
}
