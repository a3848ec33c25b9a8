package ports

import (
	"context"

	"github.com/99minutos/product-dashboard/internal/core/domain"
)

// ResourceProducts is the resource key under which product changes are announced.
const ResourceProducts = "products"

// CreateProductInput carries all data needed to create a new product.
// An empty Status means pending.
type CreateProductInput struct {
	Name     string
	SKU      string
	Price    float64
	Stock    int
	Category string
	Status   string
}

// UpdateProductInput carries a partial update for one product.
type UpdateProductInput struct {
	ID       string
	Name     *string
	SKU      *string
	Price    *float64
	Stock    *int
	Category *string
	Status   *string
}

// ProductService defines use-case operations for products.
type ProductService interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, input UpdateProductInput) (*domain.Product, error)
	UpdateStatus(ctx context.Context, id, status string) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ListProducts(ctx context.Context) ([]*domain.Product, error)
}

// ChangeNotifier announces that a resource changed so live feeds re-read it.
type ChangeNotifier interface {
	Notify(ctx context.Context, resource string) error
}
