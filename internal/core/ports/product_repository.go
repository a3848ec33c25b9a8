package ports

import (
	"context"
	"time"

	"github.com/99minutos/product-dashboard/internal/core/domain"
)

// ProductChanges carries a partial update. Nil fields are left untouched.
type ProductChanges struct {
	Name     *string
	SKU      *string
	Price    *float64
	Stock    *int
	Category *string
	Status   *domain.ProductStatus

	// FromStatus, when set, makes the update conditional: it only applies
	// while the stored status still equals it. Not a change itself.
	FromStatus *domain.ProductStatus
}

// Empty reports whether no field is set.
func (c ProductChanges) Empty() bool {
	return c.Name == nil && c.SKU == nil && c.Price == nil && c.Stock == nil &&
		c.Category == nil && c.Status == nil
}

// ProductRepository defines persistence operations for products.
type ProductRepository interface {
	// Create inserts p and fills in its server-assigned ID.
	Create(ctx context.Context, p *domain.Product) error
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	// Update applies changes and returns the stored product after the update.
	// A FromStatus that no longer matches yields domain.ErrInvalidTransition.
	Update(ctx context.Context, id string, changes ProductChanges, updatedAt time.Time) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	// List returns every product ordered by creation time, newest first.
	List(ctx context.Context) ([]*domain.Product, error)
}
