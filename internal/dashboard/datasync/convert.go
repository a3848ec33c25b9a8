package datasync

import (
	"github.com/99minutos/product-dashboard/internal/dashboard/apiclient"
	"github.com/99minutos/product-dashboard/internal/dashboard/store"
	"github.com/99minutos/product-dashboard/internal/infrastructure/feed"
)

func toStoreUser(u *apiclient.User) *store.User {
	return &store.User{ID: u.ID, Email: u.Email, Role: u.Role}
}

func recordOf(p apiclient.Product) feed.Record {
	return feed.Record{
		ID:        p.ID,
		Name:      p.Name,
		SKU:       p.SKU,
		Price:     p.Price,
		Stock:     p.Stock,
		Category:  p.Category,
		Status:    p.Status,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// toStoreProduct normalizes timestamps to ISO text, "" when unusable.
func toStoreProduct(r feed.Record) store.Product {
	return store.Product{
		ID:        r.ID,
		Name:      r.Name,
		SKU:       r.SKU,
		Price:     r.Price,
		Stock:     r.Stock,
		Category:  r.Category,
		Status:    r.Status,
		CreatedAt: feed.NormalizeTimestamp(r.CreatedAt),
		UpdatedAt: feed.NormalizeTimestamp(r.UpdatedAt),
	}
}
