package domain

import (
	"errors"
	"strings"
	"time"
)

// ProductStatus represents the lifecycle state of a product record.
type ProductStatus string

const (
	StatusPending   ProductStatus = "pending"
	StatusConfirmed ProductStatus = "confirmed"
	StatusDelivered ProductStatus = "delivered"
	StatusCancelled ProductStatus = "cancelled"
)

// Statuses lists every status in display order.
var Statuses = []ProductStatus{StatusPending, StatusConfirmed, StatusDelivered, StatusCancelled}

// validTransitions defines the allowed state machine transitions.
var validTransitions = map[ProductStatus][]ProductStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusDelivered, StatusCancelled, StatusPending},
	StatusCancelled: {StatusPending},
}

// toggleNext is the single forward step offered by the "toggle status" action.
var toggleNext = map[ProductStatus]ProductStatus{
	StatusPending:   StatusConfirmed,
	StatusConfirmed: StatusDelivered,
	StatusCancelled: StatusPending,
}

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidStatus     = errors.New("invalid product status")
	ErrProductNotFound   = errors.New("product not found")
	ErrDuplicateSKU      = errors.New("product sku already exists")
	ErrForbidden         = errors.New("access forbidden")
	ErrInvalidProduct    = errors.New("invalid product")
)

// Valid reports whether s is a known status.
func (s ProductStatus) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether a transition from current status to next is valid.
// Re-applying the current status is always allowed.
func (s ProductStatus) CanTransitionTo(next ProductStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Toggle returns the status the toggle action moves s to. Delivered is terminal.
func (s ProductStatus) Toggle() (ProductStatus, error) {
	next, ok := toggleNext[s]
	if !ok {
		return s, ErrInvalidTransition
	}
	return next, nil
}

// Label is the human form of the status: the first underscore becomes a space.
func (s ProductStatus) Label() string {
	return strings.Replace(string(s), "_", " ", 1)
}

// Product is the core aggregate root.
type Product struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	SKU       string        `json:"sku"`
	Price     float64       `json:"price"`
	Stock     int           `json:"stock"`
	Category  string        `json:"category"`
	Status    ProductStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}
