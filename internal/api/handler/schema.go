package handler

import (
	"time"

	"github.com/99minutos/product-dashboard/internal/core/domain"
)

// isoLayout matches the timestamps the live feed emits.
const isoLayout = "2006-01-02T15:04:05.000Z"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Auth ---

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role"     validate:"required,role"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	User *domain.User `json:"user"`
}

// --- Products ---

type createProductRequest struct {
	Name     string  `json:"name"     validate:"required"`
	SKU      string  `json:"sku"      validate:"required"`
	Price    float64 `json:"price"    validate:"gte=0"`
	Stock    int     `json:"stock"    validate:"gte=0"`
	Category string  `json:"category" validate:"required"`
	Status   string  `json:"status"   validate:"omitempty,product_status"`
}

type updateProductRequest struct {
	Name     *string  `json:"name"     validate:"omitempty,min=1"`
	SKU      *string  `json:"sku"      validate:"omitempty,min=1"`
	Price    *float64 `json:"price"    validate:"omitempty,gte=0"`
	Stock    *int     `json:"stock"    validate:"omitempty,gte=0"`
	Category *string  `json:"category" validate:"omitempty,min=1"`
	Status   *string  `json:"status"   validate:"omitempty,product_status"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,product_status"`
}

type productBody struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	SKU       string  `json:"sku"`
	Price     float64 `json:"price"`
	Stock     int     `json:"stock"`
	Category  string  `json:"category"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

type productResponse struct {
	Product productBody `json:"product"`
}

type productListResponse struct {
	Products []productBody `json:"products"`
}

func toProductBody(p *domain.Product) productBody {
	return productBody{
		ID:        p.ID,
		Name:      p.Name,
		SKU:       p.SKU,
		Price:     p.Price,
		Stock:     p.Stock,
		Category:  p.Category,
		Status:    string(p.Status),
		CreatedAt: formatTime(p.CreatedAt),
		UpdatedAt: formatTime(p.UpdatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(isoLayout)
}
