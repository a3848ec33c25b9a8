package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/product-dashboard/internal/api/metrics"
	"github.com/99minutos/product-dashboard/internal/core/domain"
	"github.com/99minutos/product-dashboard/internal/core/ports"
)

// ProductHandler handles HTTP requests for product operations.
type ProductHandler struct {
	service ports.ProductService
}

func NewProductHandler(service ports.ProductService) *ProductHandler {
	return &ProductHandler{service: service}
}

// List handles GET /products.
//
// @Summary      List products, newest first
// @Tags         products
// @Produce      json
// @Security     SessionCookie
// @Success      200  {object}  productListResponse
// @Failure      401  {object}  errorResponse
// @Router       /products [get]
func (h *ProductHandler) List(c echo.Context) error {
	products, err := h.service.ListProducts(c.Request().Context())
	if err != nil {
		return err
	}

	resp := productListResponse{Products: make([]productBody, 0, len(products))}
	for _, p := range products {
		resp.Products = append(resp.Products, toProductBody(p))
	}
	return c.JSON(http.StatusOK, resp)
}

// Create handles POST /products.
//
// @Summary      Create a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        body  body      createProductRequest  true  "Product"
// @Success      201   {object}  productResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /products [post]
func (h *ProductHandler) Create(c echo.Context) error {
	var req createProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	p, err := h.service.CreateProduct(c.Request().Context(), ports.CreateProductInput{
		Name:     req.Name,
		SKU:      req.SKU,
		Price:    req.Price,
		Stock:    req.Stock,
		Category: req.Category,
		Status:   req.Status,
	})
	recordMutation("create", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, productResponse{Product: toProductBody(p)})
}

// Update handles PATCH /products/:id.
//
// @Summary      Partially update a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        id    path      string                true  "Product id"
// @Param        body  body      updateProductRequest  true  "Fields to change"
// @Success      200   {object}  productResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /products/{id} [patch]
func (h *ProductHandler) Update(c echo.Context) error {
	var req updateProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	p, err := h.service.UpdateProduct(c.Request().Context(), ports.UpdateProductInput{
		ID:       c.Param("id"),
		Name:     req.Name,
		SKU:      req.SKU,
		Price:    req.Price,
		Stock:    req.Stock,
		Category: req.Category,
		Status:   req.Status,
	})
	recordMutation("update", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, productResponse{Product: toProductBody(p)})
}

// UpdateStatus handles PATCH /products/:id/status.
//
// @Summary      Change a product's status
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        id    path      string               true  "Product id"
// @Param        body  body      updateStatusRequest  true  "New status"
// @Success      200   {object}  productResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /products/{id}/status [patch]
func (h *ProductHandler) UpdateStatus(c echo.Context) error {
	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	p, err := h.service.UpdateStatus(c.Request().Context(), c.Param("id"), req.Status)
	recordMutation("status", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, productResponse{Product: toProductBody(p)})
}

// Delete handles DELETE /products/:id. Admin only.
//
// @Summary      Delete a product
// @Tags         products
// @Security     SessionCookie
// @Param        id   path  string  true  "Product id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /products/{id} [delete]
func (h *ProductHandler) Delete(c echo.Context) error {
	err := h.service.DeleteProduct(c.Request().Context(), c.Param("id"))
	recordMutation("delete", err)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func recordMutation(op string, err error) {
	metrics.ProductMutationsTotal.WithLabelValues(op, mutationResult(err)).Inc()
}

func mutationResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrProductNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrDuplicateSKU):
		return "duplicate_sku"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, domain.ErrInvalidProduct), errors.Is(err, domain.ErrInvalidStatus):
		return "invalid"
	default:
		return "error"
	}
}
