package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/product-dashboard/internal/core/domain"
	"github.com/99minutos/product-dashboard/internal/core/ports"
	"github.com/99minutos/product-dashboard/internal/infrastructure/feed"
)

type stubProductService struct {
	created  ports.CreateProductInput
	updated  ports.UpdateProductInput
	status   string
	deleted  string
	err      error
	products []*domain.Product
}

var fixedTime = time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)

func (s *stubProductService) product(id string) *domain.Product {
	return &domain.Product{ID: id, Name: "Drone", SKU: "DRN", Price: 10, Stock: 1, Category: "toys",
		Status: domain.StatusPending, CreatedAt: fixedTime, UpdatedAt: fixedTime}
}

func (s *stubProductService) CreateProduct(_ context.Context, in ports.CreateProductInput) (*domain.Product, error) {
	s.created = in
	if s.err != nil {
		return nil, s.err
	}
	return s.product("p1"), nil
}

func (s *stubProductService) UpdateProduct(_ context.Context, in ports.UpdateProductInput) (*domain.Product, error) {
	s.updated = in
	if s.err != nil {
		return nil, s.err
	}
	return s.product(in.ID), nil
}

func (s *stubProductService) UpdateStatus(_ context.Context, id, status string) (*domain.Product, error) {
	s.status = status
	if s.err != nil {
		return nil, s.err
	}
	p := s.product(id)
	p.Status = domain.ProductStatus(status)
	return p, nil
}

func (s *stubProductService) DeleteProduct(_ context.Context, id string) error {
	s.deleted = id
	return s.err
}

func (s *stubProductService) ListProducts(context.Context) ([]*domain.Product, error) {
	return s.products, s.err
}

func TestProductHandler_Create(t *testing.T) {
	e := newTestEcho()
	stub := &stubProductService{}
	h := NewProductHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/products", `{"name":"Drone","sku":"DRN","price":10,"stock":1,"category":"toys"}`), rec)

	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if stub.created.SKU != "DRN" || stub.created.Status != "" {
		t.Fatalf("unexpected input %+v", stub.created)
	}

	var resp struct {
		Product map[string]any `json:"product"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Product["id"] != "p1" || resp.Product["createdAt"] != "2024-06-01T12:30:00.000Z" {
		t.Fatalf("unexpected product %+v", resp.Product)
	}
}

func TestProductHandler_Create_Validation(t *testing.T) {
	e := newTestEcho()
	h := NewProductHandler(&stubProductService{})

	bodies := []string{
		`{"sku":"DRN","price":10,"stock":1,"category":"toys"}`,
		`{"name":"Drone","sku":"DRN","price":-1,"stock":1,"category":"toys"}`,
		`{"name":"Drone","sku":"DRN","price":1,"stock":1,"category":"toys","status":"archived"}`,
	}
	for _, body := range bodies {
		c := e.NewContext(jsonRequest(http.MethodPost, "/products", body), httptest.NewRecorder())
		var he *echo.HTTPError
		if err := h.Create(c); !errors.As(err, &he) || he.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 for %s, got %v", body, err)
		}
	}
}

func TestProductHandler_Update_PartialFields(t *testing.T) {
	e := newTestEcho()
	stub := &stubProductService{}
	h := NewProductHandler(stub)

	c := e.NewContext(jsonRequest(http.MethodPatch, "/products/p9", `{"stock":0,"name":"New"}`), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("p9")

	if err := h.Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	in := stub.updated
	if in.ID != "p9" || in.Name == nil || *in.Name != "New" || in.Stock == nil || *in.Stock != 0 {
		t.Fatalf("unexpected input %+v", in)
	}
	if in.Price != nil || in.SKU != nil || in.Status != nil {
		t.Fatalf("absent fields must stay nil: %+v", in)
	}
}

func TestProductHandler_UpdateStatus_PropagatesDomainError(t *testing.T) {
	e := newTestEcho()
	stub := &stubProductService{err: domain.ErrInvalidTransition}
	h := NewProductHandler(stub)

	c := e.NewContext(jsonRequest(http.MethodPatch, "/products/p1/status", `{"status":"pending"}`), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("p1")

	if err := h.UpdateStatus(c); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if stub.status != "pending" {
		t.Fatalf("status not forwarded")
	}
}

func TestProductHandler_Delete(t *testing.T) {
	e := newTestEcho()
	stub := &stubProductService{}
	h := NewProductHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/products/p3", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("p3")

	if err := h.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent || stub.deleted != "p3" {
		t.Fatalf("expected 204 and delete of p3, got %d %q", rec.Code, stub.deleted)
	}
}

func TestProductHandler_List(t *testing.T) {
	e := newTestEcho()
	stub := &stubProductService{}
	stub.products = []*domain.Product{stub.product("b"), stub.product("a")}
	h := NewProductHandler(stub)

	rec := httptest.NewRecorder()
	if err := h.List(e.NewContext(httptest.NewRequest(http.MethodGet, "/products", nil), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp productListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.Products) != 2 || resp.Products[0].ID != "b" {
		t.Fatalf("order not preserved: %+v", resp.Products)
	}
}

func TestMutationResult(t *testing.T) {
	if mutationResult(nil) != "success" || mutationResult(domain.ErrDuplicateSKU) != "duplicate_sku" || mutationResult(errors.New("x")) != "error" {
		t.Fatal("unexpected mutation labels")
	}
}

// closedHub hands out a channel holding the given snapshots, then closed.
type closedHub struct {
	snapshots [][]feed.Record
	left      bool
}

func (h *closedHub) Join() (<-chan []feed.Record, func()) {
	ch := make(chan []feed.Record, len(h.snapshots))
	for _, s := range h.snapshots {
		ch <- s
	}
	close(ch)
	return ch, func() { h.left = true }
}

func TestStreamHandler_WritesSnapshotEvents(t *testing.T) {
	e := newTestEcho()
	hub := &closedHub{snapshots: [][]feed.Record{{{ID: "b"}, {ID: "a"}}, nil}}
	h := NewStreamHandler(hub)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/products/stream", nil), rec)

	if err := h.Stream(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	body := rec.Body.String()
	if strings.Count(body, "event: snapshot\n") != 2 {
		t.Fatalf("expected two snapshot events, got %q", body)
	}
	if !strings.Contains(body, `data: {"products":[{"id":"b"`) {
		t.Fatalf("first snapshot missing: %q", body)
	}
	if !strings.Contains(body, `data: {"products":[]}`) {
		t.Fatalf("empty snapshot must encode as []: %q", body)
	}
	if !hub.left {
		t.Fatal("client did not leave the hub")
	}
}
