package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/product-dashboard/internal/core/domain"
	"github.com/99minutos/product-dashboard/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stubs
// ---------------------------------------------------------------------------

type stubProductRepo struct {
	byID      map[string]*domain.Product
	seq       int
	createErr error
	// beforeUpdate runs between the service's read and its write.
	beforeUpdate func(p *domain.Product)
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{byID: make(map[string]*domain.Product)}
}

func (r *stubProductRepo) Create(_ context.Context, p *domain.Product) error {
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.byID {
		if existing.SKU == p.SKU {
			return domain.ErrDuplicateSKU
		}
	}
	r.seq++
	p.ID = fmt.Sprintf("p%d", r.seq)
	clone := *p
	r.byID[p.ID] = &clone
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *stubProductRepo) Update(_ context.Context, id string, c ports.ProductChanges, at time.Time) (*domain.Product, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	if r.beforeUpdate != nil {
		r.beforeUpdate(p)
	}
	if c.FromStatus != nil && p.Status != *c.FromStatus {
		return nil, domain.ErrInvalidTransition
	}
	if c.Name != nil {
		p.Name = *c.Name
	}
	if c.SKU != nil {
		p.SKU = *c.SKU
	}
	if c.Price != nil {
		p.Price = *c.Price
	}
	if c.Stock != nil {
		p.Stock = *c.Stock
	}
	if c.Category != nil {
		p.Category = *c.Category
	}
	if c.Status != nil {
		p.Status = *c.Status
	}
	p.UpdatedAt = at
	clone := *p
	return &clone, nil
}

func (r *stubProductRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubProductRepo) List(_ context.Context) ([]*domain.Product, error) {
	out := make([]*domain.Product, 0, len(r.byID))
	for _, p := range r.byID {
		clone := *p
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type stubNotifier struct {
	calls []string
	err   error
}

func (n *stubNotifier) Notify(_ context.Context, resource string) error {
	n.calls = append(n.calls, resource)
	return n.err
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

func minimalInput(sku string) ports.CreateProductInput {
	return ports.CreateProductInput{
		Name:     "Drone X",
		SKU:      sku,
		Price:    199.99,
		Stock:    4,
		Category: "drones",
	}
}

func strPtr(s string) *string { return &s }

func seededProduct(t *testing.T, svc *ProductService, sku string) *domain.Product {
	t.Helper()
	p, err := svc.CreateProduct(context.Background(), minimalInput(sku))
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

// ---------------------------------------------------------------------------
// CreateProduct
// ---------------------------------------------------------------------------

func TestProductService_Create_Success(t *testing.T) {
	repo := newStubProductRepo()
	notifier := &stubNotifier{}
	svc := NewProductService(repo, notifier, discardLogger)

	p, err := svc.CreateProduct(context.Background(), minimalInput("DRX1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == "" {
		t.Error("expected server-assigned id")
	}
	if p.Status != domain.StatusPending {
		t.Errorf("expected default status pending, got %s", p.Status)
	}
	if p.CreatedAt.IsZero() || !p.CreatedAt.Equal(p.UpdatedAt) {
		t.Errorf("expected createdAt == updatedAt on create, got %v / %v", p.CreatedAt, p.UpdatedAt)
	}
	if len(notifier.calls) != 1 || notifier.calls[0] != ports.ResourceProducts {
		t.Errorf("expected one products announcement, got %v", notifier.calls)
	}
}

func TestProductService_Create_ExplicitStatus(t *testing.T) {
	svc := NewProductService(newStubProductRepo(), nil, discardLogger)

	in := minimalInput("DRX1")
	in.Status = "confirmed"
	p, err := svc.CreateProduct(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Status != domain.StatusConfirmed {
		t.Fatalf("expected confirmed, got %s", p.Status)
	}
}

func TestProductService_Create_Validation(t *testing.T) {
	svc := NewProductService(newStubProductRepo(), nil, discardLogger)

	bad := minimalInput("DRX1")
	bad.Status = "archived"
	if _, err := svc.CreateProduct(context.Background(), bad); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}

	missing := minimalInput("  ")
	if _, err := svc.CreateProduct(context.Background(), missing); !errors.Is(err, domain.ErrInvalidProduct) {
		t.Fatalf("expected ErrInvalidProduct for blank sku, got %v", err)
	}

	negative := minimalInput("DRX2")
	negative.Stock = -1
	if _, err := svc.CreateProduct(context.Background(), negative); !errors.Is(err, domain.ErrInvalidProduct) {
		t.Fatalf("expected ErrInvalidProduct for negative stock, got %v", err)
	}
}

func TestProductService_Create_DuplicateSKUDoesNotAnnounce(t *testing.T) {
	notifier := &stubNotifier{}
	svc := NewProductService(newStubProductRepo(), notifier, discardLogger)
	seededProduct(t, svc, "DRX1")
	notifier.calls = nil

	if _, err := svc.CreateProduct(context.Background(), minimalInput("DRX1")); !errors.Is(err, domain.ErrDuplicateSKU) {
		t.Fatalf("expected ErrDuplicateSKU, got %v", err)
	}
	if len(notifier.calls) != 0 {
		t.Fatalf("failed create must not announce, got %v", notifier.calls)
	}
}

func TestProductService_Create_NotifierFailureIsNonFatal(t *testing.T) {
	notifier := &stubNotifier{err: errors.New("redis down")}
	svc := NewProductService(newStubProductRepo(), notifier, discardLogger)

	if _, err := svc.CreateProduct(context.Background(), minimalInput("DRX1")); err != nil {
		t.Fatalf("expected success despite notifier failure, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// UpdateProduct / UpdateStatus / Delete
// ---------------------------------------------------------------------------

func TestProductService_Update_Partial(t *testing.T) {
	repo := newStubProductRepo()
	svc := NewProductService(repo, nil, discardLogger)
	p := seededProduct(t, svc, "DRX1")

	price := 149.5
	updated, err := svc.UpdateProduct(context.Background(), ports.UpdateProductInput{
		ID:    p.ID,
		Name:  strPtr("Drone X2"),
		Price: &price,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Name != "Drone X2" || updated.Price != 149.5 {
		t.Fatalf("changes not applied: %+v", updated)
	}
	if updated.SKU != "DRX1" || updated.Category != "drones" {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
}

func TestProductService_Update_RejectsBlankAndBadTransition(t *testing.T) {
	svc := NewProductService(newStubProductRepo(), nil, discardLogger)
	p := seededProduct(t, svc, "DRX1")

	if _, err := svc.UpdateProduct(context.Background(), ports.UpdateProductInput{ID: p.ID, Name: strPtr(" ")}); !errors.Is(err, domain.ErrInvalidProduct) {
		t.Fatalf("expected ErrInvalidProduct, got %v", err)
	}
	if _, err := svc.UpdateProduct(context.Background(), ports.UpdateProductInput{ID: p.ID, Status: strPtr("delivered")}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition pending->delivered, got %v", err)
	}
}

func TestProductService_Update_NoChangesReturnsCurrent(t *testing.T) {
	notifier := &stubNotifier{}
	svc := NewProductService(newStubProductRepo(), notifier, discardLogger)
	p := seededProduct(t, svc, "DRX1")
	notifier.calls = nil

	got, err := svc.UpdateProduct(context.Background(), ports.UpdateProductInput{ID: p.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != p.ID {
		t.Fatalf("expected current product, got %+v", got)
	}
	if len(notifier.calls) != 0 {
		t.Fatalf("no-op update must not announce")
	}
}

func TestProductService_Update_NotFound(t *testing.T) {
	svc := NewProductService(newStubProductRepo(), nil, discardLogger)
	if _, err := svc.UpdateProduct(context.Background(), ports.UpdateProductInput{ID: "missing", Name: strPtr("x")}); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestProductService_UpdateStatus(t *testing.T) {
	notifier := &stubNotifier{}
	svc := NewProductService(newStubProductRepo(), notifier, discardLogger)
	p := seededProduct(t, svc, "DRX1")

	updated, err := svc.UpdateStatus(context.Background(), p.ID, "confirmed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != domain.StatusConfirmed {
		t.Fatalf("expected confirmed, got %s", updated.Status)
	}

	if _, err := svc.UpdateStatus(context.Background(), p.ID, "bogus"); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}

	if _, err := svc.UpdateStatus(context.Background(), p.ID, "delivered"); err != nil {
		t.Fatalf("confirmed -> delivered should succeed: %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), p.ID, "pending"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("delivered is terminal, got %v", err)
	}
	if len(notifier.calls) != 3 {
		t.Fatalf("expected create + 2 status announcements, got %d", len(notifier.calls))
	}
}

func TestProductService_UpdateStatus_LosesToConcurrentChange(t *testing.T) {
	repo := newStubProductRepo()
	notifier := &stubNotifier{}
	svc := NewProductService(repo, notifier, discardLogger)
	p := seededProduct(t, svc, "DRX1")
	if _, err := svc.UpdateStatus(context.Background(), p.ID, "confirmed"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// a second request delivers the product after this one read it as confirmed
	repo.beforeUpdate = func(stored *domain.Product) { stored.Status = domain.StatusDelivered }
	if _, err := svc.UpdateStatus(context.Background(), p.ID, "cancelled"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	repo.byID[p.ID].Status = domain.StatusConfirmed
	if _, err := svc.UpdateProduct(context.Background(), ports.UpdateProductInput{ID: p.ID, Status: strPtr("pending")}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition from UpdateProduct, got %v", err)
	}
	repo.beforeUpdate = nil

	got, _ := repo.FindByID(context.Background(), p.ID)
	if got.Status != domain.StatusDelivered {
		t.Fatalf("delivered product was overwritten with %s", got.Status)
	}
	if len(notifier.calls) != 2 {
		t.Fatalf("failed updates must not be announced, got %d announcements", len(notifier.calls))
	}
}

func TestProductService_Delete(t *testing.T) {
	repo := newStubProductRepo()
	svc := NewProductService(repo, nil, discardLogger)
	p := seededProduct(t, svc, "DRX1")

	if err := svc.DeleteProduct(context.Background(), p.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := repo.byID[p.ID]; ok {
		t.Fatal("product still stored after delete")
	}
	if err := svc.DeleteProduct(context.Background(), p.ID); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound on second delete, got %v", err)
	}
}

func TestProductService_List_NewestFirst(t *testing.T) {
	svc := NewProductService(newStubProductRepo(), nil, discardLogger)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Hour)
	}

	first := seededProduct(t, svc, "A")
	second := seededProduct(t, svc, "B")

	list, err := svc.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("expected newest first, got %+v", list)
	}
}
