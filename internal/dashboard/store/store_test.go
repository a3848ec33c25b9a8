package store

import (
	"fmt"
	"math/rand"
	"testing"
)

func product(id string) Product {
	return Product{ID: id, Name: "name-" + id, SKU: "SKU-" + id, Status: "pending"}
}

func ids(items []Product) []string {
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = p.ID
	}
	return out
}

func assertUnique(t *testing.T, items []Product) {
	t.Helper()
	seen := map[string]bool{}
	for _, p := range items {
		if seen[p.ID] {
			t.Fatalf("duplicate id %q in %v", p.ID, ids(items))
		}
		seen[p.ID] = true
	}
}

func TestSetUserAndResetAuth(t *testing.T) {
	s := New()
	if a := s.Auth(); a.Initialized || a.IsAuthenticated || a.User != nil {
		t.Fatalf("unexpected initial auth: %+v", a)
	}

	s.SetUser(&User{ID: "u1", Email: "a@x.io", Role: "admin"})
	a := s.Auth()
	if !a.Initialized || !a.IsAuthenticated || a.User == nil || a.User.Email != "a@x.io" {
		t.Fatalf("unexpected auth after SetUser: %+v", a)
	}

	s.SetUser(nil)
	a = s.Auth()
	if !a.Initialized || a.IsAuthenticated || a.User != nil {
		t.Fatalf("unexpected auth after SetUser(nil): %+v", a)
	}

	s.SetUser(&User{ID: "u1"})
	s.ResetAuth()
	a = s.Auth()
	if !a.Initialized || a.IsAuthenticated || a.User != nil {
		t.Fatalf("unexpected auth after ResetAuth: %+v", a)
	}
}

func TestAuthReturnsCopy(t *testing.T) {
	s := New()
	u := &User{ID: "u1", Email: "a@x.io"}
	s.SetUser(u)
	u.Email = "changed"

	a := s.Auth()
	if a.User.Email != "a@x.io" {
		t.Fatalf("store aliased caller's user: %q", a.User.Email)
	}
	a.User.Email = "mutated"
	if s.Auth().User.Email != "a@x.io" {
		t.Fatal("reader mutated stored user")
	}
}

func TestSetProductsFirstOccurrenceWins(t *testing.T) {
	s := New()
	first := product("a")
	first.Name = "first"
	dup := product("a")
	dup.Name = "second"

	s.SetProducts([]Product{first, product("b"), dup})
	got := s.Products()
	if len(got) != 2 {
		t.Fatalf("expected 2 products, got %v", ids(got))
	}
	if got[0].Name != "first" {
		t.Fatalf("expected first occurrence to win, got %q", got[0].Name)
	}
}

func TestUpsertProduct(t *testing.T) {
	s := New()
	s.SetProducts([]Product{product("a"), product("b")})

	s.UpsertProduct(product("c"))
	if got := ids(s.Products()); fmt.Sprint(got) != "[c a b]" {
		t.Fatalf("expected new product prepended, got %v", got)
	}

	updated := product("a")
	updated.Stock = 9
	s.UpsertProduct(updated)
	got := s.Products()
	if fmt.Sprint(ids(got)) != "[c a b]" {
		t.Fatalf("expected order preserved on replace, got %v", ids(got))
	}
	if got[1].Stock != 9 {
		t.Fatalf("expected replaced item, got %+v", got[1])
	}
}

func TestRemoveAndClear(t *testing.T) {
	s := New()
	s.SetProducts([]Product{product("a"), product("b")})

	s.RemoveProduct("a")
	if got := ids(s.Products()); fmt.Sprint(got) != "[b]" {
		t.Fatalf("unexpected products after remove: %v", got)
	}
	s.RemoveProduct("missing")
	if len(s.Products()) != 1 {
		t.Fatal("removing unknown id changed the slice")
	}

	s.ClearProducts()
	got := s.Products()
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestRandomTransitionsNeverDuplicate(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	s := New()
	pick := func() string { return fmt.Sprintf("p%d", r.Intn(6)) }

	for i := 0; i < 2000; i++ {
		switch r.Intn(4) {
		case 0:
			n := r.Intn(8)
			list := make([]Product, n)
			for j := range list {
				list[j] = product(pick())
			}
			s.SetProducts(list)
		case 1:
			s.UpsertProduct(product(pick()))
		case 2:
			s.RemoveProduct(pick())
		case 3:
			if r.Intn(10) == 0 {
				s.ClearProducts()
			}
		}
		assertUnique(t, s.Products())
	}
}

func TestSnapshotIsConsistent(t *testing.T) {
	s := New()
	s.SetUser(&User{ID: "u1"})
	s.SetProducts([]Product{product("a")})

	snap := s.Snapshot()
	if snap.Version != s.Version() || snap.Version != 2 {
		t.Fatalf("unexpected version %d", snap.Version)
	}
	if !snap.Auth.IsAuthenticated || len(snap.Products) != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestSubscribeCoalesces(t *testing.T) {
	s := New()
	ch, cancel := s.Subscribe()
	defer cancel()

	s.UpsertProduct(product("a"))
	s.UpsertProduct(product("b"))
	s.RemoveProduct("a")

	select {
	case v := <-ch:
		if v != 3 {
			t.Fatalf("expected latest version 3, got %d", v)
		}
	default:
		t.Fatal("expected a pending notification")
	}
	select {
	case v := <-ch:
		t.Fatalf("expected notifications to coalesce, got extra %d", v)
	default:
	}

	cancel()
	s.ClearProducts()
	select {
	case v := <-ch:
		t.Fatalf("received %d after unsubscribe", v)
	default:
	}
}
