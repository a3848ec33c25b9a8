package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"
)

func newFakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body credentials
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":"invalid credentials"}`)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "tok", Path: "/", HttpOnly: true})
		fmt.Fprintf(w, `{"user":{"id":"u1","email":%q,"role":"admin"}}`, body.Email)
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("session"); err != nil || c.Value != "tok" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":"unauthorized"}`)
			return
		}
		fmt.Fprint(w, `{"user":{"id":"u1","email":"a@x.io","role":"admin"}}`)
	})
	mux.HandleFunc("PATCH /products/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		fmt.Fprintf(w, `{"product":{"id":%q,"status":%q}}`, r.PathValue("id"), body["status"])
	})
	mux.HandleFunc("PATCH /products/{id}", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		keys := make([]string, 0, len(body))
		for k := range body {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		body["id"] = r.PathValue("id")
		body["category"] = strings.Join(keys, ",")
		_ = json.NewEncoder(w).Encode(map[string]any{"product": body})
	})
	mux.HandleFunc("DELETE /products/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /products", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"message":"sku taken"}`)
	})
	mux.HandleFunc("GET /products", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `<html>bad gateway</html>`)
	})
	mux.HandleFunc("GET /products/stream", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": ping\n\n")
		fmt.Fprint(w, "event: snapshot\ndata: {\"products\":[{\"id\":\"a\"},{\"id\":\"b\"}]}\n\n")
		fmt.Fprint(w, "event: other\ndata: {}\n\n")
		fmt.Fprint(w, "event: snapshot\ndata: {\"products\":[]}\n\n")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(srv.URL+"/", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

func TestLoginKeepsSessionCookie(t *testing.T) {
	c := newClient(t, newFakeAPI(t))
	ctx := context.Background()

	if _, err := c.Me(ctx); !IsUnauthorized(err) {
		t.Fatalf("expected 401 before login, got %v", err)
	}

	u, err := c.Login(ctx, "a@x.io", "secret")
	if err != nil {
		t.Fatalf("unexpected login error: %v", err)
	}
	if u.Email != "a@x.io" || u.Role != "admin" {
		t.Fatalf("unexpected user %+v", u)
	}

	me, err := c.Me(ctx)
	if err != nil {
		t.Fatalf("expected session to be sent, got %v", err)
	}
	if me.ID != "u1" {
		t.Fatalf("unexpected me %+v", me)
	}
}

func TestErrorMessages(t *testing.T) {
	c := newClient(t, newFakeAPI(t))
	ctx := context.Background()

	_, err := c.Login(ctx, "a@x.io", "wrong")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized || apiErr.Error() != "invalid credentials" {
		t.Fatalf("expected server message from error field, got %v", err)
	}

	_, err = c.CreateProduct(ctx, ProductInput{Name: "x"})
	if err == nil || err.Error() != "sku taken" {
		t.Fatalf("expected server message from message field, got %v", err)
	}

	_, err = c.ListProducts(ctx)
	if !errors.As(err, &apiErr) || apiErr.Message != "" || apiErr.Error() != "request failed with status 502" {
		t.Fatalf("expected generic message for non-json body, got %v", err)
	}
}

func TestStatusAndDelete(t *testing.T) {
	c := newClient(t, newFakeAPI(t))
	ctx := context.Background()

	p, err := c.UpdateProductStatus(ctx, "p1", "confirmed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != "p1" || p.Status != "confirmed" {
		t.Fatalf("unexpected product %+v", p)
	}
	if err := c.DeleteProduct(ctx, "p1"); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}
}

func TestUpdateProductSendsOnlySetFields(t *testing.T) {
	c := newClient(t, newFakeAPI(t))
	name, stock := "Desk Lamp XL", 0

	p, err := c.UpdateProduct(context.Background(), "p1", ProductPatch{Name: &name, Stock: &stock})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// the fake reports the fields it received in category
	if p.ID != "p1" || p.Name != "Desk Lamp XL" || p.Stock != 0 || p.Category != "name,stock" {
		t.Fatalf("unexpected product %+v", p)
	}
}

func TestStreamProducts(t *testing.T) {
	c := newClient(t, newFakeAPI(t))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var sizes []int
	err := c.StreamProducts(ctx, func(ps []Product) { sizes = append(sizes, len(ps)) })
	if !errors.Is(err, ErrStreamClosed) {
		t.Fatalf("expected ErrStreamClosed, got %v", err)
	}
	if fmt.Sprint(sizes) != "[2 0]" {
		t.Fatalf("unexpected snapshots %v", sizes)
	}
}

func TestNewRejectsRelativeURL(t *testing.T) {
	if _, err := New("/api", nil); err == nil {
		t.Fatal("expected error for relative base url")
	}
}
