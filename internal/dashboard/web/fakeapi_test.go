package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

const (
	demoEmail    = "demo@example.com"
	demoPassword = "password123"
)

type fakeProduct struct {
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

// fakeAPI is an in-memory product API with cookie sessions.
type fakeAPI struct {
	mu       sync.Mutex
	products []fakeProduct
	seq      int
	loggedIn map[string]bool
	stop     chan struct{}

	srv *httptest.Server
}

func newFakeAPI(t *testing.T, seed ...fakeProduct) *fakeAPI {
	t.Helper()
	f := &fakeAPI{products: seed, loggedIn: map[string]bool{}, stop: make(chan struct{})}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", f.login)
	mux.HandleFunc("GET /auth/me", f.authed(f.me))
	mux.HandleFunc("POST /auth/logout", f.logout)
	mux.HandleFunc("GET /products", f.authed(f.list))
	mux.HandleFunc("GET /products/stream", f.authed(f.stream))
	mux.HandleFunc("POST /products", f.authed(f.create))
	mux.HandleFunc("PATCH /products/{id}", f.authed(f.update))
	mux.HandleFunc("PATCH /products/{id}/status", f.authed(f.status))
	mux.HandleFunc("DELETE /products/{id}", f.authed(f.delete))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.close)
	return f
}

// close ends open streams before shutting the server down.
func (f *fakeAPI) close() {
	f.mu.Lock()
	select {
	case <-f.stop:
	default:
		close(f.stop)
	}
	f.mu.Unlock()
	f.srv.Close()
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeAPI) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("session")
		f.mu.Lock()
		ok := err == nil && f.loggedIn[c.Value]
		f.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid session"})
			return
		}
		next(w, r)
	}
}

func (f *fakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var body struct{ Email, Password string }
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.Email != demoEmail || body.Password != demoPassword {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}
	f.mu.Lock()
	f.seq++
	token := fmt.Sprintf("tok-%d", f.seq)
	f.loggedIn[token] = true
	f.mu.Unlock()
	http.SetCookie(w, &http.Cookie{Name: "session", Value: token, Path: "/", HttpOnly: true})
	writeJSON(w, http.StatusOK, map[string]any{"user": map[string]string{"id": "u1", "email": demoEmail, "role": "admin"}})
}

func (f *fakeAPI) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"user": map[string]string{"id": "u1", "email": demoEmail, "role": "admin"}})
}

func (f *fakeAPI) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie("session"); err == nil {
		f.mu.Lock()
		delete(f.loggedIn, c.Value)
		f.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: "session", Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (f *fakeAPI) snapshot() []fakeProduct {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]fakeProduct, len(f.products))
	copy(out, f.products)
	return out
}

func (f *fakeAPI) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"products": f.snapshot()})
}

func (f *fakeAPI) stream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	data, _ := json.Marshal(map[string]any{"products": f.snapshot()})
	fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data)
	w.(http.Flusher).Flush()

	select {
	case <-r.Context().Done():
	case <-f.stop:
	}
}

func (f *fakeAPI) create(w http.ResponseWriter, r *http.Request) {
	var p fakeProduct
	_ = json.NewDecoder(r.Body).Decode(&p)

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.products {
		if existing.SKU == p.SKU {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "a product with this SKU already exists"})
			return
		}
	}
	f.seq++
	p.ID = fmt.Sprintf("p%d", f.seq)
	if p.Status == "" {
		p.Status = "pending"
	}
	p.CreatedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC).Format(time.RFC3339)
	p.UpdatedAt = p.CreatedAt
	f.products = append([]fakeProduct{p}, f.products...)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"product": p})
}

func (f *fakeAPI) update(w http.ResponseWriter, r *http.Request) {
	var patch struct {
		Name     *string  `json:"name"`
		SKU      *string  `json:"sku"`
		Price    *float64 `json:"price"`
		Stock    *int     `json:"stock"`
		Category *string  `json:"category"`
		Status   *string  `json:"status"`
	}
	_ = json.NewDecoder(r.Body).Decode(&patch)
	id := r.PathValue("id")

	f.mu.Lock()
	defer f.mu.Unlock()
	if patch.SKU != nil {
		for _, existing := range f.products {
			if existing.ID != id && existing.SKU == *patch.SKU {
				writeJSON(w, http.StatusConflict, map[string]string{"error": "a product with this SKU already exists"})
				return
			}
		}
	}
	for i := range f.products {
		p := &f.products[i]
		if p.ID != id {
			continue
		}
		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.SKU != nil {
			p.SKU = *patch.SKU
		}
		if patch.Price != nil {
			p.Price = *patch.Price
		}
		if patch.Stock != nil {
			p.Stock = *patch.Stock
		}
		if patch.Category != nil {
			p.Category = *patch.Category
		}
		if patch.Status != nil {
			p.Status = *patch.Status
		}
		writeJSON(w, http.StatusOK, map[string]any{"product": *p})
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
}

func (f *fakeAPI) status(w http.ResponseWriter, r *http.Request) {
	var body struct{ Status string }
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.products {
		if f.products[i].ID == r.PathValue("id") {
			f.products[i].Status = body.Status
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"product": f.products[i]})
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (f *fakeAPI) delete(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.products {
		if f.products[i].ID == r.PathValue("id") {
			f.products = append(f.products[:i], f.products[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}
