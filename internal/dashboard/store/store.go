// Package store is the dashboard's single state container. It holds the auth
// and products slices and changes them only through its named transitions,
// each applied under one write lock so readers never see half of a transition.
package store

import (
	"sync"
)

// User is the signed-in operator.
type User struct {
	ID    string
	Email string
	Role  string
}

// AuthState is the auth slice. IsAuthenticated is true exactly when User is set.
// Initialized turns true once the first session check, login or logout resolves.
type AuthState struct {
	User            *User
	IsAuthenticated bool
	Initialized     bool
}

// Product is one row of the products slice. CreatedAt and UpdatedAt are ISO-8601
// text, or "" when the feed had no usable timestamp.
type Product struct {
	ID        string
	Name      string
	SKU       string
	Price     float64
	Stock     int
	Category  string
	Status    string
	CreatedAt string
	UpdatedAt string
}

// State is a consistent copy of both slices at one version.
type State struct {
	Auth     AuthState
	Products []Product
	Version  uint64
}

type Store struct {
	mu      sync.RWMutex
	auth    AuthState
	items   []Product
	version uint64

	subsMu   sync.Mutex
	subs     map[chan uint64]struct{}
	notified uint64
}

func New() *Store {
	return &Store{subs: make(map[chan uint64]struct{})}
}

// --- auth transitions ---

// SetUser stores u (nil clears it) and marks the slice initialized.
func (s *Store) SetUser(u *User) {
	s.mu.Lock()
	if u != nil {
		copied := *u
		u = &copied
	}
	s.auth = AuthState{User: u, IsAuthenticated: u != nil, Initialized: true}
	v := s.bump()
	s.mu.Unlock()
	s.notify(v)
}

// ResetAuth clears the user and marks the slice initialized.
func (s *Store) ResetAuth() {
	s.mu.Lock()
	s.auth = AuthState{Initialized: true}
	v := s.bump()
	s.mu.Unlock()
	s.notify(v)
}

// --- products transitions ---

// SetProducts replaces the slice wholesale. When list repeats an id the first
// occurrence wins.
func (s *Store) SetProducts(list []Product) {
	items := make([]Product, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, p := range list {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		items = append(items, p)
	}

	s.mu.Lock()
	s.items = items
	v := s.bump()
	s.mu.Unlock()
	s.notify(v)
}

// UpsertProduct replaces the item with p's id in place, or prepends p.
func (s *Store) UpsertProduct(p Product) {
	s.mu.Lock()
	replaced := false
	for i := range s.items {
		if s.items[i].ID == p.ID {
			s.items[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		items := make([]Product, 0, len(s.items)+1)
		items = append(items, p)
		s.items = append(items, s.items...)
	}
	v := s.bump()
	s.mu.Unlock()
	s.notify(v)
}

// RemoveProduct drops the item with id, if any.
func (s *Store) RemoveProduct(id string) {
	s.mu.Lock()
	items := make([]Product, 0, len(s.items))
	for _, p := range s.items {
		if p.ID != id {
			items = append(items, p)
		}
	}
	s.items = items
	v := s.bump()
	s.mu.Unlock()
	s.notify(v)
}

func (s *Store) ClearProducts() {
	s.mu.Lock()
	s.items = nil
	v := s.bump()
	s.mu.Unlock()
	s.notify(v)
}

// --- reads ---

func (s *Store) Auth() AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyAuth(s.auth)
}

func (s *Store) Products() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyItems(s.items)
}

// Snapshot returns both slices read under the same lock.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{Auth: copyAuth(s.auth), Products: copyItems(s.items), Version: s.version}
}

func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// --- observation ---

// Subscribe returns a channel that receives the store version after every
// transition. Delivery never blocks a transition: an observer that has not
// read yet only sees the newest version.
func (s *Store) Subscribe() (<-chan uint64, func()) {
	ch := make(chan uint64, 1)
	s.subsMu.Lock()
	s.subs[ch] = struct{}{}
	s.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, ch)
			s.subsMu.Unlock()
		})
	}
}

// bump must be called with mu held.
func (s *Store) bump() uint64 {
	s.version++
	return s.version
}

func (s *Store) notify(v uint64) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	// transitions can reach here out of order once mu is released
	if v < s.notified {
		v = s.notified
	}
	s.notified = v
	for ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

func copyAuth(a AuthState) AuthState {
	if a.User != nil {
		u := *a.User
		a.User = &u
	}
	return a
}

func copyItems(items []Product) []Product {
	if items == nil {
		return []Product{}
	}
	out := make([]Product, len(items))
	copy(out, items)
	return out
}
