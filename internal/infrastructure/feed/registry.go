package feed

import (
	"context"
	"errors"
	"sync"

	"github.com/99minutos/product-dashboard/internal/core/ports"
)

// Registry routes refresh requests to the subscriptions registered under a
// resource key. It satisfies ports.ChangeNotifier.
type Registry struct {
	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}
}

func NewRegistry() *Registry {
	return &Registry{subs: make(map[string]map[*Subscription]struct{})}
}

// Register adds sub under resource and returns the func that removes it.
func (r *Registry) Register(resource string, sub *Subscription) (unregister func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.subs[resource]
	if !ok {
		set = make(map[*Subscription]struct{})
		r.subs[resource] = set
	}
	set[sub] = struct{}{}

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subs[resource], sub)
		if len(r.subs[resource]) == 0 {
			delete(r.subs, resource)
		}
	}
}

// Invalidate asks every subscription under resource to re-read.
func (r *Registry) Invalidate(resource string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for sub := range r.subs[resource] {
		sub.Refresh()
	}
}

// Notify implements ports.ChangeNotifier.
func (r *Registry) Notify(_ context.Context, resource string) error {
	r.Invalidate(resource)
	return nil
}

// Notifiers fans one change announcement out to several notifiers.
type Notifiers []ports.ChangeNotifier

func (ns Notifiers) Notify(ctx context.Context, resource string) error {
	var errs []error
	for _, n := range ns {
		if err := n.Notify(ctx, resource); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
