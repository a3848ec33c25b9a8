package datasync

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/99minutos/product-dashboard/internal/dashboard/apiclient"
	"github.com/99minutos/product-dashboard/internal/dashboard/store"
	"github.com/99minutos/product-dashboard/internal/infrastructure/feed"
)

// Watch is one live subscription to the product collection.
type Watch struct {
	sub        *feed.Subscription
	unregister func()
	consumed   chan struct{}
	once       sync.Once
}

// Close stops the subscription and waits until no more snapshots can reach
// the store. Safe to call more than once.
func (w *Watch) Close() {
	w.once.Do(func() {
		w.unregister()
		w.sub.Close()
		<-w.consumed
	})
}

// Done is closed once the watch has stopped applying snapshots.
func (w *Watch) Done() <-chan struct{} {
	return w.consumed
}

// WatchProducts subscribes to the product feed. Every snapshot replaces the
// products slice; errors are logged and leave the slice as it was.
func (s *Syncer) WatchProducts(ctx context.Context) *Watch {
	sub := feed.Subscribe(ctx, &streamSource{api: s.api}, feed.Options{
		Logger:  s.log,
		Backoff: s.backoff,
	})
	w := &Watch{
		sub:        sub,
		unregister: s.registry.Register(ProductsResource, sub),
		consumed:   make(chan struct{}),
	}

	go func() {
		defer close(w.consumed)
		for ev := range sub.Events() {
			if ev.Err != nil {
				s.log.Warn().Err(ev.Err).Msg("product feed error, keeping last snapshot")
				continue
			}
			items := make([]store.Product, len(ev.Snapshot))
			for i, r := range ev.Snapshot {
				items[i] = toStoreProduct(r)
			}
			s.store.SetProducts(items)
		}
	}()
	return w
}

// Run keeps one product watch mounted while the operator is signed in and
// unmounts it on sign-out or when ctx ends.
func (s *Syncer) Run(ctx context.Context) error {
	versions, cancel := s.store.Subscribe()
	defer cancel()
	defer s.unmount()

	s.reconcile(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-versions:
			s.reconcile(ctx)
		}
	}
}

// Mounted reports whether a product watch is active.
func (s *Syncer) Mounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}

func (s *Syncer) reconcile(ctx context.Context) {
	if s.store.Auth().IsAuthenticated {
		s.mount(ctx)
	} else {
		s.unmount()
	}
}

func (s *Syncer) mount(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// auth is read again under mu so a concurrent Logout cannot be outrun
	if s.active != nil || !s.store.Auth().IsAuthenticated {
		return
	}
	s.active = s.WatchProducts(ctx)
	s.log.Debug().Msg("product feed mounted")
}

// unmount holds mu until the watch has stopped, so every caller returns only
// after the last snapshot has been applied.
func (s *Syncer) unmount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return
	}
	s.active.Close()
	s.active = nil
	s.log.Debug().Msg("product feed unmounted")
}

// streamSource reads snapshots from the API's event stream and re-lists the
// products when a refresh is requested.
type streamSource struct {
	api API
}

func (src *streamSource) Run(ctx context.Context, refresh <-chan struct{}, emit func([]feed.Record)) error {
	var mu sync.Mutex
	send := func(products []apiclient.Product) {
		records := make([]feed.Record, len(products))
		for i, p := range products {
			records[i] = recordOf(p)
		}
		mu.Lock()
		defer mu.Unlock()
		emit(records)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := src.api.StreamProducts(ctx, send)
		if ctx.Err() != nil {
			return nil
		}
		return err
	})
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-refresh:
			}
			products, err := src.api.ListProducts(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			send(products)
		}
	})
	return g.Wait()
}
