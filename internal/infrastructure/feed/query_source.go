package feed

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Fetcher reads one complete snapshot.
type Fetcher interface {
	Fetch(ctx context.Context) ([]Record, error)
}

// Trigger blocks until ctx is done, calling notify whenever the underlying data
// may have changed. It calls listening once it can no longer miss a change.
// Returning while ctx is still live means the trigger broke.
type Trigger interface {
	Watch(ctx context.Context, listening, notify func()) error
}

// QuerySource re-reads the whole snapshot whenever its trigger fires or a refresh
// is requested. The first read waits until the trigger is listening.
type QuerySource struct {
	fetcher Fetcher
	trigger Trigger
}

func NewQuerySource(fetcher Fetcher, trigger Trigger) *QuerySource {
	return &QuerySource{fetcher: fetcher, trigger: trigger}
}

func (q *QuerySource) Run(ctx context.Context, refresh <-chan struct{}, emit func([]Record)) error {
	g, ctx := errgroup.WithContext(ctx)
	changed := make(chan struct{}, 1)
	ready := make(chan struct{})
	var readyOnce sync.Once

	g.Go(func() error {
		listening := func() { readyOnce.Do(func() { close(ready) }) }
		err := q.trigger.Watch(ctx, listening, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
		if err == nil && ctx.Err() == nil {
			return ErrSourceStopped
		}
		return err
	})

	g.Go(func() error {
		fetch := func() error {
			snapshot, err := q.fetcher.Fetch(ctx)
			if err != nil {
				return err
			}
			emit(snapshot)
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ready:
		}
		if err := fetch(); err != nil {
			return err
		}
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-changed:
			case <-refresh:
			}
			if err := fetch(); err != nil {
				return err
			}
		}
	})

	return g.Wait()
}
