// Package feed turns a product collection into a cancellable stream of full,
// ordered snapshots. A Source produces snapshots, a Subscription owns one
// running Source and reconnects it with backoff, and a Registry routes refresh
// requests to the subscriptions registered under a resource key.
package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrSourceStopped is reported when a source returns without error while its
// subscription is still open.
var ErrSourceStopped = errors.New("feed: source stopped")

// Record is one product as seen by feed consumers. Timestamps are ISO-8601 text
// in UTC, or "" when the stored value is absent or not a time.
type Record struct {
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

// Event carries either a complete snapshot or the error that interrupted the source.
type Event struct {
	Snapshot []Record
	Err      error
}

// Source delivers complete snapshots to emit until ctx is done or it fails.
// A receive on refresh asks for an immediate re-read.
type Source interface {
	Run(ctx context.Context, refresh <-chan struct{}, emit func([]Record)) error
}

// Options tunes a Subscription.
type Options struct {
	Logger  zerolog.Logger
	Backoff func(attempt int) time.Duration
}

// Subscription is one mounted feed. Events holds at most one pending event and a
// newer one replaces it, so a slow reader only ever sees the latest snapshot.
type Subscription struct {
	src     Source
	log     zerolog.Logger
	backoff func(int) time.Duration

	events  chan Event
	refresh chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// Subscribe starts src in its own goroutine. The subscription ends when ctx is
// cancelled or Close is called.
func Subscribe(ctx context.Context, src Source, opts Options) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	if opts.Backoff == nil {
		opts.Backoff = Backoff
	}
	s := &Subscription{
		src:     src,
		log:     opts.Logger,
		backoff: opts.Backoff,
		events:  make(chan Event, 1),
		refresh: make(chan struct{}, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

// Events is closed once the subscription has stopped.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Refresh asks the source for a fresh snapshot. It never blocks; requests made
// while one is pending collapse into it.
func (s *Subscription) Refresh() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

// Close stops the source and waits for its goroutine to exit. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(s.cancel)
	<-s.done
}

// Done is closed when the subscription goroutine has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) run(ctx context.Context) {
	defer close(s.done)
	defer close(s.events)

	attempt := 0
	for {
		err := s.src.Run(ctx, s.refresh, func(snapshot []Record) {
			attempt = 0
			s.publish(Event{Snapshot: snapshot})
		})
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			err = ErrSourceStopped
		}

		delay := s.backoff(attempt)
		attempt++
		s.log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", delay).Msg("feed source interrupted")
		s.publish(Event{Err: err})

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// publish replaces any unread event with ev. Only run sends on events, so the
// loop ends after at most one drain.
func (s *Subscription) publish(ev Event) {
	for {
		select {
		case s.events <- ev:
			return
		default:
		}
		select {
		case <-s.events:
		default:
		}
	}
}
