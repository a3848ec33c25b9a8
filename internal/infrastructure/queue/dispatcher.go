package queue

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/99minutos/product-dashboard/internal/infrastructure/feed"
)

// clientBuffer is one: a stream client only ever needs the newest snapshot.
const clientBuffer = 1

// Dispatcher fans the snapshots of one feed subscription out to every connected
// stream client. A client that falls behind skips to the latest snapshot rather
// than blocking the others.
type Dispatcher struct {
	mu      sync.Mutex
	clients map[chan []feed.Record]struct{}
	last    []feed.Record
	hasLast bool

	onSnapshot func(size, clients int)
	log        zerolog.Logger
}

// NewDispatcher creates a Dispatcher. onSnapshot, when set, is called after each
// broadcast with the snapshot length and the number of clients reached.
func NewDispatcher(log zerolog.Logger, onSnapshot func(size, clients int)) *Dispatcher {
	return &Dispatcher{
		clients:    make(map[chan []feed.Record]struct{}),
		onSnapshot: onSnapshot,
		log:        log,
	}
}

// Start relays sub's events until ctx is cancelled or the subscription ends.
// Errors are logged; clients keep the last good snapshot.
func (d *Dispatcher) Start(ctx context.Context, sub *feed.Subscription) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub.Events():
				if !ok {
					return
				}
				if ev.Err != nil {
					d.log.Error().Err(ev.Err).Msg("product feed error")
					continue
				}
				d.Broadcast(ev.Snapshot)
			}
		}
	}()
}

// Join registers a client. The returned channel already holds the latest
// snapshot when one is known. leave must be called once the client is gone.
func (d *Dispatcher) Join() (updates <-chan []feed.Record, leave func()) {
	ch := make(chan []feed.Record, clientBuffer)

	d.mu.Lock()
	d.clients[ch] = struct{}{}
	if d.hasLast {
		ch <- d.last
	}
	d.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.clients, ch)
			d.mu.Unlock()
		})
	}
}

// Broadcast stores snapshot as the latest and hands it to every client,
// replacing anything a client has not read yet.
func (d *Dispatcher) Broadcast(snapshot []feed.Record) {
	d.mu.Lock()
	d.last = snapshot
	d.hasLast = true
	for ch := range d.clients {
		replaceLatest(ch, snapshot)
	}
	n := len(d.clients)
	d.mu.Unlock()

	if d.onSnapshot != nil {
		d.onSnapshot(len(snapshot), n)
	}
}

// Clients reports how many clients are connected.
func (d *Dispatcher) Clients() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.clients)
}

// replaceLatest runs under d.mu, so Broadcast is the only sender on ch.
func replaceLatest(ch chan []feed.Record, snapshot []feed.Record) {
	for {
		select {
		case ch <- snapshot:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
