package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTrigger fires when resource is published on channel.
type RedisTrigger struct {
	client   *redis.Client
	channel  string
	resource string
}

func NewRedisTrigger(client *redis.Client, channel, resource string) *RedisTrigger {
	return &RedisTrigger{client: client, channel: channel, resource: resource}
}

func (t *RedisTrigger) Watch(ctx context.Context, listening, notify func()) error {
	ps := t.client.Subscribe(ctx, t.channel)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", t.channel, err)
	}
	listening()

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("subscription to %s closed", t.channel)
			}
			if msg.Payload == t.resource {
				notify()
			}
		}
	}
}

// PollTrigger fires on a fixed interval.
type PollTrigger struct {
	Interval time.Duration
}

func (t PollTrigger) Watch(ctx context.Context, listening, notify func()) error {
	listening()
	interval := t.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			notify()
		}
	}
}

// NoTrigger never fires; snapshots then only follow explicit refreshes.
type NoTrigger struct{}

func (NoTrigger) Watch(ctx context.Context, listening, _ func()) error {
	listening()
	<-ctx.Done()
	return nil
}
