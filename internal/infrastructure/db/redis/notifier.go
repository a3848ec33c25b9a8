package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel product changes are announced on.
const DefaultChannel = "productdash:changes"

// Notifier publishes resource keys so feeds in any process refresh.
type Notifier struct {
	client  *redis.Client
	channel string
}

func NewNotifier(client *redis.Client, channel string) *Notifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Notifier{client: client, channel: channel}
}

// Notify publishes resource on the change channel.
func (n *Notifier) Notify(ctx context.Context, resource string) error {
	if err := n.client.Publish(ctx, n.channel, resource).Err(); err != nil {
		return fmt.Errorf("publish %s change: %w", resource, err)
	}
	return nil
}
