package repository

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Compile-time check to ensure RedisNotifier implements RefreshSource
var _ RefreshSource = (*RedisNotifier)(nil)

// RedisNotifier listens on a pub/sub channel for refresh notifications
// published by the processor after it commits new price rows.
type RedisNotifier struct {
	client *redis.Client
	pubsub *redis.PubSub
}

func NewRedisNotifier(client *redis.Client, channel string) *RedisNotifier {
	return &RedisNotifier{
		client: client,
		pubsub: client.Subscribe(context.Background(), channel),
	}
}

// Run blocks reading notifications until the context is done or the
// subscription is closed. The payload carries no information; any message
// means "new rows committed, refresh now".
func (r *RedisNotifier) Run(ctx context.Context, onRefresh func()) {
	ch := r.pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			onRefresh()
		}
	}
}

func (r *RedisNotifier) Close() error {
	if err := r.pubsub.Close(); err != nil {
		return err
	}
	return r.client.Close()
}
