package processor

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Compile-time check to ensure RedisNotifier implements Notifier
var _ Notifier = (*RedisNotifier)(nil)

// RedisNotifier publishes refresh signals on the pub/sub channel the gateway
// listens on. The payload carries no data; receivers re-query the store.
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

func NewRedisNotifier(client *redis.Client, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel}
}

func (r *RedisNotifier) NotifyRefresh(ctx context.Context) error {
	return r.client.Publish(ctx, r.channel, "1").Err()
}
