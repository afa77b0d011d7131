package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisPublishClient is the part of *redis.Client the publisher uses.
type RedisPublishClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// NewRedisClient parses url and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisListener returns a bus listener that publishes every event envelope
// as JSON on channel, so other API instances can relay it to their clients.
func RedisListener(client RedisPublishClient, channel string) Listener {
	return func(ctx context.Context, event Event) error {
		payload, err := json.Marshal(NewEnvelope(event))
		if err != nil {
			return fmt.Errorf("failed to encode event %s: %w", event.Name(), err)
		}
		if err := client.Publish(ctx, channel, payload).Err(); err != nil {
			return fmt.Errorf("failed to publish %s to redis: %w", event.Name(), err)
		}
		return nil
	}
}
