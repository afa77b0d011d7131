package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	channel string
	message []byte
	err     error
}

func (f *fakeRedis) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	f.message, _ = message.([]byte)
	return redis.NewIntResult(1, f.err)
}

func TestRedisListenerPublishesEnvelope(t *testing.T) {
	client := &fakeRedis{}
	listener := RedisListener(client, "production-events")

	err := listener(context.Background(), MaterialArrived{OrderRef: OrderRef{OrderID: 5, ConfirmationNumber: "2026-015"}, MaterialID: 11})
	require.NoError(t, err)

	assert.Equal(t, "production-events", client.channel)
	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(client.message, &env))
	assert.Equal(t, NameMaterialArrived, env["type"])
	payload := env["payload"].(map[string]interface{})
	assert.Equal(t, "2026-015", payload["confirmation_number"])
}

func TestRedisListenerReturnsPublishError(t *testing.T) {
	client := &fakeRedis{err: errors.New("connection refused")}
	listener := RedisListener(client, "production-events")

	err := listener(context.Background(), ProblemReported{})
	assert.ErrorContains(t, err, "connection refused")
}

func TestNewRedisClientRejectsBadURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}
