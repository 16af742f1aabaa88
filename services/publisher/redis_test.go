package publisher

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Publisher = (*RedisPublisher)(nil)

func TestStreamFor(t *testing.T) {
	p := NewRedisPublisher("localhost:6379", 0, "catalog", 4, 10)
	defer p.Close()

	seen := make(map[string]bool)
	for _, id := range []string{"B016", "B032", "B064", "B128", "B256", "B512"} {
		stream := p.StreamFor(id)
		assert.Equal(t, stream, p.StreamFor(id), "sharding is deterministic")
		assert.Regexp(t, `^catalog:[0-3]$`, stream)
		seen[stream] = true
	}
	assert.NotEmpty(t, seen)

	single := NewRedisPublisher("localhost:6379", 0, "catalog", 0, 10)
	defer single.Close()
	assert.Equal(t, "catalog:0", single.StreamFor("anything"))
}

// This test requires a running Redis instance
// If Redis is not available, the test will be skipped
func TestRedisPublisher(t *testing.T) {
	ctx := context.Background()
	publisher := NewRedisPublisher("localhost:6379", 0, "test_catalog_stream", 1, 2)
	defer publisher.Close()

	if err := publisher.Ping(ctx); err != nil {
		t.Skip("Redis is not available, skipping test")
	}

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 0})
	defer client.Close()
	stream := publisher.StreamFor("B016")
	client.Del(ctx, stream)
	defer client.Del(ctx, stream)

	for _, msg := range []string{"one", "two", "three"} {
		require.NoError(t, publisher.Publish(ctx, "B016", []byte(msg)))
	}

	messages, err := client.XRange(ctx, stream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("one")), messages[0].Values["B016"])

	require.NoError(t, publisher.TrimStreams(ctx))
	length, err := client.XLen(ctx, stream).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), length)
}
