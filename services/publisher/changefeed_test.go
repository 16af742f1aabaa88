package publisher

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/catalogworker/internal/catalog"
	"sjsage522/catalogworker/services/cache"
)

// MockPublisher records published messages
type MockPublisher struct {
	Messages map[string][][]byte
	Trimmed  int
	Err      error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{Messages: make(map[string][][]byte)}
}

func (m *MockPublisher) Publish(ctx context.Context, key string, message []byte) error {
	if m.Err != nil {
		return m.Err
	}
	m.Messages[key] = append(m.Messages[key], message)
	return nil
}

func (m *MockPublisher) TrimStreams(ctx context.Context) error {
	m.Trimmed++
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}

var _ Publisher = (*MockPublisher)(nil)

func testRecords() []*catalog.Record {
	p1, p2 := 80.0, 140.0
	return []*catalog.Record{
		{ID: "B016", Title: "Acme 16GB", Price: &p1, CapacityGB: 16},
		{ID: "B032", Title: "Acme 32GB", Price: &p2, CapacityGB: 32},
	}
}

func TestChangeFeedPublishesOnlyChanges(t *testing.T) {
	ctx := context.Background()
	pub := NewMockPublisher()
	feed := NewChangeFeed(pub, cache.NewMemoryCache(), time.Hour, nil)

	records := testRecords()
	result, err := feed.PublishChanged(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, FeedResult{Published: 2}, result)

	var decoded catalog.Record
	require.NoError(t, json.Unmarshal(pub.Messages["B016"][0], &decoded))
	assert.Equal(t, "Acme 16GB", decoded.Title)

	result, err = feed.PublishChanged(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, FeedResult{Unchanged: 2}, result)

	newPrice := 75.0
	records[0].Price = &newPrice
	result, err = feed.PublishChanged(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, FeedResult{Published: 1, Unchanged: 1}, result)
	assert.Len(t, pub.Messages["B016"], 2)
	assert.Len(t, pub.Messages["B032"], 1)
	assert.Equal(t, 3, pub.Trimmed)
}

func TestChangeFeedPublishFailure(t *testing.T) {
	pub := NewMockPublisher()
	pub.Err = assert.AnError
	memory := cache.NewMemoryCache()
	feed := NewChangeFeed(pub, memory, time.Hour, nil)

	result, err := feed.PublishChanged(context.Background(), testRecords())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 2, result.Failed)

	_, err = memory.Get(CacheKey("B016"))
	assert.True(t, cache.IsMiss(err), "failed records are not remembered")
}

func TestChangeFeedCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	feed := NewChangeFeed(NewMockPublisher(), cache.NewMemoryCache(), time.Hour, nil)
	_, err := feed.PublishChanged(ctx, testRecords())
	assert.ErrorIs(t, err, context.Canceled)
}
