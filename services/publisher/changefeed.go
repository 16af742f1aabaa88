package publisher

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"sjsage522/catalogworker/internal/catalog"
	"sjsage522/catalogworker/logger"
	"sjsage522/catalogworker/pkg/errors"
	"sjsage522/catalogworker/services/cache"
)

const stageChangeFeed = "changefeed"

// ChangeFeed publishes the records whose content changed since the last run.
// The hash of each published record is remembered in the cache under
// "catalog:<id>".
type ChangeFeed struct {
	publisher Publisher
	cache     cache.CacheService
	ttl       time.Duration
	log       *logger.Logger
}

// FeedResult summarizes one change feed pass
type FeedResult struct {
	Published int
	Unchanged int
	Failed    int
}

// NewChangeFeed creates a new change feed
func NewChangeFeed(publisher Publisher, cacheSvc cache.CacheService, ttl time.Duration, log *logger.Logger) *ChangeFeed {
	if log == nil {
		log = logger.Nop()
	}
	return &ChangeFeed{
		publisher: publisher,
		cache:     cacheSvc,
		ttl:       ttl,
		log:       log,
	}
}

// CacheKey returns the cache key holding a record's last published hash
func CacheKey(id string) string {
	return "catalog:" + id
}

// Hash returns the content hash of an encoded record
func Hash(data []byte) string {
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}

// PublishChanged publishes every record whose hash differs from the cached
// one, then trims the streams. Per-record failures are counted and logged;
// the returned error reports the first one.
func (f *ChangeFeed) PublishChanged(ctx context.Context, records []*catalog.Record) (FeedResult, error) {
	var result FeedResult
	var firstErr error
	fail := func(err error) {
		result.Failed++
		if firstErr == nil {
			firstErr = err
		}
	}

	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		data, err := json.Marshal(r)
		if err != nil {
			fail(errors.NewPublisher(stageChangeFeed, "encode record "+r.ID, err))
			continue
		}
		hash := Hash(data)
		key := CacheKey(r.ID)

		cached, err := f.cache.Get(key)
		if err != nil && !cache.IsMiss(err) {
			f.log.Warn().Err(errors.NewCache(stageChangeFeed, "get "+key, err)).Str("id", r.ID).Msg("Cache lookup failed, publishing record")
		}
		if err == nil && string(cached) == hash {
			result.Unchanged++
			continue
		}

		if err := f.publisher.Publish(ctx, r.ID, data); err != nil {
			fail(errors.NewPublisher(stageChangeFeed, "publish record "+r.ID, err))
			continue
		}
		result.Published++

		if err := f.cache.Set(key, []byte(hash), f.ttl); err != nil {
			f.log.Warn().Err(errors.NewCache(stageChangeFeed, "set "+key, err)).Str("id", r.ID).Msg("Failed to remember published hash")
		}
	}

	if err := f.publisher.TrimStreams(ctx); err != nil {
		fail(errors.NewPublisher(stageChangeFeed, "trim streams", err))
	}

	f.log.Info().
		Int("published", result.Published).
		Int("unchanged", result.Unchanged).
		Int("failed", result.Failed).
		Msg("Change feed published")

	return result, firstErr
}
