// Package filtercache caches the distinct values of filterable content fields
// (categories, types) in Redis. The cache is best-effort: failures are logged
// and reported as misses.
//
// Entries are keyed by a per-kind generation. Invalidate bumps the generation,
// so a value computed before a mutation is written under a generation nobody
// reads any more and expires with its TTL.
package filtercache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/heartmarshall/regpulse-backend/internal/domain"
)

const keyPrefix = "filters:"

type recorder interface {
	IncFilterCache(result string)
}

// Cache is a Redis-backed filter-value cache. A Cache without a client is a
// no-op that always misses.
type Cache struct {
	client  redis.UniversalClient
	ttl     time.Duration
	log     *slog.Logger
	metrics recorder
}

// New creates a cache. client may be nil to disable caching.
func New(client redis.UniversalClient, ttl time.Duration, log *slog.Logger, metrics recorder) *Cache {
	return &Cache{
		client:  client,
		ttl:     ttl,
		log:     log.With("component", "filtercache"),
		metrics: metrics,
	}
}

// Key returns the cache key of a kind's field at generation gen.
func Key(k domain.Kind, gen int64, field string) string {
	return keyPrefix + k.String() + ":" + strconv.FormatInt(gen, 10) + ":" + field
}

// GenerationKey returns the key holding the current generation of kind k.
func GenerationKey(k domain.Kind) string {
	return keyPrefix + k.String() + ":gen"
}

// Get returns the cached values, and false on a miss. gen is the generation
// the lookup ran against; pass it to Set when filling the miss. A negative
// gen means the generation is unknown and the result must not be cached.
func (c *Cache) Get(ctx context.Context, k domain.Kind, field string) (values []string, gen int64, ok bool) {
	if c.client == nil {
		return nil, -1, false
	}

	gen, err := c.client.Get(ctx, GenerationKey(k)).Int64()
	if errors.Is(err, redis.Nil) {
		gen, err = 0, nil
	}
	if err != nil {
		c.record("error")
		c.log.WarnContext(ctx, "filter cache generation read failed", slog.String("kind", k.String()), slog.String("error", err.Error()))
		return nil, -1, false
	}

	key := Key(k, gen, field)
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.record("miss")
		return nil, gen, false
	}
	if err != nil {
		c.record("error")
		c.log.WarnContext(ctx, "filter cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		return nil, -1, false
	}

	if err := json.Unmarshal(raw, &values); err != nil {
		c.record("error")
		return nil, gen, false
	}
	c.record("hit")
	return values, gen, true
}

// Set stores values under generation gen for the configured TTL.
func (c *Cache) Set(ctx context.Context, k domain.Kind, field string, gen int64, values []string) {
	if c.client == nil || gen < 0 {
		return
	}
	if values == nil {
		values = []string{}
	}

	raw, err := json.Marshal(values)
	if err != nil {
		return
	}
	key := Key(k, gen, field)
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "filter cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// Invalidate moves kind k to a new generation. Entries of older generations
// are never read again.
func (c *Cache) Invalidate(ctx context.Context, k domain.Kind) {
	if c.client == nil {
		return
	}
	if err := c.client.Incr(ctx, GenerationKey(k)).Err(); err != nil {
		c.log.WarnContext(ctx, "filter cache invalidation failed", slog.String("kind", k.String()), slog.String("error", err.Error()))
	}
}

func (c *Cache) record(result string) {
	if c.metrics != nil {
		c.metrics.IncFilterCache(result)
	}
}
