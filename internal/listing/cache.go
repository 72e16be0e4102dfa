package listing

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"stall/internal/constants"
	"stall/internal/logger"
	"stall/pkg/metrics"
)

// Cache holds reconstructed listings keyed by event id. Lookups degrade to a
// relay fetch on any cache failure; an order must never fail because the
// cache did.
type Cache interface {
	Get(ctx context.Context, id string) (*EventClassified, bool)
	Set(ctx context.Context, classified *EventClassified)
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, log logger.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: log,
	}
}

func (c *RedisCache) Get(ctx context.Context, id string) (*EventClassified, bool) {
	data, err := c.client.Get(ctx, constants.CacheKeyPrefixListing+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.ListingCacheTotal.WithLabelValues("miss").Inc()
		} else {
			metrics.ListingCacheTotal.WithLabelValues("error").Inc()
			c.logger.WarnwCtx(ctx, "Listing cache lookup failed",
				"listing_id", id,
				"error", err,
			)
		}
		return nil, false
	}

	var classified EventClassified
	if err := json.Unmarshal(data, &classified); err != nil {
		metrics.ListingCacheTotal.WithLabelValues("error").Inc()
		c.logger.WarnwCtx(ctx, "Listing cache entry is unreadable, refetching",
			"listing_id", id,
			"error", err,
		)
		return nil, false
	}

	metrics.ListingCacheTotal.WithLabelValues("hit").Inc()
	return &classified, true
}

func (c *RedisCache) Set(ctx context.Context, classified *EventClassified) {
	data, err := json.Marshal(classified)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, constants.CacheKeyPrefixListing+classified.ID, data, c.ttl).Err(); err != nil {
		c.logger.WarnwCtx(ctx, "Listing cache store failed",
			"listing_id", classified.ID,
			"error", err,
		)
	}
}

// NopCache is used when no cache backend is configured.
type NopCache struct{}

func (NopCache) Get(ctx context.Context, id string) (*EventClassified, bool) {
	return nil, false
}

func (NopCache) Set(ctx context.Context, classified *EventClassified) {}
