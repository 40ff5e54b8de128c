package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/availability"
)

// AvailabilityCache keeps per-field, per-day upstream feeds in redis so the
// feed service is not hit on every availability request. Cache failures are
// treated as misses; a nil client disables caching entirely.
type AvailabilityCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewAvailabilityCache(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *AvailabilityCache {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &AvailabilityCache{rdb: rdb, ttl: ttl, logger: logger}
}

func feedKey(fieldID, date string) string {
	return "availability:feed:" + fieldID + ":" + date
}

func (c *AvailabilityCache) Get(ctx context.Context, fieldID, date string) (availability.Feed, bool) {
	if c == nil || c.rdb == nil {
		return availability.Feed{}, false
	}
	raw, err := c.rdb.Get(ctx, feedKey(fieldID, date)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("availability cache read failed", "err", err)
		}
		return availability.Feed{}, false
	}
	var f availability.Feed
	if err := json.Unmarshal(raw, &f); err != nil {
		return availability.Feed{}, false
	}
	return f, true
}

func (c *AvailabilityCache) Set(ctx context.Context, fieldID, date string, f availability.Feed) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(f)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, feedKey(fieldID, date), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("availability cache write failed", "err", err)
	}
}

// Invalidate drops the cached feed after a booking changes the day's state.
func (c *AvailabilityCache) Invalidate(ctx context.Context, fieldID, date string) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, feedKey(fieldID, date)).Err(); err != nil {
		c.logger.Warn("availability cache invalidate failed", "err", err)
	}
}
