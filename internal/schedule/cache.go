package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	platformredis "civid/internal/platform/redis"
	id "civid/pkg/domain"
)

// AvailabilityCache is the read cache for per-day slot availability. Misses
// and errors fall through to the store; Invalidate is called on every
// reservation change and ledger regeneration.
type AvailabilityCache interface {
	Get(ctx context.Context, centerID id.CenterID, date time.Time) (Availability, bool)
	Set(ctx context.Context, centerID id.CenterID, date time.Time, avail Availability)
	Invalidate(ctx context.Context, centerID id.CenterID, date time.Time)
}

// RedisAvailabilityCache caches availability in Redis with a short TTL. The
// TTL is a safety net; correctness comes from explicit invalidation.
type RedisAvailabilityCache struct {
	client *platformredis.Client
	ttl    time.Duration
}

func NewRedisAvailabilityCache(client *platformredis.Client, ttl time.Duration) *RedisAvailabilityCache {
	return &RedisAvailabilityCache{client: client, ttl: ttl}
}

func availabilityKey(centerID id.CenterID, date time.Time) string {
	return fmt.Sprintf("civid:avail:%s:%s", centerID, date.Format("2006-01-02"))
}

func (c *RedisAvailabilityCache) Get(ctx context.Context, centerID id.CenterID, date time.Time) (Availability, bool) {
	val, err := c.client.Get(ctx, availabilityKey(centerID, date)).Result()
	if errors.Is(err, goredis.Nil) {
		return Availability{}, false
	}
	if err != nil {
		// Redis unavailable; the store answers.
		return Availability{}, false
	}
	if val == "closed" {
		return ClosedDay(), true
	}
	var n int
	if _, err := fmt.Sscanf(val, "%d", &n); err != nil {
		return Availability{}, false
	}
	return Open(n), true
}

func (c *RedisAvailabilityCache) Set(ctx context.Context, centerID id.CenterID, date time.Time, avail Availability) {
	_ = c.client.Set(ctx, availabilityKey(centerID, date), avail.String(), c.ttl).Err()
}

func (c *RedisAvailabilityCache) Invalidate(ctx context.Context, centerID id.CenterID, date time.Time) {
	_ = c.client.Del(ctx, availabilityKey(centerID, date)).Err()
}

// NoopCache disables caching; every availability read hits the store.
type NoopCache struct{}

func (NoopCache) Get(context.Context, id.CenterID, time.Time) (Availability, bool) {
	return Availability{}, false
}
func (NoopCache) Set(context.Context, id.CenterID, time.Time, Availability) {}
func (NoopCache) Invalidate(context.Context, id.CenterID, time.Time)        {}
