package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/clinicdesk/clinic-api/internal/schedule"
	"github.com/clinicdesk/clinic-api/pkg/logging"
)

// Store is what the service reads and writes schedules through; the cache and
// the repository both satisfy it.
type Store interface {
	Get(ctx context.Context, practitionerID uuid.UUID) (schedule.WeekWindows, error)
	Set(ctx context.Context, practitionerID uuid.UUID, week schedule.WeekWindows) error
}

// Cache is a redis read-through layer over a Store. Cache faults fall through
// to the backing store; only the store's errors are surfaced.
type Cache struct {
	store  Store
	rdb    *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCache wraps a store with a redis read-through cache.
func NewCache(store Store, rdb *redis.Client, ttl time.Duration, logger *logging.Logger) *Cache {
	if store == nil {
		panic("availability: store required")
	}
	if rdb == nil {
		panic("availability: redis client required")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Cache{store: store, rdb: rdb, ttl: ttl, logger: logger}
}

func cacheKey(practitionerID uuid.UUID) string {
	return fmt.Sprintf("availability:%s", practitionerID)
}

// Get serves from redis when possible and repopulates on miss.
func (c *Cache) Get(ctx context.Context, practitionerID uuid.UUID) (schedule.WeekWindows, error) {
	key := cacheKey(practitionerID)
	payload, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var week schedule.WeekWindows
		if jsonErr := json.Unmarshal(payload, &week); jsonErr == nil {
			return week, nil
		}
		// Corrupt entry; drop it and fall through.
		_ = c.rdb.Del(ctx, key).Err()
	} else if err != redis.Nil {
		c.logger.Warn("availability cache read failed", "practitioner_id", practitionerID, "error", err)
	}

	week, err := c.store.Get(ctx, practitionerID)
	if err != nil {
		return nil, err
	}

	if payload, jsonErr := json.Marshal(week); jsonErr == nil {
		if setErr := c.rdb.Set(ctx, key, payload, c.ttl).Err(); setErr != nil {
			c.logger.Warn("availability cache write failed", "practitioner_id", practitionerID, "error", setErr)
		}
	}
	return week, nil
}

// Set writes through to the store and invalidates the cached entry.
func (c *Cache) Set(ctx context.Context, practitionerID uuid.UUID, week schedule.WeekWindows) error {
	if err := c.store.Set(ctx, practitionerID, week); err != nil {
		return err
	}
	if err := c.rdb.Del(ctx, cacheKey(practitionerID)).Err(); err != nil {
		c.logger.Warn("availability cache invalidation failed", "practitioner_id", practitionerID, "error", err)
	}
	return nil
}
