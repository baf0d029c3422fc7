package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"oeecore/pkg/oee"

	"github.com/go-redis/redis/v8"
)

// ResultCache caches calculation results keyed by
// (equipmentId, windowStart, windowEnd, shiftInstanceId). Query-triggered
// recomputation falls back to the cached value, marked stale, when it
// exceeds its budget.
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResultCache creates a result cache with the given TTL.
func NewResultCache(client *redis.Client, ttl time.Duration) *ResultCache {
	return &ResultCache{client: client, ttl: ttl}
}

func cacheKey(equipmentID string, window oee.Window, shiftInstanceID string) string {
	return fmt.Sprintf("oee:result:%s:%d:%d:%s",
		equipmentID, window.Start.Unix(), window.End.Unix(), shiftInstanceID)
}

// Get retrieves a cached result, or nil on miss. A cache error is reported as
// a miss: the caller recomputes, it never fails a query.
func (c *ResultCache) Get(ctx context.Context, equipmentID string, window oee.Window, shiftInstanceID string) (*oee.Result, error) {
	if c.client == nil {
		return nil, nil
	}
	data, err := c.client.Get(ctx, cacheKey(equipmentID, window, shiftInstanceID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read result cache: %w", err)
	}

	var res oee.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("failed to decode cached result: %w", err)
	}
	return &res, nil
}

// Set stores a result under its window key.
func (c *ResultCache) Set(ctx context.Context, res *oee.Result) error {
	if c.client == nil {
		return nil
	}
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	key := cacheKey(res.EquipmentID, res.Window, res.ShiftInstanceID)
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write result cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached result for one window key. Called when new raw
// events land inside the window.
func (c *ResultCache) Invalidate(ctx context.Context, equipmentID string, window oee.Window, shiftInstanceID string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, cacheKey(equipmentID, window, shiftInstanceID)).Err()
}
