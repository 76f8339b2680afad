// Package redis caches the most recent persisted snapshot per device, so the
// latest-reading endpoint can answer without touching the history table.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	telemetry "genset-cloud/internal/telemetry/domain"
)

const defaultTTL = 24 * time.Hour

// LatestCache stores one JSON document per device under engine:latest:<id>.
type LatestCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Option configures the cache.
type Option func(*LatestCache)

// WithTTL overrides the record expiry.
func WithTTL(ttl time.Duration) Option {
	return func(c *LatestCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// NewLatestCache constructs a cache around an existing client.
func NewLatestCache(client *redis.Client, opts ...Option) (*LatestCache, error) {
	if client == nil {
		return nil, errors.New("redis cache: nil client")
	}
	c := &LatestCache{client: client, ttl: defaultTTL}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func key(deviceID string) string { return "engine:latest:" + deviceID }

// Set overwrites the cached record for the snapshot's device.
func (c *LatestCache) Set(ctx context.Context, record telemetry.Snapshot) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(record.DeviceID), raw, c.ttl).Err()
}

// Get returns the cached record, or nil on a miss.
func (c *LatestCache) Get(ctx context.Context, deviceID string) (*telemetry.Snapshot, error) {
	raw, err := c.client.Get(ctx, key(deviceID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var snap telemetry.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
