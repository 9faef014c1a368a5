// Package cache keeps the latest stream snapshot in Redis and fans it
// out on a pub/sub channel for external consumers.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bankpulse/bankpulse/internal/stream"
)

const (
	snapshotKey     = "bankpulse:stream:snapshot"
	snapshotChannel = "bankpulse:stream:updates"
	snapshotTTL     = 5 * time.Minute
)

// SnapshotCache mirrors the live feed into Redis. A disabled cache is
// a no-op so callers never need to branch.
type SnapshotCache struct {
	client  *redis.Client
	enabled bool
}

// New creates a snapshot cache from a Redis URL
func New(url string, enabled bool) (*SnapshotCache, error) {
	if !enabled {
		return &SnapshotCache{enabled: false}, nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &SnapshotCache{client: client, enabled: true}, nil
}

// Close closes the Redis connection
func (c *SnapshotCache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// IsEnabled returns whether the cache is active
func (c *SnapshotCache) IsEnabled() bool {
	return c.enabled
}

// Publish stores the snapshot and notifies subscribers. Implements
// stream.Sink.
func (c *SnapshotCache) Publish(ctx context.Context, snap stream.Snapshot) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := c.client.Set(ctx, snapshotKey, data, snapshotTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache snapshot: %w", err)
	}
	return c.client.Publish(ctx, snapshotChannel, data).Err()
}

// Latest returns the most recently cached snapshot, or redis.Nil when
// none exists
func (c *SnapshotCache) Latest(ctx context.Context) (stream.Snapshot, error) {
	var snap stream.Snapshot
	if !c.enabled {
		return snap, redis.Nil
	}

	data, err := c.client.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		return snap, err
	}
	return snap, json.Unmarshal(data, &snap)
}
