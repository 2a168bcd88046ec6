package redis

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// SnapshotCache stores JSON-encoded query results under TTL'd keys. It is
// best-effort: every method tolerates a nil client and a broken connection,
// so callers can treat the cache as optional infrastructure.
type SnapshotCache struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

// NewSnapshotCache creates a snapshot cache. A nil client yields a cache
// whose Get always misses and whose Set is a no-op.
func NewSnapshotCache(client goredis.UniversalClient, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{client: client, ttl: ttl}
}

// Client exposes the underlying connection for health checks.
func (s *SnapshotCache) Client() goredis.UniversalClient {
	if s == nil {
		return nil
	}
	return s.client
}

// Get unmarshals the cached value for key into dest. The bool reports
// whether a usable entry was found; errors are swallowed into a miss.
func (s *SnapshotCache) Get(ctx context.Context, key string, dest interface{}) bool {
	if s == nil || s.client == nil {
		return false
	}
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false
	}
	return true
}

// Set stores value as JSON under key with the cache TTL.
func (s *SnapshotCache) Set(ctx context.Context, key string, value interface{}) {
	if s == nil || s.client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.client.Set(ctx, key, raw, s.ttl).Err()
}
