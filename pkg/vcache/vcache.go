// Package vcache is the gateway's optional verdict cache. Assessments are
// keyed by a SHA-256 of the URL so the raw URL never reaches the cache
// backend, and entries expire after a configurable TTL. The scoring engine
// itself never touches this package.
package vcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/linkshield/linkshield/pkg/risk"
)

const keyPrefix = "linkshield:verdict:"

// Cache wraps a Redis client with assessment serialization.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to the Redis instance at addr. The connection is lazy; use
// Ping to verify reachability at startup.
func New(addr string, ttl time.Duration) *Cache {
	return &Cache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

// Ping verifies the backend is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Get returns the cached assessment for url, or ok=false on a miss. Backend
// errors are reported as misses with the error attached so the caller can
// log and continue.
func (c *Cache) Get(ctx context.Context, url string) (risk.RiskAssessment, bool, error) {
	data, err := c.client.Get(ctx, cacheKey(url)).Bytes()
	if errors.Is(err, redis.Nil) {
		return risk.RiskAssessment{}, false, nil
	}
	if err != nil {
		return risk.RiskAssessment{}, false, fmt.Errorf("cache get: %w", err)
	}
	var a risk.RiskAssessment
	if err := json.Unmarshal(data, &a); err != nil {
		return risk.RiskAssessment{}, false, fmt.Errorf("cache decode: %w", err)
	}
	return a, true, nil
}

// Set stores the assessment for url under the configured TTL.
func (c *Cache) Set(ctx context.Context, url string, a risk.RiskAssessment) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(url), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// cacheKey hashes the URL so raw URLs never appear in the backend.
func cacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return keyPrefix + hex.EncodeToString(sum[:])
}
