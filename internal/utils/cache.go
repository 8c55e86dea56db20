package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"errors"        // Error inspection
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// Cache key prefixes shared by readers and invalidators
const (
	CacheItemsPrefix     = "items:"           // Item listings, featured items and item detail
	CacheStatsKey        = "admin:stats"      // Admin counters
	CacheDashboardPrefix = "dashboard:user:"  // Per-user dashboard
	CacheGenerationKey   = "cache:generation" // Bumped by every invalidation
)

const scanBatch = 100 // Keys per SCAN page and per DEL

// GetCache retrieves a value from Redis and unmarshals it into dest
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	val, err := rdb.Get(ctx, key).Result() // Get value from Redis
	if errors.Is(err, redis.Nil) {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal([]byte(val), dest) // Unmarshal JSON into dest
}

// CacheGeneration returns the invalidation counter; readers take it before querying the database
func CacheGeneration(ctx context.Context, rdb *redis.Client) (int64, error) {
	gen, err := rdb.Get(ctx, CacheGenerationKey).Int64() // Current counter
	if errors.Is(err, redis.Nil) {
		return 0, nil // Never bumped
	}
	return gen, err
}

// BumpCacheGeneration invalidates every value read under an earlier generation
func BumpCacheGeneration(ctx context.Context, rdb *redis.Client) error {
	return rdb.Incr(ctx, CacheGenerationKey).Err()
}

// SetCacheIfGeneration stores value only while the counter still equals gen, so a read that
// raced an invalidation is dropped instead of cached for the full TTL. It reports whether the
// value was stored.
func SetCacheIfGeneration(ctx context.Context, rdb *redis.Client, gen int64, key string, value any, ttl time.Duration) (bool, error) {
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return false, err
	}
	stored := false
	err = rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, CacheGenerationKey).Int64()
		if errors.Is(err, redis.Nil) {
			current, err = 0, nil
		}
		if err != nil {
			return err
		}
		if current != gen {
			return nil // Invalidated since the read began
		}
		// EXEC fails if the counter moves after WATCH
		if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return pipe.Set(ctx, key, b, ttl).Err()
		}); err != nil {
			return err
		}
		stored = true
		return nil
	}, CacheGenerationKey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return stored, err
}

// DeleteCache deletes keys from Redis
func DeleteCache(ctx context.Context, rdb *redis.Client, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return rdb.Del(ctx, keys...).Err() // Delete keys from Redis
}

// DeleteCachePrefix deletes every key starting with prefix. The SCAN completes before the first
// DEL; deleting mid-scan can move unvisited keys behind the cursor.
func DeleteCachePrefix(ctx context.Context, rdb *redis.Client, prefix string) error {
	var keys []string                                          // Every matching key
	iter := rdb.Scan(ctx, 0, prefix+"*", scanBatch).Iterator() // Cursor over matching keys
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	// Delete in batches to keep each DEL bounded
	for start := 0; start < len(keys); start += scanBatch {
		end := min(start+scanBatch, len(keys))
		if err := DeleteCache(ctx, rdb, keys[start:end]...); err != nil {
			return err
		}
	}
	return nil
}
