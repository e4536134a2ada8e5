package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis wraps the redis client used for the roster cache and health checks.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

// GetCached returns the cached payload for key, or "" when absent or redis
// is unavailable. Cache misses and cache errors are indistinguishable on
// purpose; callers fall through to the origin either way.
func (r *Redis) GetCached(ctx context.Context, key string) string {
	if r == nil || r.Client == nil {
		return ""
	}
	val, err := r.Client.Get(ctx, key).Result()
	if err != nil {
		return ""
	}
	return val
}

// SetCached stores payload under key with a TTL, best effort.
func (r *Redis) SetCached(ctx context.Context, key, payload string, ttl time.Duration) {
	if r == nil || r.Client == nil || ttl <= 0 {
		return
	}
	_ = r.Client.Set(ctx, key, payload, ttl).Err()
}
