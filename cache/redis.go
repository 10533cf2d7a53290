package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is the production Store backed by a Redis instance. TTL expiry is
// native, so Prune only sweeps defensively for keys that somehow lost
// their TTL (a Set interrupted between write and expire).
type Redis struct {
	client *redis.Client
	log    *slog.Logger
}

// NewRedis connects using a redis:// URL.
func NewRedis(url string, log *slog.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis ping failed, cache will run degraded", "error", err)
	}

	return &Redis{client: client, log: log}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	payload, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn("cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	return payload, true
}

func (r *Redis) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) {
	if tooLarge(payload) {
		return
	}
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		r.log.Warn("cache set failed", "key", key, "error", err)
	}
}

func (r *Redis) Delete(ctx context.Context, key string) {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.log.Warn("cache delete failed", "key", key, "error", err)
	}
}

func (r *Redis) Prune(ctx context.Context, limit int) int {
	deleted := 0
	iter := r.client.Scan(ctx, 0, "an:*", int64(limit)).Iterator()
	for iter.Next(ctx) {
		if deleted >= limit {
			break
		}
		key := iter.Val()
		ttl, err := r.client.TTL(ctx, key).Result()
		if err != nil {
			continue
		}
		// -1 means no TTL attached; such keys would otherwise live forever.
		if ttl == -1 {
			if r.client.Del(ctx, key).Err() == nil {
				deleted++
			}
		}
	}
	if err := iter.Err(); err != nil {
		r.log.Warn("cache prune scan failed", "error", err)
	}
	return deleted
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
