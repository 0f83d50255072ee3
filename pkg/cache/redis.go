package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisTTL = 24 * time.Hour

// Redis caches meshes in a shared Redis instance so multiple server
// replicas can reuse each other's renders.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOption customizes a Redis cache.
type RedisOption func(*Redis)

// WithTTL overrides how long cached meshes live. Defaults to 24 hours.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithKeyPrefix overrides the key namespace. Defaults to "mesh".
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

// NewRedis connects to the Redis instance at redisURL and verifies the
// connection with a ping.
func NewRedis(redisURL string, opts ...RedisOption) (*Redis, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("cache: invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("cache: failed to connect to redis: %w", err)
	}

	cache := &Redis{client: client, prefix: "mesh", ttl: defaultRedisTTL}
	for _, apply := range opts {
		apply(cache)
	}
	return cache, nil
}

// Get fetches the mesh cached under key. A miss is not an error.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	mesh, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get %s: %w", key, err)
	}
	return mesh, true, nil
}

// Set stores mesh under key with the configured TTL.
func (r *Redis) Set(ctx context.Context, key string, mesh []byte) error {
	if err := r.client.Set(ctx, r.key(key), mesh, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache: set %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) key(digest string) string {
	return fmt.Sprintf("%s:%s", r.prefix, digest)
}
