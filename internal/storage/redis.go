// Package storage holds the adapters for the external stores used around the pipeline:
// the extracted-text cache, the document archive and the message broker.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/config"
)

// TextKeyPrefix namespaces cached texts in Redis
const TextKeyPrefix = "cvranker:text:"

// Redis caches extracted CV text keyed by document hash
type Redis struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedis connects to Redis and checks the connection
func NewRedis(ctx context.Context, cfg config.RedisConfig, password string) (*Redis, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Address, err)
	}

	return &Redis{client: client, ttl: cfg.TTL}, nil
}

// NewRedisWithClient wraps an existing client
func NewRedisWithClient(client redis.Cmdable, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// TextKey returns the Redis key for a document hash
func TextKey(hash string) string {
	return TextKeyPrefix + hash
}

// Get returns the cached text; ok is false on a cache miss
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	text, err := r.client.Get(ctx, TextKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return text, true, nil
}

// Set stores the text with the configured expiration (0 keeps it forever)
func (r *Redis) Set(ctx context.Context, key, text string) error {
	if err := r.client.Set(ctx, TextKey(key), text, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the connection pool when the client owns one
func (r *Redis) Close() error {
	if c, ok := r.client.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
