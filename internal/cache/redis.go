// internal/cache/redis.go
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKV stores mapping profiles and other string values in Redis.
// Entries never expire.
type RedisKV struct {
	client *redis.Client
}

// NewRedisKV connects to redisURL and verifies the connection. A non-empty
// password overrides the one in the URL.
func NewRedisKV(redisURL, password string) (*RedisKV, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if password != "" {
		opt.Password = password
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisKV{client: client}, nil
}

// NewRedisKVFromClient wraps an existing client.
func NewRedisKVFromClient(client *redis.Client) *RedisKV {
	return &RedisKV{client: client}
}

// Close closes the Redis connection
func (r *RedisKV) Close() error {
	return r.client.Close()
}

// HealthCheck pings Redis to verify connection
func (r *RedisKV) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, key, value, 0).Err()
}

func (r *RedisKV) SetIfAbsent(ctx context.Context, key, value string) (bool, error) {
	return r.client.SetNX(ctx, key, value, 0).Result()
}
