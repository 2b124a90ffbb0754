package kv

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Redis реализация Store поверх go-redis
type Redis struct {
	client *redis.Client
}

// NewRedis подключается по URL вида redis://host:port и проверяет соединение
func NewRedis(ctx context.Context, redisURL string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Redis{client: client}, nil
}

var _ Store = (*Redis)(nil)

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, key, value, 0).Err()
}

// Close закрывает соединение с Redis
func (r *Redis) Close() error { return r.client.Close() }
