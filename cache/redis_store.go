package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client *redis.Client
}

// NewRedisStore connects to the redis instance described by redisURL
// (redis://[user:password@]host:port/db)
func NewRedisStore(redisURL string) (Store, error) {
	opts, err := redis.ParseURL(redisURL)

	if err != nil {
		return nil, err
	}

	return &redisStore{
		client: redis.NewClient(opts),
	}, nil
}

func (s *redisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key).Result()

	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}

	if err != nil {
		return "", false, err
	}

	return value, true, nil
}

func (s *redisStore) SetEx(ctx context.Context, key string, ttl time.Duration, value string) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}
