package storage

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var _ Storage = (*RedisStorage)(nil)

// RedisStorage stores each key as a plain Redis string under a namespace prefix.
// Keys carry no TTL; the credential store has no expiry of its own.
type RedisStorage struct {
	client *redis.Client
	prefix string
}

// NewRedisStorage connects using a redis:// or rediss:// URL.
func NewRedisStorage(redisURL, prefix string) (*RedisStorage, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "[NewRedisStorage] parse redis url")
	}
	return NewRedisStorageWithClient(redis.NewClient(opt), prefix), nil
}

func NewRedisStorageWithClient(client *redis.Client, prefix string) *RedisStorage {
	return &RedisStorage{client: client, prefix: prefix}
}

func (s *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "[RedisStorage.Get]")
	}
	return v, true, nil
}

func (s *RedisStorage) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return errors.Wrap(err, "[RedisStorage.Set]")
	}
	return nil
}

func (s *RedisStorage) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return errors.Wrap(err, "[RedisStorage.Clear]")
	}
	return nil
}

// Ping checks the connection.
func (s *RedisStorage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStorage) Close() error {
	return s.client.Close()
}
