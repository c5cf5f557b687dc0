package repository

import (
	"context"
	"errors"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/snelcrm/internal/snapshot/domain"
)

type redisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) (domain.Store, error) {
	if client == nil {
		return nil, errors.New("redis client not configured")
	}
	return &redisStore{client: client, prefix: prefix}, nil
}

func (s *redisStore) Name() string { return "redis" }

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, domain.ErrInvalidKey
	}
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	return data, err
}

func (s *redisStore) Put(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return domain.ErrInvalidKey
	}
	return s.client.Set(ctx, s.prefix+key, data, 0).Err()
}
