package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/simplepos/simplepos/internal/shared"
)

// Redis keeps each collection in a Redis hash. Intended for development
// and tests; the Postgres driver is the durable default.
type Redis struct {
	client *redis.Client
}

// NewRedis constructs the Redis-backed store.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (s *Redis) Get(ctx context.Context, collection, key string) ([]byte, error) {
	data, err := s.client.HGet(ctx, hashKey(collection), key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("store: get %s/%s: %w", collection, key, err)
	}
	return data, nil
}

func (s *Redis) GetAll(ctx context.Context, collection string) (map[string][]byte, error) {
	raw, err := s.client.HGetAll(ctx, hashKey(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("store: get all %s: %w", collection, err)
	}
	records := make(map[string][]byte, len(raw))
	for key, value := range raw {
		records[key] = []byte(value)
	}
	return records, nil
}

func (s *Redis) Put(ctx context.Context, collection, key string, data []byte) error {
	if err := s.client.HSet(ctx, hashKey(collection), key, data).Err(); err != nil {
		return fmt.Errorf("store: put %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *Redis) Delete(ctx context.Context, collection, key string) error {
	if err := s.client.HDel(ctx, hashKey(collection), key).Err(); err != nil {
		return fmt.Errorf("store: delete %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *Redis) Clear(ctx context.Context, collection string) error {
	if err := s.client.Del(ctx, hashKey(collection)).Err(); err != nil {
		return fmt.Errorf("store: clear %s: %w", collection, err)
	}
	return nil
}

func hashKey(collection string) string {
	return "simplepos:records:" + collection
}
