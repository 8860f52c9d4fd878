package securestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sealed values in Redis under a key prefix, for shared
// counter terminals where the session should survive a device swap.
type RedisStore struct {
	client *redis.Client
	prefix string
	sealer *Sealer
}

func NewRedisStore(client *redis.Client, prefix string, sealer *Sealer) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, sealer: sealer}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	sealed, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("securestore: redis get %s: %w", key, err)
	}
	return s.sealer.Open(key, sealed)
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	sealed, err := s.sealer.Seal(key, value)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.prefix+key, sealed, 0).Err(); err != nil {
		return fmt.Errorf("securestore: redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("securestore: redis del %s: %w", key, err)
	}
	return nil
}

// Ping reports whether Redis is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool
func (s *RedisStore) Close() error {
	return s.client.Close()
}
