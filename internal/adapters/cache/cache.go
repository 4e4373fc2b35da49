// Package cache decorates the identity and category resolvers with a
// short-TTL cache. Caching is an optimization only: every miss and every
// cache failure falls through to the underlying client.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the minimal byte-value cache the decorators need. The redis
// implementation is used in production; tests use an in-memory one.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type redisStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStore connects to redis at addr and verifies the connection.
func NewRedisStore(addr, keyPrefix string, dialTimeout time.Duration) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: dialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &redisStore{client: client, keyPrefix: keyPrefix}, nil
}

func (s *redisStore) key(k string) string {
	return s.keyPrefix + ":cache:" + k
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

func (s *redisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(key), value, ttl).Err()
}
