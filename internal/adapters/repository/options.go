package repository

import (
	"github.com/redis/go-redis/v9"
)

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithSeed fixes the treap priority sequence.
func WithSeed(seed uint64) Option {
	return func(s *TreapStore) {
		s.seed = seed
	}
}

// RedisOption applies a configuration option to the RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix namespaces every key the store writes.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithRedisClient uses an existing client instead of dialing a URL.
func WithRedisClient(c *redis.Client) RedisOption {
	return func(s *RedisStore) {
		if c != nil {
			s.client = c
		}
	}
}
