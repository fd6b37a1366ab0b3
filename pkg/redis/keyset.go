package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeySet records opaque keys with a TTL. It backs fast "have we seen this"
// checks in front of a durable store.
type KeySet struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewKeySet namespaces keys under prefix. A zero ttl keeps keys forever.
func NewKeySet(client redis.UniversalClient, prefix string, ttl time.Duration) *KeySet {
	return &KeySet{client: client, prefix: prefix, ttl: ttl}
}

// Add stores key and reports whether it was absent before.
func (s *KeySet) Add(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	return s.client.SetNX(ctx, s.prefix+key, 1, s.ttl).Result()
}

// Has reports whether key is stored.
func (s *KeySet) Has(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	err := s.client.Get(ctx, s.prefix+key).Err()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}
