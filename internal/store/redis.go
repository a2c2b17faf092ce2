package store

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisMarkerStore keeps idempotency markers as plain Redis keys with no
// expiry. Exists and Put are deliberately two separate operations: the
// engine's guard contract is check-then-mark, not an atomic conditional
// write (a SETNX upgrade would change the documented semantics).
type RedisMarkerStore struct {
	client *redis.Client
}

func NewRedisMarkerStore(client *redis.Client) *RedisMarkerStore {
	return &RedisMarkerStore{client: client}
}

func markerKey(pk, sk string) string { return fmt.Sprintf("idem:%s:%s", pk, sk) }

func (s *RedisMarkerStore) Exists(ctx context.Context, pk, sk string) (bool, error) {
	n, err := s.client.Exists(ctx, markerKey(pk, sk)).Result()
	if err != nil {
		return false, Transient("redis exists", err)
	}
	return n > 0, nil
}

func (s *RedisMarkerStore) Put(ctx context.Context, pk, sk string) error {
	if err := s.client.Set(ctx, markerKey(pk, sk), "1", 0).Err(); err != nil {
		return Transient("redis put", err)
	}
	return nil
}
