package sessioninfra

import (
	"context"
	"fmt"
	"time"

	"github.com/Abraxas-365/tenantry/pkg/iam/session"
	"github.com/Abraxas-365/tenantry/pkg/kernel"
	"github.com/redis/go-redis/v9"
)

// RedisStore implements session.Store backed by Redis, one hash per
// (scope, session). The scope is baked into the key, so isolation between
// domain scopes holds at the storage layer, not by caller discipline.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func sessionKey(scope session.Scope, id kernel.SessionID) string {
	return fmt.Sprintf("session:%s:%s", scope.String(), id.String())
}

// Get returns every key/value in the session.
func (s *RedisStore) Get(ctx context.Context, scope session.Scope, id kernel.SessionID) (map[string]string, error) {
	values, err := s.rdb.HGetAll(ctx, sessionKey(scope, id)).Result()
	if err != nil {
		return nil, session.ErrStoreFailure().WithDetail("op", "get")
	}
	return values, nil
}

// GetKey returns one value and whether it was present.
func (s *RedisStore) GetKey(ctx context.Context, scope session.Scope, id kernel.SessionID, key string) (string, bool, error) {
	value, err := s.rdb.HGet(ctx, sessionKey(scope, id), key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, session.ErrStoreFailure().WithDetail("op", "get_key")
	}
	return value, true, nil
}

// SetKeys writes keys into the session and refreshes its TTL.
func (s *RedisStore) SetKeys(ctx context.Context, scope session.Scope, id kernel.SessionID, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	key := sessionKey(scope, id)
	flat := make([]interface{}, 0, len(values)*2)
	for k, v := range values {
		flat = append(flat, k, v)
	}

	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, key, flat...)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return session.ErrStoreFailure().WithDetail("op", "set_keys")
	}

	return nil
}

// DeleteKeys removes the given keys.
func (s *RedisStore) DeleteKeys(ctx context.Context, scope session.Scope, id kernel.SessionID, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if err := s.rdb.HDel(ctx, sessionKey(scope, id), keys...).Err(); err != nil {
		return session.ErrStoreFailure().WithDetail("op", "delete_keys")
	}
	return nil
}

// Destroy removes the whole session.
func (s *RedisStore) Destroy(ctx context.Context, scope session.Scope, id kernel.SessionID) error {
	if err := s.rdb.Del(ctx, sessionKey(scope, id)).Err(); err != nil {
		return session.ErrStoreFailure().WithDetail("op", "destroy")
	}
	return nil
}
