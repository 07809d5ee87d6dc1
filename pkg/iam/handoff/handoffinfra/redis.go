package handoffinfra

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Abraxas-365/tenantry/pkg/errx"
	"github.com/Abraxas-365/tenantry/pkg/iam/handoff"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps pending handoff tokens in Redis. Take maps to GETDEL, so
// single-use semantics hold across every node of the deployment without
// application-level locking; expiry rides on the key TTL.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a Redis-backed handoff token store.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func tokenKey(value string) string {
	return fmt.Sprintf("handoff:token:%s", value)
}

// Put stores a token under its value with the given TTL.
func (s *RedisStore) Put(ctx context.Context, token handoff.Token, ttl time.Duration) error {
	payload, err := json.Marshal(token)
	if err != nil {
		return errx.Wrap(err, "failed to encode handoff token", errx.TypeInternal)
	}
	if err := s.rdb.Set(ctx, tokenKey(token.Value), payload, ttl).Err(); err != nil {
		return errx.Wrap(err, "failed to store handoff token", errx.TypeInternal)
	}
	return nil
}

// Take atomically reads and removes a token.
func (s *RedisStore) Take(ctx context.Context, value string) (*handoff.Token, error) {
	payload, err := s.rdb.GetDel(ctx, tokenKey(value)).Result()
	if err == redis.Nil {
		return nil, handoff.ErrTokenNotFound()
	}
	if err != nil {
		return nil, errx.Wrap(err, "failed to take handoff token", errx.TypeInternal)
	}

	var token handoff.Token
	if err := json.Unmarshal([]byte(payload), &token); err != nil {
		return nil, errx.Wrap(err, "failed to decode handoff token", errx.TypeInternal)
	}
	return &token, nil
}

// Delete removes a token if it is still pending.
func (s *RedisStore) Delete(ctx context.Context, value string) error {
	if err := s.rdb.Del(ctx, tokenKey(value)).Err(); err != nil {
		return errx.Wrap(err, "failed to delete handoff token", errx.TypeInternal)
	}
	return nil
}
