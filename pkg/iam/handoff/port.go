package handoff

import (
	"context"
	"time"
)

// Store holds pending handoff tokens.
type Store interface {
	// Put stores a token under its value with the given TTL.
	Put(ctx context.Context, token Token, ttl time.Duration) error

	// Take atomically reads and removes a token. At most one caller ever
	// receives a given token; every other caller, concurrent or later,
	// gets ErrTokenNotFound. Expired tokens are indistinguishable from
	// absent ones.
	Take(ctx context.Context, value string) (*Token, error)

	// Delete removes a token if it is still pending. Used to compensate
	// when the work the token was issued for fails to commit.
	Delete(ctx context.Context, value string) error
}
