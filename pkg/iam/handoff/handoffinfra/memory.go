package handoffinfra

import (
	"context"
	"sync"
	"time"

	"github.com/Abraxas-365/tenantry/pkg/iam/handoff"
)

type memoryEntry struct {
	token    handoff.Token
	deadline time.Time
}

// MemoryStore implements handoff.Store in process memory. The mutex around
// Take gives the same single-winner guarantee Redis GETDEL gives in
// production.
type MemoryStore struct {
	mu     sync.Mutex
	tokens map[string]memoryEntry
}

// NewMemoryStore creates an in-memory handoff token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]memoryEntry)}
}

// Put stores a token under its value with the given TTL.
func (s *MemoryStore) Put(_ context.Context, token handoff.Token, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[token.Value] = memoryEntry{
		token:    token,
		deadline: time.Now().Add(ttl),
	}
	return nil
}

// Take atomically reads and removes a token.
func (s *MemoryStore) Take(_ context.Context, value string) (*handoff.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.tokens[value]
	if !ok {
		return nil, handoff.ErrTokenNotFound()
	}
	delete(s.tokens, value)

	if time.Now().After(entry.deadline) {
		return nil, handoff.ErrTokenNotFound()
	}

	token := entry.token
	return &token, nil
}

// Delete removes a token if it is still pending.
func (s *MemoryStore) Delete(_ context.Context, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tokens, value)
	return nil
}
