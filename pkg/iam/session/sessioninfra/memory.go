package sessioninfra

import (
	"context"
	"sync"

	"github.com/Abraxas-365/tenantry/pkg/iam/session"
	"github.com/Abraxas-365/tenantry/pkg/kernel"
)

// MemoryStore implements session.Store in process memory. Used by tests and
// single-node development; production uses RedisStore.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]map[string]string
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]map[string]string),
	}
}

func (s *MemoryStore) key(scope session.Scope, id kernel.SessionID) string {
	return scope.String() + "|" + id.String()
}

// Get returns every key/value in the session.
func (s *MemoryStore) Get(_ context.Context, scope session.Scope, id kernel.SessionID) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values := make(map[string]string, len(s.sessions[s.key(scope, id)]))
	for k, v := range s.sessions[s.key(scope, id)] {
		values[k] = v
	}
	return values, nil
}

// GetKey returns one value and whether it was present.
func (s *MemoryStore) GetKey(_ context.Context, scope session.Scope, id kernel.SessionID, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.sessions[s.key(scope, id)][key]
	return value, ok, nil
}

// SetKeys writes keys into the session.
func (s *MemoryStore) SetKeys(_ context.Context, scope session.Scope, id kernel.SessionID, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := s.key(scope, id)
	if s.sessions[k] == nil {
		s.sessions[k] = make(map[string]string, len(values))
	}
	for key, value := range values {
		s.sessions[k][key] = value
	}
	return nil
}

// DeleteKeys removes the given keys.
func (s *MemoryStore) DeleteKeys(_ context.Context, scope session.Scope, id kernel.SessionID, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.sessions[s.key(scope, id)], key)
	}
	return nil
}

// Destroy removes the whole session.
func (s *MemoryStore) Destroy(_ context.Context, scope session.Scope, id kernel.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, s.key(scope, id))
	return nil
}
