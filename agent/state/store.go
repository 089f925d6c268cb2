package state

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Store is the persistence contract used by the agent capability.
type Store interface {
	Load(ctx context.Context, sessionID string) (*SessionState, error)
	Save(ctx context.Context, st *SessionState) error
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore keeps session states for the process lifetime only. The mutex
// guards the map; individual sessions are accessed sequentially by design.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]*SessionState
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[string]*SessionState),
	}
}

func (s *MemoryStore) Load(ctx context.Context, sessionID string) (*SessionState, error) {
	key := strings.TrimSpace(sessionID)
	if key == "" {
		return nil, ErrInvalidSession
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.states[key]
	if !ok {
		return nil, ErrStateNotFound
	}
	return st.Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, st *SessionState) error {
	if err := st.Validate(); err != nil {
		return err
	}

	clone := st.Clone()
	if clone.UpdatedAt.IsZero() {
		clone.UpdatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[strings.TrimSpace(clone.SessionID)] = clone
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	key := strings.TrimSpace(sessionID)
	if key == "" {
		return ErrInvalidSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, key)
	return nil
}
