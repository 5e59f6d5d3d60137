package session

import (
	"context"
	"sync"

	"parley/errors"
)

// MemoryStore keeps session state in process memory. The map mutex covers
// only lookup and insert; each session carries its own lock so unrelated
// sessions never serialize against each other.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memorySession
}

type memorySession struct {
	mu    sync.Mutex
	state State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*memorySession),
	}
}

func (s *MemoryStore) GetOrCreate(_ context.Context, sessionID string) (State, error) {
	if sessionID == "" {
		return Unidentified(), nil
	}
	entry := s.entry(sessionID)

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.state, nil
}

func (s *MemoryStore) MarkIdentified(_ context.Context, sessionID, accountUUID string) error {
	if sessionID == "" {
		return errors.ErrAnonymousSession
	}
	if accountUUID == "" {
		return errors.ErrEmptyAccountUUID
	}
	entry := s.entry(sessionID)

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.state.Identified() {
		// Identity is fixed for the life of the session; first writer wins.
		return nil
	}
	entry.state = IdentifiedAs(accountUUID)
	return nil
}

// entry returns the single stored session for an id, creating it on first use.
func (s *MemoryStore) entry(sessionID string) *memorySession {
	s.mu.RLock()
	entry, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		return entry
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.sessions[sessionID]; ok {
		return entry
	}
	entry = &memorySession{state: Unidentified()}
	s.sessions[sessionID] = entry
	return entry
}
