package cache

import (
	"context"
	"sync"
	"time"

	"github.com/expense-ledger/backend/internal/application/adapter"
	domainerror "github.com/expense-ledger/backend/internal/domain/error"
	"github.com/expense-ledger/backend/internal/domain/valueobject"
)

type memorySession struct {
	state     valueobject.PagerState
	expiresAt time.Time
}

// memorySessionStore keeps pagination sessions in process memory. It is used
// when Redis is not reachable; sessions then do not survive a restart.
type memorySessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]memorySession
	now      func() time.Time
}

// NewMemorySessionStore creates an in-process pagination session store.
func NewMemorySessionStore(ttl time.Duration) adapter.PagerSessionStore {
	return &memorySessionStore{
		ttl:      ttl,
		sessions: make(map[string]memorySession),
		now:      time.Now,
	}
}

func (s *memorySessionStore) Load(_ context.Context, sessionID string) (*valueobject.PagerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok || (s.ttl > 0 && s.now().After(session.expiresAt)) {
		delete(s.sessions, sessionID)
		return nil, domainerror.ErrSessionNotFound
	}
	state := session.state
	return &state, nil
}

func (s *memorySessionStore) Save(_ context.Context, sessionID string, state valueobject.PagerState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, session := range s.sessions {
		if s.ttl > 0 && now.After(session.expiresAt) {
			delete(s.sessions, id)
		}
	}
	s.sessions[sessionID] = memorySession{state: state, expiresAt: now.Add(s.ttl)}
	return nil
}
