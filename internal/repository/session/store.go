package session

import (
	"context"
	"sync"
	"time"

	"diamond-storefront/internal/domain"
)

// DefaultTTL bounds how long a partial-payment offer stays redeemable.
const DefaultTTL = 24 * time.Hour

// Store holds deposit sessions keyed by session ID. It is the session-side
// sibling of the cart store: absent or expired IDs surface as
// domain.ErrNotFound.
type Store interface {
	Put(ctx context.Context, s *domain.DepositSession) error
	Get(ctx context.Context, id string) (*domain.DepositSession, error)
	Delete(ctx context.Context, id string) error
}

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]stored
	ttl      time.Duration
}

type stored struct {
	session   domain.DepositSession
	expiresAt time.Time
}

// NewMemory builds an in-memory session Store. A zero ttl falls back to
// DefaultTTL.
func NewMemory(ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &memoryStore{sessions: make(map[string]stored), ttl: ttl}
}

func (s *memoryStore) Put(_ context.Context, session *domain.DepositSession) error {
	now := time.Now()
	s.mu.Lock()
	s.sessions[session.ID] = stored{session: *session, expiresAt: now.Add(s.ttl)}
	for id, st := range s.sessions {
		if now.After(st.expiresAt) {
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Get(_ context.Context, id string) (*domain.DepositSession, error) {
	s.mu.RLock()
	st, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok || time.Now().After(st.expiresAt) {
		return nil, domain.ErrNotFound
	}
	out := st.session
	return &out, nil
}

func (s *memoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}
