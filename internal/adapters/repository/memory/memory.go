package memory

import (
	"context"
	"sync"
	"time"
	"upload-coordinator/internal/core/domain"
	"upload-coordinator/internal/core/port"

	"github.com/google/uuid"
)

type entry struct {
	session   *domain.UploadSession
	expiresAt time.Time
}

// SessionStore is an in-process session store, suited for a single instance and tests.
// Expired records are dropped lazily on access or by PurgeExpired.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]entry
	now      func() time.Time
}

var _ port.SessionStore = (*SessionStore)(nil)
var _ port.ExpiredSessionPurger = (*SessionStore)(nil)

func NewSessionStore() *SessionStore {
	return NewSessionStoreWithClock(time.Now)
}

// NewSessionStoreWithClock lets tests drive expiry
func NewSessionStoreWithClock(now func() time.Time) *SessionStore {
	return &SessionStore{sessions: make(map[uuid.UUID]entry), now: now}
}

func (s *SessionStore) Put(_ context.Context, session domain.UploadSession, ttl time.Duration) error {
	if err := session.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = entry{session: session.Clone(), expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *SessionStore) Get(_ context.Context, id uuid.UUID) (*domain.UploadSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.live(id)
	if err != nil {
		return nil, err
	}
	return e.session.Clone(), nil
}

func (s *SessionStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Update holds the store lock for the whole read-modify-write
func (s *SessionStore) Update(_ context.Context, id uuid.UUID, fn port.UpdateFunc) (*domain.UploadSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.live(id)
	if err != nil {
		return nil, err
	}

	working := e.session.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	if err := working.Validate(); err != nil {
		return nil, err
	}

	s.sessions[id] = entry{session: working, expiresAt: e.expiresAt}
	return working.Clone(), nil
}

func (s *SessionStore) PurgeExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for id, e := range s.sessions {
		if !now.Before(e.expiresAt) {
			delete(s.sessions, id)
			purged++
		}
	}
	return purged, nil
}

// live must be called with mu held
func (s *SessionStore) live(id uuid.UUID) (entry, error) {
	e, ok := s.sessions[id]
	if !ok {
		return entry{}, domain.ErrSessionNotFound
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.sessions, id)
		return entry{}, domain.ErrSessionNotFound
	}
	return e, nil
}
