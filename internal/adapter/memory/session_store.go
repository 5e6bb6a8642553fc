package memory

import (
	"context"
	"time"

	"identity/internal/domain"
)

// SessionStore implements session persistence on a DB.
type SessionStore struct {
	db *DB
}

// NewSessionStore wraps a DB as a domain.SessionStore.
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

// Put stores the session keyed by its identifier.
func (s *SessionStore) Put(ctx context.Context, sess domain.Session) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	s.db.sessions[sess.ID] = sess
	return nil
}

// Get retrieves a session by identifier. Expired sessions are reaped lazily,
// mirroring the document store's TTL index.
func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	sess, ok := s.db.sessions[id]
	if !ok {
		return nil, nil
	}
	if time.Now().After(sess.ExpiresAt) {
		delete(s.db.sessions, id)
		return nil, nil
	}
	ret := sess
	return &ret, nil
}

// Delete removes a session; deleting an absent session is a no-op.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	delete(s.db.sessions, id)
	return nil
}
