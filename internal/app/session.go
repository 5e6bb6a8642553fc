package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"identity/internal/domain"
)

// DefaultSessionTTL is the fixed session lifetime when none is configured.
const DefaultSessionTTL = time.Hour

// SessionManager creates, resolves, and destroys server-side sessions.
type SessionManager struct {
	store domain.SessionStore
	ttl   time.Duration
}

// NewSessionManager creates a SessionManager backed by the given store.
func NewSessionManager(store domain.SessionStore, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{store: store, ttl: ttl}
}

// TTL returns the fixed session lifetime.
func (m *SessionManager) TTL() time.Duration { return m.ttl }

// Create generates a fresh session bound to the user and returns its
// identifier. Identifiers carry 256 bits of randomness, so a collision with
// a live session is cryptographically negligible.
func (m *SessionManager) Create(ctx context.Context, userID string) (string, error) {
	id, err := generateSessionID()
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	s := domain.Session{ID: id, UserID: userID, CreatedAt: now, ExpiresAt: now.Add(m.ttl)}
	if err := m.store.Put(ctx, s); err != nil {
		return "", err
	}
	return id, nil
}

// Resolve returns the user bound to the identifier, or "" when the session
// is unknown or past its TTL. Absence is a normal outcome, not an error.
func (m *SessionManager) Resolve(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", nil
	}
	s, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", nil
	}
	// The store's TTL cleanup may lag; check the deadline here as well.
	if time.Now().After(s.ExpiresAt) {
		_ = m.store.Delete(ctx, sessionID)
		return "", nil
	}
	return s.UserID, nil
}

// Destroy removes the session. Destroying an absent session is a no-op
// success.
func (m *SessionManager) Destroy(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return m.store.Delete(ctx, sessionID)
}

func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
