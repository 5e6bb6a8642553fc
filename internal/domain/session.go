package domain

import (
	"context"
	"time"
)

// Session binds an opaque identifier to an authenticated user for a finite
// lifetime. The user reference is weak: deleting the user invalidates the
// session on next use rather than eagerly.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionStore is the port for session persistence. Get returns (nil, nil)
// for unknown or already-expired identifiers; Delete of an absent session is
// a no-op.
type SessionStore interface {
	Put(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}
