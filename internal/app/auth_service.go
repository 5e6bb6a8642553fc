// Package app holds the application services and business logic.
package app

import (
	"context"
	"errors"
	"fmt"

	"identity/internal/domain"
)

// AuthService orchestrates credential verification, user lookup, and session
// lifecycle for register, login, logout, and identity checks.
type AuthService struct {
	users    domain.UserRepository
	sessions *SessionManager
}

// NewAuthService creates a new authentication service.
func NewAuthService(users domain.UserRepository, sessions *SessionManager) *AuthService {
	return &AuthService{users: users, sessions: sessions}
}

// Identity is the result of a session check.
type Identity struct {
	Authenticated bool               `json:"authenticated"`
	User          *domain.PublicUser `json:"user,omitempty"`
}

// Register creates a user and an authenticated session for it. A successful
// register always leaves the caller logged in.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.PublicUser, string, error) {
	if email == "" || password == "" {
		return nil, "", fmt.Errorf("%w: email and password required", domain.ErrInvalidInput)
	}
	email = domain.NormalizeEmail(email)
	if !domain.ValidEmail(email) {
		return nil, "", fmt.Errorf("%w: malformed email", domain.ErrInvalidInput)
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", domain.ErrConflict
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, "", err
	}
	user, err := s.users.Insert(ctx, email, hash)
	if err != nil {
		// The unique index is authoritative; a concurrent register can slip
		// past the existence check above.
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, "", domain.ErrConflict
		}
		return nil, "", err
	}

	sessionID, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	pub := user.Public()
	return &pub, sessionID, nil
}

// Login verifies credentials and opens a session. The failure mode never
// reveals whether the email or the password was wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.PublicUser, string, error) {
	if email == "" || password == "" {
		return nil, "", domain.ErrUnauthorized
	}
	user, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, "", err
	}
	if user == nil || !VerifyPassword(password, user.PasswordHash) {
		return nil, "", domain.ErrUnauthorized
	}

	sessionID, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	pub := user.Public()
	return &pub, sessionID, nil
}

// Logout destroys the session. Logging out an absent session still succeeds.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Destroy(ctx, sessionID)
}

// CurrentIdentity resolves a session to its user. A missing or expired
// session yields an unauthenticated identity, not an error.
func (s *AuthService) CurrentIdentity(ctx context.Context, sessionID string) (*Identity, error) {
	userID, err := s.sessions.Resolve(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if userID == "" {
		return &Identity{}, nil
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// The user was deleted after the session was issued.
		_ = s.sessions.Destroy(ctx, sessionID)
		return &Identity{}, nil
	}
	pub := user.Public()
	return &Identity{Authenticated: true, User: &pub}, nil
}
