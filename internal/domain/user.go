// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// User is the stored identity record. The password hash never leaves the
// repository layer except for credential verification.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PublicUser is the outward view of a User with credentials stripped.
type PublicUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Public returns the outward view of the user.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
}

// NewUser is a prepared record for insertion: email already normalized,
// password already hashed.
type NewUser struct {
	Email        string
	PasswordHash string
}

// Filter selects users by exact normalized email; the zero value selects all.
type Filter struct {
	Email string `json:"email"`
}

// UserPatch is a sanitized partial update. Only the fields a client may
// change survive sanitization; nil means "leave unchanged".
type UserPatch struct {
	Email        *string
	PasswordHash *string
}

// DomainCount is one entry of the per-domain leaderboard.
type DomainCount struct {
	Domain string `bson:"domain" json:"domain"`
	Count  int64  `bson:"count" json:"count"`
}

// Stats holds collection-wide analytics over the user collection.
type Stats struct {
	TotalUsers        int64         `json:"totalUsers"`
	UniqueDomainCount int64         `json:"uniqueDomainCount"`
	FirstUser         *time.Time    `json:"firstUser,omitempty"`
	LastUser          *time.Time    `json:"lastUser,omitempty"`
	TopDomains        []DomainCount `json:"topDomains"`
}

// UserRepository is the port for user persistence. Lookups return (nil, nil)
// when no user matches; writes report ErrDuplicateEmail when the store's
// unique email index rejects them.
type UserRepository interface {
	Insert(ctx context.Context, email, passwordHash string) (*User, error)
	// InsertMany performs an unordered bulk insert and returns the number of
	// documents actually persisted, which may be nonzero even when the batch
	// as a whole reports ErrDuplicateEmail.
	InsertMany(ctx context.Context, users []NewUser) (int64, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	FindAll(ctx context.Context) ([]User, error)
	FindByFilter(ctx context.Context, filter Filter) ([]User, error)
	// FindPage returns up to limit users ordered by ascending id, restricted
	// to id > afterID when afterID is non-empty.
	FindPage(ctx context.Context, afterID string, limit int) ([]User, error)
	UpdateOne(ctx context.Context, id string, patch UserPatch) (matched, modified int64, err error)
	UpdateMany(ctx context.Context, filter Filter, patch UserPatch) (matched, modified int64, err error)
	Replace(ctx context.Context, id, email, passwordHash string) (matched, modified int64, err error)
	DeleteOne(ctx context.Context, id string) (int64, error)
	DeleteMany(ctx context.Context, filter Filter) (int64, error)
	Stats(ctx context.Context) (*Stats, error)
}

var (
	emailShape = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	idShape    = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
)

// NormalizeEmail lower-cases and trims an email address. Normalization is
// idempotent.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether the address has a basic local@domain.tld shape.
func ValidEmail(email string) bool {
	return emailShape.MatchString(email)
}

// ValidID reports whether id is syntactically a valid user identifier
// (24 hex characters, the document store's native id format).
func ValidID(id string) bool {
	return idShape.MatchString(id)
}
