// Package memory implements the domain repositories in process memory for
// development and testing.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"identity/internal/domain"
)

// DB implements the user repository and backs the in-memory session store.
type DB struct {
	mu        sync.Mutex
	users     []*domain.User
	sessions  map[string]domain.Session
	idCounter uint64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{sessions: make(map[string]domain.Session)}
}

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.SessionStore = (*SessionStore)(nil)

// nextID mints ascending 24-hex identifiers, mirroring the document store's
// id format and its insertion-ordered cursors.
func (db *DB) nextID() string {
	db.idCounter++
	return fmt.Sprintf("%024x", db.idCounter)
}

func (db *DB) findByEmailLocked(email string) *domain.User {
	for _, u := range db.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

// Insert stores a new user; a duplicate email yields ErrDuplicateEmail.
func (db *DB) Insert(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.findByEmailLocked(email) != nil {
		return nil, domain.ErrDuplicateEmail
	}
	now := time.Now().UTC()
	u := &domain.User{
		ID:           db.nextID(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	db.users = append(db.users, u)
	ret := *u
	return &ret, nil
}

// InsertMany inserts every non-conflicting entry, unordered-bulk style: a
// duplicate skips that entry without rolling back the ones already written.
func (db *DB) InsertMany(ctx context.Context, users []domain.NewUser) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var inserted int64
	duplicate := false
	now := time.Now().UTC()
	for _, nu := range users {
		if db.findByEmailLocked(nu.Email) != nil {
			duplicate = true
			continue
		}
		db.users = append(db.users, &domain.User{
			ID:           db.nextID(),
			Email:        nu.Email,
			PasswordHash: nu.PasswordHash,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		inserted++
	}
	if duplicate {
		return inserted, domain.ErrDuplicateEmail
	}
	return inserted, nil
}

// FindByEmail retrieves a user by normalized email.
func (db *DB) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if u := db.findByEmailLocked(email); u != nil {
		ret := *u
		return &ret, nil
	}
	return nil, nil
}

// FindByID retrieves a user by id.
func (db *DB) FindByID(ctx context.Context, id string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			ret := *u
			return &ret, nil
		}
	}
	return nil, nil
}

// FindAll returns every user ordered by createdAt descending, newest id
// first on equal timestamps.
func (db *DB) FindAll(ctx context.Context) ([]domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.User, 0, len(db.users))
	for _, u := range db.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// FindByFilter returns users matching the filter.
func (db *DB) FindByFilter(ctx context.Context, filter domain.Filter) ([]domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.User, 0)
	for _, u := range db.users {
		if matches(u, filter) {
			out = append(out, *u)
		}
	}
	return out, nil
}

// FindPage returns up to limit users with id > afterID, ascending by id.
func (db *DB) FindPage(ctx context.Context, afterID string, limit int) ([]domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.User, 0, limit)
	for _, u := range db.users {
		// Fixed-width hex ids compare correctly as strings.
		if afterID == "" || u.ID > afterID {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// UpdateOne applies a partial update to one user.
func (db *DB) UpdateOne(ctx context.Context, id string, patch domain.UserPatch) (int64, int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID != id {
			continue
		}
		if err := db.applyLocked(u, patch); err != nil {
			return 0, 0, err
		}
		return 1, 1, nil
	}
	return 0, 0, nil
}

// UpdateMany applies a partial update to every user matching the filter.
func (db *DB) UpdateMany(ctx context.Context, filter domain.Filter, patch domain.UserPatch) (int64, int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var matched, modified int64
	for _, u := range db.users {
		if !matches(u, filter) {
			continue
		}
		matched++
		if err := db.applyLocked(u, patch); err != nil {
			return matched, modified, err
		}
		modified++
	}
	return matched, modified, nil
}

// Replace overwrites the full record, restarting the store-owned timestamps.
func (db *DB) Replace(ctx context.Context, id, email, passwordHash string) (int64, int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID != id {
			continue
		}
		if other := db.findByEmailLocked(email); other != nil && other.ID != id {
			return 0, 0, domain.ErrDuplicateEmail
		}
		now := time.Now().UTC()
		u.Email = email
		u.PasswordHash = passwordHash
		u.CreatedAt = now
		u.UpdatedAt = now
		return 1, 1, nil
	}
	return 0, 0, nil
}

// DeleteOne removes one user by id.
func (db *DB) DeleteOne(ctx context.Context, id string) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i, u := range db.users {
		if u.ID == id {
			db.users = append(db.users[:i], db.users[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

// DeleteMany removes every user matching the filter.
func (db *DB) DeleteMany(ctx context.Context, filter domain.Filter) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	kept := db.users[:0]
	var deleted int64
	for _, u := range db.users {
		if matches(u, filter) {
			deleted++
			continue
		}
		kept = append(kept, u)
	}
	db.users = kept
	return deleted, nil
}

// Stats computes the same analytics the document store aggregates: totals,
// distinct domain count, first/last creation times, and the top-10 domains
// by count with lexicographic tie-break.
func (db *DB) Stats(ctx context.Context) (*domain.Stats, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	stats := &domain.Stats{TopDomains: []domain.DomainCount{}}
	counts := make(map[string]int64)
	for _, u := range db.users {
		stats.TotalUsers++
		counts[emailDomain(u.Email)]++
		created := u.CreatedAt
		if stats.FirstUser == nil || created.Before(*stats.FirstUser) {
			stats.FirstUser = &created
		}
		if stats.LastUser == nil || created.After(*stats.LastUser) {
			stats.LastUser = &created
		}
	}
	stats.UniqueDomainCount = int64(len(counts))

	domains := make([]domain.DomainCount, 0, len(counts))
	for d, c := range counts {
		domains = append(domains, domain.DomainCount{Domain: d, Count: c})
	}
	sort.Slice(domains, func(i, j int) bool {
		if domains[i].Count != domains[j].Count {
			return domains[i].Count > domains[j].Count
		}
		return domains[i].Domain < domains[j].Domain
	})
	if len(domains) > 10 {
		domains = domains[:10]
	}
	stats.TopDomains = domains
	return stats, nil
}

func (db *DB) applyLocked(u *domain.User, patch domain.UserPatch) error {
	if patch.Email != nil {
		if other := db.findByEmailLocked(*patch.Email); other != nil && other.ID != u.ID {
			return domain.ErrDuplicateEmail
		}
		u.Email = *patch.Email
	}
	if patch.PasswordHash != nil {
		u.PasswordHash = *patch.PasswordHash
	}
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func matches(u *domain.User, filter domain.Filter) bool {
	return filter.Email == "" || u.Email == filter.Email
}

func emailDomain(email string) string {
	if _, domainPart, ok := strings.Cut(email, "@"); ok {
		return domainPart
	}
	return ""
}
