package app

import (
	"context"
	"errors"
	"fmt"

	"identity/internal/domain"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// UserService implements the administrative operations over the user
// collection. Callers are expected to gate these behind an authenticated
// session; the service itself never returns a password hash.
type UserService struct {
	repo domain.UserRepository
}

// NewUserService creates a UserService backed by the given repository.
func NewUserService(repo domain.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// CreateInput is one entry of a create request.
type CreateInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateResult carries the matched/modified counts of a write. Zero matches
// is a normal outcome, not an error.
type UpdateResult struct {
	Matched  int64 `json:"matched"`
	Modified int64 `json:"modified"`
}

// DeleteResult carries the count of deleted documents.
type DeleteResult struct {
	Deleted int64 `json:"deletedCount"`
}

// Page is one cursor-paginated slice of the collection. NextCursor is empty
// when no items remain beyond this page.
type Page struct {
	Users      []domain.PublicUser
	NextCursor string
}

// CreateOne validates, normalizes, and stores a single user. Unlike
// register, it does not open a session.
func (s *UserService) CreateOne(ctx context.Context, email, password string) (*domain.PublicUser, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password required", domain.ErrInvalidInput)
	}
	email = domain.NormalizeEmail(email)
	if !domain.ValidEmail(email) {
		return nil, fmt.Errorf("%w: malformed email", domain.ErrInvalidInput)
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrConflict
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.Insert(ctx, email, hash)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.ErrConflict
		}
		return nil, err
	}
	pub := user.Public()
	return &pub, nil
}

// CreateMany hashes every entry and performs an unordered bulk insert. A
// validation failure on any entry rejects the whole batch before any store
// call; duplicate keys discovered during the insert do not roll back the
// entries already written, so the returned count can be nonzero alongside
// ErrConflict.
func (s *UserService) CreateMany(ctx context.Context, inputs []CreateInput) (int64, error) {
	if len(inputs) == 0 {
		return 0, fmt.Errorf("%w: users array required", domain.ErrInvalidInput)
	}
	prepared := make([]domain.NewUser, 0, len(inputs))
	for _, in := range inputs {
		if in.Email == "" || in.Password == "" {
			return 0, fmt.Errorf("%w: each user must have email and password", domain.ErrInvalidInput)
		}
		email := domain.NormalizeEmail(in.Email)
		if !domain.ValidEmail(email) {
			return 0, fmt.Errorf("%w: malformed email %q", domain.ErrInvalidInput, email)
		}
		hash, err := HashPassword(in.Password)
		if err != nil {
			return 0, err
		}
		prepared = append(prepared, domain.NewUser{Email: email, PasswordHash: hash})
	}

	inserted, err := s.repo.InsertMany(ctx, prepared)
	if errors.Is(err, domain.ErrDuplicateEmail) {
		return inserted, domain.ErrConflict
	}
	return inserted, err
}

// FindAll returns every user, newest first.
func (s *UserService) FindAll(ctx context.Context) ([]domain.PublicUser, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return publicViews(users), nil
}

// FindByQuery returns users matching an exact email, or all users when the
// filter is empty.
func (s *UserService) FindByQuery(ctx context.Context, email string) ([]domain.PublicUser, error) {
	var f domain.Filter
	if email != "" {
		f.Email = domain.NormalizeEmail(email)
	}
	users, err := s.repo.FindByFilter(ctx, f)
	if err != nil {
		return nil, err
	}
	return publicViews(users), nil
}

// FindByCursor returns up to pageSize users ordered by ascending id,
// starting after the given cursor. NextCursor is set iff more items remain
// beyond the page, determined by fetching one extra row and trimming it.
func (s *UserService) FindByCursor(ctx context.Context, pageSize int, after string) (*Page, error) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if after != "" && !domain.ValidID(after) {
		return nil, fmt.Errorf("%w: invalid cursor value", domain.ErrInvalidInput)
	}

	users, err := s.repo.FindPage(ctx, after, pageSize+1)
	if err != nil {
		return nil, err
	}
	page := &Page{}
	if len(users) > pageSize {
		users = users[:pageSize]
		page.NextCursor = users[len(users)-1].ID
	}
	page.Users = publicViews(users)
	return page, nil
}

// UpdateOne applies a sanitized partial update to a single user. Client
// attempts to set id, passwordHash, createdAt, or updatedAt are discarded; a
// plaintext password is hashed and the plaintext never reaches the store.
func (s *UserService) UpdateOne(ctx context.Context, id string, payload map[string]any) (*UpdateResult, error) {
	if !domain.ValidID(id) {
		return nil, fmt.Errorf("%w: invalid user id", domain.ErrInvalidInput)
	}
	patch, err := sanitizePatch(payload)
	if err != nil {
		return nil, err
	}
	matched, modified, err := s.repo.UpdateOne(ctx, id, patch)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.ErrConflict
		}
		return nil, err
	}
	return &UpdateResult{Matched: matched, Modified: modified}, nil
}

// UpdateMany applies the same sanitized partial update to every user
// matching the filter.
func (s *UserService) UpdateMany(ctx context.Context, filter *domain.Filter, payload map[string]any) (*UpdateResult, error) {
	if filter == nil || payload == nil {
		return nil, fmt.Errorf("%w: filter and update required", domain.ErrInvalidInput)
	}
	f := *filter
	if f.Email != "" {
		f.Email = domain.NormalizeEmail(f.Email)
	}
	patch, err := sanitizePatch(payload)
	if err != nil {
		return nil, err
	}
	matched, modified, err := s.repo.UpdateMany(ctx, f, patch)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.ErrConflict
		}
		return nil, err
	}
	return &UpdateResult{Matched: matched, Modified: modified}, nil
}

// ReplaceOne swaps the entire record for a freshly normalized and hashed one
// sharing the same identifier.
func (s *UserService) ReplaceOne(ctx context.Context, id, email, password string) (*UpdateResult, error) {
	if !domain.ValidID(id) {
		return nil, fmt.Errorf("%w: invalid user id", domain.ErrInvalidInput)
	}
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password required", domain.ErrInvalidInput)
	}
	email = domain.NormalizeEmail(email)
	if !domain.ValidEmail(email) {
		return nil, fmt.Errorf("%w: malformed email", domain.ErrInvalidInput)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	matched, modified, err := s.repo.Replace(ctx, id, email, hash)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.ErrConflict
		}
		return nil, err
	}
	return &UpdateResult{Matched: matched, Modified: modified}, nil
}

// DeleteOne removes a single user by id. Deleting a nonexistent user is
// success with a zero count.
func (s *UserService) DeleteOne(ctx context.Context, id string) (*DeleteResult, error) {
	if !domain.ValidID(id) {
		return nil, fmt.Errorf("%w: invalid user id", domain.ErrInvalidInput)
	}
	deleted, err := s.repo.DeleteOne(ctx, id)
	if err != nil {
		return nil, err
	}
	return &DeleteResult{Deleted: deleted}, nil
}

// DeleteMany removes every user matching the filter; zero matches is
// success.
func (s *UserService) DeleteMany(ctx context.Context, filter domain.Filter) (*DeleteResult, error) {
	if filter.Email != "" {
		filter.Email = domain.NormalizeEmail(filter.Email)
	}
	deleted, err := s.repo.DeleteMany(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &DeleteResult{Deleted: deleted}, nil
}

// Stats returns aggregate analytics over the whole collection.
func (s *UserService) Stats(ctx context.Context) (*domain.Stats, error) {
	return s.repo.Stats(ctx)
}

// sanitizePatch keeps only the client-writable fields of an update payload.
// The id, passwordHash, and store-owned timestamps are dropped regardless of
// the attempted values.
func sanitizePatch(payload map[string]any) (domain.UserPatch, error) {
	var patch domain.UserPatch
	if v, ok := payload["email"]; ok {
		email, ok := v.(string)
		if !ok || email == "" {
			return patch, fmt.Errorf("%w: email must be a non-empty string", domain.ErrInvalidInput)
		}
		email = domain.NormalizeEmail(email)
		if !domain.ValidEmail(email) {
			return patch, fmt.Errorf("%w: malformed email", domain.ErrInvalidInput)
		}
		patch.Email = &email
	}
	if v, ok := payload["password"]; ok {
		password, ok := v.(string)
		if !ok || password == "" {
			return patch, fmt.Errorf("%w: password must be a non-empty string", domain.ErrInvalidInput)
		}
		hash, err := HashPassword(password)
		if err != nil {
			return patch, err
		}
		patch.PasswordHash = &hash
	}
	return patch, nil
}

func publicViews(users []domain.User) []domain.PublicUser {
	out := make([]domain.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out
}
