package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"identity/internal/domain"
)

type sessionDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"userId"`
	CreatedAt time.Time `bson:"createdAt"`
	ExpiresAt time.Time `bson:"expiresAt"`
}

// SessionRepo implements the session store on the sessions collection.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo wraps a DB as a domain.SessionStore.
func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Put stores the session keyed by its identifier.
func (r *SessionRepo) Put(ctx context.Context, s domain.Session) error {
	doc := sessionDoc{ID: s.ID, UserID: s.UserID, CreatedAt: s.CreatedAt, ExpiresAt: s.ExpiresAt}
	_, err := r.db.sessions.InsertOne(ctx, doc)
	return err
}

// Get retrieves a session by identifier, or (nil, nil) when it is unknown.
func (r *SessionRepo) Get(ctx context.Context, id string) (*domain.Session, error) {
	var doc sessionDoc
	err := r.db.sessions.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.Session{
		ID:        doc.ID,
		UserID:    doc.UserID,
		CreatedAt: doc.CreatedAt,
		ExpiresAt: doc.ExpiresAt,
	}, nil
}

// Delete removes a session; deleting an absent session is a no-op.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.sessions.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
