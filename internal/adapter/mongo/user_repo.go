package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"identity/internal/domain"
)

type userDoc struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Email        string        `bson:"email"`
	PasswordHash string        `bson:"passwordHash"`
	CreatedAt    time.Time     `bson:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt"`
}

func (doc userDoc) toDomain() domain.User {
	return domain.User{
		ID:           doc.ID.Hex(),
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
}

// Insert stores a new user. A duplicate email surfaces as ErrDuplicateEmail.
func (d *DB) Insert(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	now := time.Now().UTC()
	doc := userDoc{
		ID:           bson.NewObjectID(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := d.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, err
	}
	u := doc.toDomain()
	return &u, nil
}

// InsertMany performs an unordered bulk insert. Documents rejected by the
// unique index do not roll back the ones already written; the count of
// persisted documents is returned alongside ErrDuplicateEmail.
func (d *DB) InsertMany(ctx context.Context, users []domain.NewUser) (int64, error) {
	now := time.Now().UTC()
	docs := make([]any, 0, len(users))
	for _, u := range users {
		docs = append(docs, userDoc{
			ID:           bson.NewObjectID(),
			Email:        u.Email,
			PasswordHash: u.PasswordHash,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	res, err := d.users.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	var inserted int64
	if res != nil {
		inserted = int64(len(res.InsertedIDs))
	}
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return inserted, domain.ErrDuplicateEmail
		}
		return inserted, err
	}
	return inserted, nil
}

// FindByEmail retrieves a user by normalized email.
func (d *DB) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var doc userDoc
	err := d.users.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u := doc.toDomain()
	return &u, nil
}

// FindByID retrieves a user by id. A syntactically invalid id matches
// nothing.
func (d *DB) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	var doc userDoc
	err = d.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u := doc.toDomain()
	return &u, nil
}

// FindAll returns every user ordered by createdAt descending.
func (d *DB) FindAll(ctx context.Context) ([]domain.User, error) {
	cur, err := d.users.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	return decodeUsers(ctx, cur)
}

// FindByFilter returns users matching the filter.
func (d *DB) FindByFilter(ctx context.Context, filter domain.Filter) ([]domain.User, error) {
	cur, err := d.users.Find(ctx, filterQuery(filter))
	if err != nil {
		return nil, err
	}
	return decodeUsers(ctx, cur)
}

// FindPage returns up to limit users ordered by ascending id, restricted to
// id > afterID when a cursor is given.
func (d *DB) FindPage(ctx context.Context, afterID string, limit int) ([]domain.User, error) {
	q := bson.M{}
	if afterID != "" {
		oid, err := bson.ObjectIDFromHex(afterID)
		if err != nil {
			return nil, nil
		}
		q["_id"] = bson.M{"$gt": oid}
	}
	cur, err := d.users.Find(ctx, q,
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}).SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	return decodeUsers(ctx, cur)
}

// UpdateOne applies a partial $set to one user.
func (d *DB) UpdateOne(ctx context.Context, id string, patch domain.UserPatch) (int64, int64, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return 0, 0, nil
	}
	res, err := d.users.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": setFields(patch)})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, 0, domain.ErrDuplicateEmail
		}
		return 0, 0, err
	}
	return res.MatchedCount, res.ModifiedCount, nil
}

// UpdateMany applies a partial $set to every user matching the filter.
func (d *DB) UpdateMany(ctx context.Context, filter domain.Filter, patch domain.UserPatch) (int64, int64, error) {
	res, err := d.users.UpdateMany(ctx, filterQuery(filter), bson.M{"$set": setFields(patch)})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, 0, domain.ErrDuplicateEmail
		}
		return 0, 0, err
	}
	return res.MatchedCount, res.ModifiedCount, nil
}

// Replace overwrites the full document content, keeping the identifier. The
// store-owned timestamps restart with the replacement.
func (d *DB) Replace(ctx context.Context, id, email, passwordHash string) (int64, int64, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return 0, 0, nil
	}
	now := time.Now().UTC()
	doc := userDoc{ID: oid, Email: email, PasswordHash: passwordHash, CreatedAt: now, UpdatedAt: now}
	res, err := d.users.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, 0, domain.ErrDuplicateEmail
		}
		return 0, 0, err
	}
	return res.MatchedCount, res.ModifiedCount, nil
}

// DeleteOne removes one user by id; zero matches is success with count 0.
func (d *DB) DeleteOne(ctx context.Context, id string) (int64, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return 0, nil
	}
	res, err := d.users.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteMany removes every user matching the filter.
func (d *DB) DeleteMany(ctx context.Context, filter domain.Filter) (int64, error) {
	res, err := d.users.DeleteMany(ctx, filterQuery(filter))
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Stats runs the analytics aggregation in a single pipeline: derive the
// email domain, then facet into collection totals and a top-10 domain
// leaderboard.
func (d *DB) Stats(ctx context.Context) (*domain.Stats, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "domain", Value: bson.D{{Key: "$arrayElemAt", Value: bson.A{
				bson.D{{Key: "$split", Value: bson.A{"$email", "@"}}}, 1,
			}}}},
			{Key: "createdAt", Value: 1},
		}}},
		bson.D{{Key: "$facet", Value: bson.D{
			{Key: "totals", Value: bson.A{
				bson.D{{Key: "$group", Value: bson.D{
					{Key: "_id", Value: nil},
					{Key: "totalUsers", Value: bson.D{{Key: "$sum", Value: 1}}},
					{Key: "uniqueDomains", Value: bson.D{{Key: "$addToSet", Value: "$domain"}}},
					{Key: "firstUser", Value: bson.D{{Key: "$min", Value: "$createdAt"}}},
					{Key: "lastUser", Value: bson.D{{Key: "$max", Value: "$createdAt"}}},
				}}},
				bson.D{{Key: "$project", Value: bson.D{
					{Key: "_id", Value: 0},
					{Key: "totalUsers", Value: 1},
					{Key: "uniqueDomainCount", Value: bson.D{{Key: "$size", Value: "$uniqueDomains"}}},
					{Key: "firstUser", Value: 1},
					{Key: "lastUser", Value: 1},
				}}},
			}},
			{Key: "domains", Value: bson.A{
				bson.D{{Key: "$group", Value: bson.D{
					{Key: "_id", Value: "$domain"},
					{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
				}}},
				// Ties rank lexicographically by domain so the leaderboard
				// is deterministic.
				bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
				bson.D{{Key: "$limit", Value: 10}},
				bson.D{{Key: "$project", Value: bson.D{
					{Key: "_id", Value: 0},
					{Key: "domain", Value: "$_id"},
					{Key: "count", Value: 1},
				}}},
			}},
		}}},
	}

	cur, err := d.users.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Totals []struct {
			TotalUsers        int64      `bson:"totalUsers"`
			UniqueDomainCount int64      `bson:"uniqueDomainCount"`
			FirstUser         *time.Time `bson:"firstUser"`
			LastUser          *time.Time `bson:"lastUser"`
		} `bson:"totals"`
		Domains []domain.DomainCount `bson:"domains"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}

	stats := &domain.Stats{TopDomains: []domain.DomainCount{}}
	if len(rows) == 0 {
		return stats, nil
	}
	if totals := rows[0].Totals; len(totals) > 0 {
		stats.TotalUsers = totals[0].TotalUsers
		stats.UniqueDomainCount = totals[0].UniqueDomainCount
		stats.FirstUser = totals[0].FirstUser
		stats.LastUser = totals[0].LastUser
	}
	if rows[0].Domains != nil {
		stats.TopDomains = rows[0].Domains
	}
	return stats, nil
}

func filterQuery(filter domain.Filter) bson.M {
	q := bson.M{}
	if filter.Email != "" {
		q["email"] = filter.Email
	}
	return q
}

func setFields(patch domain.UserPatch) bson.M {
	// updatedAt is store-owned and refreshed on every write.
	set := bson.M{"updatedAt": time.Now().UTC()}
	if patch.Email != nil {
		set["email"] = *patch.Email
	}
	if patch.PasswordHash != nil {
		set["passwordHash"] = *patch.PasswordHash
	}
	return set
}

func decodeUsers(ctx context.Context, cur *mongo.Cursor) ([]domain.User, error) {
	defer cur.Close(ctx)
	var out []domain.User
	for cur.Next(ctx) {
		var doc userDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toDomain())
	}
	return out, cur.Err()
}
