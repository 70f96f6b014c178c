package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	domain "user-service/internal/domain/user"
	pkgerrors "user-service/pkg/errors"
)

// collectionName is the users collection in the configured database.
const collectionName = "users"

// UserRepoMongo implements the Repository interface using MongoDB.
type UserRepoMongo struct {
	coll *mongo.Collection // Users collection handle
	log  *zap.Logger       // Structured logger for database operations
}

// NewUserRepoMongo creates a new instance of UserRepoMongo.
func NewUserRepoMongo(db *mongo.Database, log *zap.Logger) *UserRepoMongo {
	return &UserRepoMongo{coll: db.Collection(collectionName), log: log}
}

// userDocument represents the stored shape of a user document.
type userDocument struct {
	ID        bson.ObjectID `bson:"_id,omitempty"` // Unique identifier assigned on insert
	Name      string        `bson:"name"`          // User's first name (required)
	Surname   string        `bson:"surname"`       // User's family name (required)
	Email     string        `bson:"email"`         // User's unique, normalized email address
	JobTitle  string        `bson:"jobTitle"`      // User's job title (required)
	CreatedAt time.Time     `bson:"createdAt"`     // Set once on insert
	UpdatedAt time.Time     `bson:"updatedAt"`     // Re-stamped on every update
}

func (d *userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Surname:   d.Surname,
		Email:     d.Email,
		JobTitle:  d.JobTitle,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// EnsureIndexes creates the unique index on email. The index is the final
// arbiter of email uniqueness: concurrent writes that slip past the
// uniqueness pre-check are rejected here.
func (r *UserRepoMongo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create unique email index: %w", err)
	}

	r.log.Info("unique email index ensured", zap.String("collection", collectionName))
	return nil
}

// Create inserts a new user document with a fresh id and timestamps and
// returns the stored record.
func (r *UserRepoMongo) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	if u == nil {
		return nil, errors.New("user cannot be nil")
	}

	// Mongo stores datetimes with millisecond precision; truncate up front
	// so the returned record matches a later read exactly
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := userDocument{
		ID:        bson.NewObjectID(),
		Name:      u.Name,
		Surname:   u.Surname,
		Email:     u.Email,
		JobTitle:  u.JobTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			r.log.Warn("duplicate email rejected by unique index", zap.String("email", u.Email))
			return nil, pkgerrors.NewAlreadyExistsError("user", "user with this email already exists")
		}
		r.log.Error("failed to create user in db", zap.String("email", u.Email), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to create user", err)
	}

	r.log.Info("user created in db", zap.String("id", doc.ID.Hex()))
	return doc.toDomain(), nil
}

// Update replaces the four editable fields of the matching document,
// re-stamps updatedAt, and returns the post-update record.
func (r *UserRepoMongo) Update(ctx context.Context, u *domain.User) (*domain.User, error) {
	if u == nil {
		return nil, errors.New("user cannot be nil")
	}

	oid, err := bson.ObjectIDFromHex(u.ID)
	if err != nil {
		// A malformed id cannot match any document
		r.log.Warn("malformed user id", zap.String("id", u.ID))
		return nil, pkgerrors.NewNotFoundError("user", "user not found")
	}

	update := bson.M{"$set": bson.M{
		"name":      u.Name,
		"surname":   u.Surname,
		"email":     u.Email,
		"jobTitle":  u.JobTitle,
		"updatedAt": time.Now().UTC().Truncate(time.Millisecond),
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.log.Warn("user not found for update", zap.String("id", u.ID))
			return nil, pkgerrors.NewNotFoundError("user", "user not found")
		}
		if mongo.IsDuplicateKeyError(err) {
			r.log.Warn("duplicate email rejected by unique index", zap.String("email", u.Email))
			return nil, pkgerrors.NewAlreadyExistsError("user", "user with this email already exists")
		}
		r.log.Error("failed to update user in db", zap.String("id", u.ID), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to update user", err)
	}

	r.log.Info("user updated in db", zap.String("id", u.ID))
	return doc.toDomain(), nil
}

// Delete removes the user document matching id.
func (r *UserRepoMongo) Delete(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		r.log.Warn("malformed user id", zap.String("id", id))
		return pkgerrors.NewNotFoundError("user", "user not found")
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		r.log.Error("failed to delete user in db", zap.String("id", id), zap.Error(err))
		return pkgerrors.NewInternalError("failed to delete user", err)
	}
	if res.DeletedCount == 0 {
		r.log.Warn("user not found for delete", zap.String("id", id))
		return pkgerrors.NewNotFoundError("user", "user not found")
	}

	r.log.Info("user deleted in db", zap.String("id", id))
	return nil
}

// GetByID retrieves a user document by its unique id.
func (r *UserRepoMongo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		r.log.Warn("malformed user id", zap.String("id", id))
		return nil, pkgerrors.NewNotFoundError("user", "user not found")
	}

	var doc userDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.log.Warn("user not found", zap.String("id", id))
			return nil, pkgerrors.NewNotFoundError("user", "user not found")
		}
		r.log.Error("failed to get user from db", zap.String("id", id), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to get user", err)
	}

	return doc.toDomain(), nil
}

// GetByEmail retrieves a user document by normalized email. Absence is not
// an error: callers use this for uniqueness checks.
func (r *UserRepoMongo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.log.Debug("user not found by email", zap.String("email", email))
			return nil, nil
		}
		r.log.Error("failed to get user by email from db", zap.String("email", email), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to get user by email", err)
	}

	return doc.toDomain(), nil
}

// GetByEmailExcludingID retrieves a user document by normalized email,
// ignoring the document with the given id. A malformed id excludes nothing,
// so the lookup degrades to GetByEmail.
func (r *UserRepoMongo) GetByEmailExcludingID(ctx context.Context, email, id string) (*domain.User, error) {
	filter := bson.M{"email": email}
	if oid, err := bson.ObjectIDFromHex(id); err == nil {
		filter["_id"] = bson.M{"$ne": oid}
	}

	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.log.Debug("no other user holds email", zap.String("email", email))
			return nil, nil
		}
		r.log.Error("failed to get user by email from db", zap.String("email", email), zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to get user by email", err)
	}

	return doc.toDomain(), nil
}

// List retrieves all user documents ordered by creation time.
func (r *UserRepoMongo) List(ctx context.Context) ([]domain.User, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "createdAt", Value: 1},
		{Key: "_id", Value: 1},
	})

	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		r.log.Error("failed to list users from db", zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to list users", err)
	}

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.log.Error("failed to decode users", zap.Error(err))
		return nil, pkgerrors.NewInternalError("failed to list users", err)
	}

	users := make([]domain.User, len(docs))
	for i, doc := range docs {
		users[i] = *doc.toDomain()
	}

	return users, nil
}
