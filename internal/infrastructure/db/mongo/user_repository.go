package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/commons-hub/community-api/internal/core/domain"
)

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

type mongoUser struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	ExternalID  string             `bson:"external_id"`
	DisplayName string             `bson:"display_name"`
	Email       string             `bson:"email,omitempty"`
	Username    string             `bson:"username,omitempty"`
	Age         int                `bson:"age,omitempty"`
	Bio         string             `bson:"bio,omitempty"`
	Interests   []string           `bson:"interests,omitempty"`
	Links       []string           `bson:"links,omitempty"`
	ImageRefs   []string           `bson:"image_refs,omitempty"`
	Onboarded   bool               `bson:"onboarded"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (m *mongoUser) toDomain() *domain.User {
	return &domain.User{
		ID:          domain.UserID(m.ID.Hex()),
		ExternalID:  domain.ExternalID(m.ExternalID),
		DisplayName: m.DisplayName,
		Email:       m.Email,
		Username:    m.Username,
		Age:         m.Age,
		Bio:         m.Bio,
		Interests:   m.Interests,
		Links:       m.Links,
		ImageRefs:   m.ImageRefs,
		Onboarded:   m.Onboarded,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func (r *UserRepository) FindByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	oid, err := objectID(id.String(), domain.ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByExternalID(ctx context.Context, id domain.ExternalID) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"external_id": id.String()})
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	if username == "" {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc mongoUser
	if err := findOne(ctx, r.col, filter, &doc, domain.ErrUserNotFound); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

// FindByExternalIDs batch-loads profiles. Unknown ids are skipped.
func (r *UserRepository) FindByExternalIDs(ctx context.Context, ids []domain.ExternalID) ([]*domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}

	users, err := findAll(ctx, r.col, bson.M{"external_id": bson.M{"$in": raw}}, nil, (*mongoUser).toDomain)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	return users, nil
}

// Ensure inserts u unless a user with the same external id exists, and
// returns the stored record either way. Existing profile fields are never
// overwritten.
func (r *UserRepository) Ensure(ctx context.Context, u *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	insert := bson.M{
		"external_id":  u.ExternalID.String(),
		"display_name": u.DisplayName,
		"onboarded":    false,
		"created_at":   u.CreatedAt,
		"updated_at":   u.UpdatedAt,
	}
	if u.Email != "" {
		insert["email"] = u.Email
	}

	filter := bson.M{"external_id": u.ExternalID.String()}
	update := bson.M{"$setOnInsert": insert}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc mongoUser
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		// A concurrent first request won the insert.
		err = r.col.FindOne(ctx, filter).Decode(&doc)
	}
	if err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}
	return doc.toDomain(), nil
}

// UpdateProfile applies patch to the user and returns the updated record.
// A username collision reported by the unique index becomes a ConflictError.
func (r *UserRepository) UpdateProfile(ctx context.Context, id domain.ExternalID, patch domain.ProfilePatch, markOnboarded bool) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Username != nil {
		set["username"] = *patch.Username
	}
	if patch.DisplayName != nil {
		set["display_name"] = *patch.DisplayName
	}
	if patch.Age != nil {
		set["age"] = *patch.Age
	}
	if patch.Bio != nil {
		set["bio"] = *patch.Bio
	}
	if patch.Interests != nil {
		set["interests"] = patch.Interests
	}
	if patch.Links != nil {
		set["links"] = patch.Links
	}
	if patch.ImageRefs != nil {
		set["image_refs"] = patch.ImageRefs
	}
	if markOnboarded {
		set["onboarded"] = true
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc mongoUser
	err := r.col.FindOneAndUpdate(ctx, bson.M{"external_id": id.String()}, bson.M{"$set": set}, opts).Decode(&doc)
	switch {
	case err == nil:
		return doc.toDomain(), nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, domain.ErrUserNotFound
	case mongo.IsDuplicateKeyError(err) && patch.Username != nil:
		return nil, &domain.ConflictError{Field: "username", Value: *patch.Username}
	default:
		return nil, fmt.Errorf("update profile: %w", err)
	}
}
