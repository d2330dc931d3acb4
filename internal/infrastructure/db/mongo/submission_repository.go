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

type SubmissionRepository struct {
	col *mongo.Collection
}

func NewSubmissionRepository(db *mongo.Database) *SubmissionRepository {
	return &SubmissionRepository{col: db.Collection(collectionSubmissions)}
}

type mongoSubmission struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	TaskID         string             `bson:"task_id"`
	OrganizationID string             `bson:"organization_id"`
	UserID         string             `bson:"user_id"`
	FileRef        string             `bson:"file_ref,omitempty"`
	Note           string             `bson:"note,omitempty"`
	Status         string             `bson:"status"`
	ReviewedBy     string             `bson:"reviewed_by,omitempty"`
	CreatedAt      time.Time          `bson:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at"`
}

func (m *mongoSubmission) toDomain() *domain.Submission {
	return &domain.Submission{
		ID:             m.ID.Hex(),
		TaskID:         m.TaskID,
		OrganizationID: m.OrganizationID,
		UserID:         domain.ExternalID(m.UserID),
		FileRef:        m.FileRef,
		Note:           m.Note,
		Status:         domain.SubmissionStatus(m.Status),
		ReviewedBy:     domain.ExternalID(m.ReviewedBy),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func (r *SubmissionRepository) Create(ctx context.Context, s *domain.Submission) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoSubmission{
		ID:             primitive.NewObjectID(),
		TaskID:         s.TaskID,
		OrganizationID: s.OrganizationID,
		UserID:         s.UserID.String(),
		FileRef:        s.FileRef,
		Note:           s.Note,
		Status:         string(s.Status),
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return err
	}
	s.ID = doc.ID.Hex()
	return nil
}

func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*domain.Submission, error) {
	oid, err := objectID(id, domain.ErrSubmissionNotFound)
	if err != nil {
		return nil, err
	}
	var doc mongoSubmission
	if err := findOne(ctx, r.col, bson.M{"_id": oid}, &doc, domain.ErrSubmissionNotFound); err != nil {
		if errors.Is(err, domain.ErrSubmissionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find submission: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *SubmissionRepository) ListByTask(ctx context.Context, taskID string) ([]*domain.Submission, error) {
	return r.list(ctx, bson.M{"task_id": taskID})
}

func (r *SubmissionRepository) ListByUser(ctx context.Context, userID domain.ExternalID) ([]*domain.Submission, error) {
	return r.list(ctx, bson.M{"user_id": userID.String()})
}

func (r *SubmissionRepository) list(ctx context.Context, filter bson.M) ([]*domain.Submission, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	subs, err := findAll(ctx, r.col, filter, opts, (*mongoSubmission).toDomain)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return subs, nil
}

func (r *SubmissionRepository) UpdateStatus(ctx context.Context, id string, status domain.SubmissionStatus, reviewer domain.ExternalID, now time.Time) (*domain.Submission, error) {
	oid, err := objectID(id, domain.ErrSubmissionNotFound)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"status":      string(status),
		"reviewed_by": reviewer.String(),
		"updated_at":  now,
	}}
	var doc mongoSubmission
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("update submission: %w", err)
	}
	return doc.toDomain(), nil
}
