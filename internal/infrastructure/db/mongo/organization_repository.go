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

type OrganizationRepository struct {
	col *mongo.Collection
}

func NewOrganizationRepository(db *mongo.Database) *OrganizationRepository {
	return &OrganizationRepository{col: db.Collection(collectionOrganizations)}
}

type mongoOrganization struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description,omitempty"`
	LogoRef     string             `bson:"logo_ref,omitempty"`
	AdminID     string             `bson:"admin_id"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (m *mongoOrganization) toDomain() *domain.Organization {
	return &domain.Organization{
		ID:          m.ID.Hex(),
		Name:        m.Name,
		Description: m.Description,
		LogoRef:     m.LogoRef,
		AdminID:     domain.ExternalID(m.AdminID),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func (r *OrganizationRepository) Create(ctx context.Context, org *domain.Organization) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoOrganization{
		ID:          primitive.NewObjectID(),
		Name:        org.Name,
		Description: org.Description,
		LogoRef:     org.LogoRef,
		AdminID:     org.AdminID.String(),
		CreatedAt:   org.CreatedAt,
		UpdatedAt:   org.UpdatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return err
	}
	org.ID = doc.ID.Hex()
	return nil
}

func (r *OrganizationRepository) FindByID(ctx context.Context, id string) (*domain.Organization, error) {
	oid, err := objectID(id, domain.ErrOrganizationNotFound)
	if err != nil {
		return nil, err
	}
	var doc mongoOrganization
	if err := findOne(ctx, r.col, bson.M{"_id": oid}, &doc, domain.ErrOrganizationNotFound); err != nil {
		if errors.Is(err, domain.ErrOrganizationNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find organization: %w", err)
	}
	return doc.toDomain(), nil
}

// Update applies the non-nil fields of patch directly.
func (r *OrganizationRepository) Update(ctx context.Context, id string, patch domain.OrganizationPatch, now time.Time) (*domain.Organization, error) {
	oid, err := objectID(id, domain.ErrOrganizationNotFound)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"updated_at": now}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.LogoRef != nil {
		set["logo_ref"] = *patch.LogoRef
	}

	var doc mongoOrganization
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("update organization: %w", err)
	}
	return doc.toDomain(), nil
}

type ChecklistRepository struct {
	col *mongo.Collection
}

func NewChecklistRepository(db *mongo.Database) *ChecklistRepository {
	return &ChecklistRepository{col: db.Collection(collectionChecklists)}
}

type mongoChecklist struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	OrganizationID string             `bson:"organization_id"`
	Title          string             `bson:"title"`
	Items          []string           `bson:"items"`
	CreatedAt      time.Time          `bson:"created_at"`
}

func (r *ChecklistRepository) Create(ctx context.Context, c *domain.Checklist) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	items := c.Items
	if items == nil {
		items = []string{}
	}
	doc := mongoChecklist{
		ID:             primitive.NewObjectID(),
		OrganizationID: c.OrganizationID,
		Title:          c.Title,
		Items:          items,
		CreatedAt:      c.CreatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return err
	}
	c.ID = doc.ID.Hex()
	return nil
}

func (r *ChecklistRepository) FindByID(ctx context.Context, id string) (*domain.Checklist, error) {
	oid, err := objectID(id, domain.ErrChecklistNotFound)
	if err != nil {
		return nil, err
	}
	var doc mongoChecklist
	if err := findOne(ctx, r.col, bson.M{"_id": oid}, &doc, domain.ErrChecklistNotFound); err != nil {
		if errors.Is(err, domain.ErrChecklistNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find checklist: %w", err)
	}
	return &domain.Checklist{
		ID:             doc.ID.Hex(),
		OrganizationID: doc.OrganizationID,
		Title:          doc.Title,
		Items:          doc.Items,
		CreatedAt:      doc.CreatedAt,
	}, nil
}
