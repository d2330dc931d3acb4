package mongo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/commons-hub/community-api/internal/core/domain"
)

type TaskRepository struct {
	col *mongo.Collection
}

func NewTaskRepository(db *mongo.Database) *TaskRepository {
	return &TaskRepository{col: db.Collection(collectionTasks)}
}

type mongoTask struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	OrganizationID string             `bson:"organization_id"`
	Category       string             `bson:"category"`
	Name           string             `bson:"name"`
	Text           string             `bson:"text"`
	ForRole        string             `bson:"for_role,omitempty"`
	Reward         bson.RawValue      `bson:"reward"`
	Description    string             `bson:"description,omitempty"`
	Explanation    string             `bson:"explanation,omitempty"`
	Status         string             `bson:"status"`
	ChecklistID    string             `bson:"checklist_id,omitempty"`
	AssigneeID     string             `bson:"assignee_id,omitempty"`
	CreatedBy      string             `bson:"created_by"`
	CreatedAt      time.Time          `bson:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at"`
}

func (m *mongoTask) toDomain() *domain.Task {
	return &domain.Task{
		ID:             m.ID.Hex(),
		OrganizationID: m.OrganizationID,
		Category:       m.Category,
		Name:           m.Name,
		Text:           m.Text,
		ForRole:        m.ForRole,
		Reward:         decodeReward(m.Reward),
		Description:    m.Description,
		Explanation:    m.Explanation,
		Status:         m.Status,
		ChecklistID:    m.ChecklistID,
		AssigneeID:     domain.ExternalID(m.AssigneeID),
		CreatedBy:      domain.ExternalID(m.CreatedBy),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// mongoAward is the stored award shape. Older documents nest amount and
// currency under details, and amounts were written both as strings and as
// numbers.
type mongoAward struct {
	Type        string        `bson:"type"`
	Amount      bson.RawValue `bson:"amount,omitempty"`
	Currency    string        `bson:"currency,omitempty"`
	Description string        `bson:"description,omitempty"`
	Details     *struct {
		Amount   bson.RawValue `bson:"amount,omitempty"`
		Currency string        `bson:"currency,omitempty"`
	} `bson:"details,omitempty"`
}

// encodeReward keeps the two stored shapes: a bare number for points and an
// embedded document for awards.
func encodeReward(r domain.Reward) (bson.RawValue, error) {
	var v interface{}
	switch r.Kind() {
	case domain.RewardPoints:
		v, _ = r.Points()
	case domain.RewardAward:
		a, _ := r.Award()
		doc := bson.D{{Key: "type", Value: a.Type}}
		if a.Amount != "" {
			doc = append(doc, bson.E{Key: "amount", Value: a.Amount})
		}
		if a.Currency != "" {
			doc = append(doc, bson.E{Key: "currency", Value: a.Currency})
		}
		if a.Description != "" {
			doc = append(doc, bson.E{Key: "description", Value: a.Description})
		}
		v = doc
	default:
		return bson.RawValue{}, domain.Invalid("reward", "is required")
	}

	t, data, err := bson.MarshalValue(v)
	if err != nil {
		return bson.RawValue{}, fmt.Errorf("encode reward: %w", err)
	}
	return bson.RawValue{Type: t, Value: data}, nil
}

func decodeReward(raw bson.RawValue) domain.Reward {
	if n, ok := rawNumber(raw); ok {
		return domain.PointsReward(n)
	}
	if raw.Type != bsontype.EmbeddedDocument {
		return domain.Reward{}
	}

	var doc mongoAward
	if err := raw.Unmarshal(&doc); err != nil {
		return domain.Reward{}
	}
	a := domain.Award{
		Type:        doc.Type,
		Amount:      rawAmount(doc.Amount),
		Currency:    doc.Currency,
		Description: doc.Description,
	}
	if doc.Details != nil {
		if a.Amount == "" {
			a.Amount = rawAmount(doc.Details.Amount)
		}
		if a.Currency == "" {
			a.Currency = doc.Details.Currency
		}
	}
	return domain.AwardReward(a)
}

func rawNumber(raw bson.RawValue) (float64, bool) {
	switch raw.Type {
	case bsontype.Double:
		return raw.DoubleOK()
	case bsontype.Int32:
		n, ok := raw.Int32OK()
		return float64(n), ok
	case bsontype.Int64:
		n, ok := raw.Int64OK()
		return float64(n), ok
	default:
		return 0, false
	}
}

func rawAmount(raw bson.RawValue) string {
	if s, ok := raw.StringValueOK(); ok {
		return s
	}
	if n, ok := rawNumber(raw); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	reward, err := encodeReward(t.Reward)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoTask{
		ID:             primitive.NewObjectID(),
		OrganizationID: t.OrganizationID,
		Category:       t.Category,
		Name:           t.Name,
		Text:           t.Text,
		ForRole:        t.ForRole,
		Reward:         reward,
		Description:    t.Description,
		Explanation:    t.Explanation,
		Status:         t.Status,
		ChecklistID:    t.ChecklistID,
		AssigneeID:     t.AssigneeID.String(),
		CreatedBy:      t.CreatedBy.String(),
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return err
	}
	t.ID = doc.ID.Hex()
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	oid, err := objectID(id, domain.ErrTaskNotFound)
	if err != nil {
		return nil, err
	}
	var doc mongoTask
	if err := findOne(ctx, r.col, bson.M{"_id": oid}, &doc, domain.ErrTaskNotFound); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *TaskRepository) ListByOrganization(ctx context.Context, orgID string) ([]*domain.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	tasks, err := findAll(ctx, r.col, bson.M{"organization_id": orgID}, opts, (*mongoTask).toDomain)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id, domain.ErrTaskNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}
