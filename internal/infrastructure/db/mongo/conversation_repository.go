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

type ConversationRepository struct {
	col *mongo.Collection
}

func NewConversationRepository(db *mongo.Database) *ConversationRepository {
	return &ConversationRepository{col: db.Collection(collectionConversations)}
}

type mongoConversation struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Type           string             `bson:"type"`
	ParticipantIDs []string           `bson:"participant_ids"`
	PairKey        string             `bson:"pair_key,omitempty"`
	CreatedAt      time.Time          `bson:"created_at"`
	LastMessageAt  time.Time          `bson:"last_message_at"`
	LastMessage    *string            `bson:"last_message,omitempty"`
}

func (m *mongoConversation) toDomain() *domain.Conversation {
	participants := make([]domain.ExternalID, len(m.ParticipantIDs))
	for i, p := range m.ParticipantIDs {
		participants[i] = domain.ExternalID(p)
	}
	return &domain.Conversation{
		ID:             m.ID.Hex(),
		Type:           domain.ConversationType(m.Type),
		ParticipantIDs: participants,
		CreatedAt:      m.CreatedAt,
		LastMessageAt:  m.LastMessageAt,
		LastMessage:    m.LastMessage,
	}
}

func (r *ConversationRepository) FindByID(ctx context.Context, id string) (*domain.Conversation, error) {
	oid, err := objectID(id, domain.ErrConversationNotFound)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// FindDirect matches the pair in either order. Conversations written before
// pair keys existed are matched on their participant set.
func (r *ConversationRepository) FindDirect(ctx context.Context, a, b domain.ExternalID) (*domain.Conversation, error) {
	return r.findOne(ctx, directFilter(a, b))
}

func directFilter(a, b domain.ExternalID) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"pair_key": domain.PairKey(a, b)},
		bson.M{
			"type":            string(domain.ConversationDirect),
			"participant_ids": bson.M{"$all": bson.A{a.String(), b.String()}, "$size": 2},
		},
	}}
}

func (r *ConversationRepository) findOne(ctx context.Context, filter bson.M) (*domain.Conversation, error) {
	var doc mongoConversation
	if err := findOne(ctx, r.col, filter, &doc, domain.ErrConversationNotFound); err != nil {
		if errors.Is(err, domain.ErrConversationNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	return doc.toDomain(), nil
}

// FindOrCreateDirect converges concurrent starts for the same pair on one
// document: the insert is a conditional upsert keyed on the unique pair key.
func (r *ConversationRepository) FindOrCreateDirect(ctx context.Context, requester, other domain.ExternalID, now time.Time) (*domain.Conversation, bool, error) {
	existing, err := r.FindDirect(ctx, requester, other)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, domain.ErrConversationNotFound):
		return nil, false, err
	}

	created, err := r.upsertPair(ctx, requester, other, now)
	if mongo.IsDuplicateKeyError(err) {
		// Two upserts raced on the unique index; the loser retries as a match.
		created, err = r.upsertPair(ctx, requester, other, now)
	}
	if err != nil {
		return nil, false, fmt.Errorf("upsert conversation: %w", err)
	}

	conv, err := r.findOne(ctx, bson.M{"pair_key": domain.PairKey(requester, other)})
	if err != nil {
		return nil, false, err
	}
	return conv, created, nil
}

func (r *ConversationRepository) upsertPair(ctx context.Context, requester, other domain.ExternalID, now time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now = now.UTC().Truncate(time.Millisecond)
	key := domain.PairKey(requester, other)
	update := bson.M{"$setOnInsert": bson.M{
		"type":            string(domain.ConversationDirect),
		"participant_ids": bson.A{requester.String(), other.String()},
		"pair_key":        key,
		"created_at":      now,
		"last_message_at": now,
	}}

	res, err := r.col.UpdateOne(ctx, bson.M{"pair_key": key}, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, err
	}
	return res.UpsertedCount == 1, nil
}

// ListForParticipant returns every conversation id belongs to, newest
// activity first.
func (r *ConversationRepository) ListForParticipant(ctx context.Context, id domain.ExternalID) ([]*domain.Conversation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "last_message_at", Value: -1}, {Key: "_id", Value: -1}})
	convs, err := findAll(ctx, r.col, bson.M{"participant_ids": id.String()}, opts, (*mongoConversation).toDomain)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, nil
}
