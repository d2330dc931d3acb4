package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/commons-hub/community-api/internal/core/domain"
)

// MessageRepository stores the message log. Appending a message also patches
// the owning conversation's summary inside one transaction, which requires
// MongoDB to run as a replica set.
type MessageRepository struct {
	client        *mongo.Client
	messages      *mongo.Collection
	conversations *mongo.Collection
}

func NewMessageRepository(client *mongo.Client, db *mongo.Database) *MessageRepository {
	return &MessageRepository{
		client:        client,
		messages:      db.Collection(collectionMessages),
		conversations: db.Collection(collectionConversations),
	}
}

type mongoMessage struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	ConversationID string             `bson:"conversation_id"`
	SenderID       string             `bson:"sender_id"`
	ReceiverID     string             `bson:"receiver_id"`
	Content        string             `bson:"content"`
	CreatedAt      time.Time          `bson:"created_at"`
	Read           bool               `bson:"read"`
}

func (m *mongoMessage) toDomain() *domain.Message {
	return &domain.Message{
		ID:             m.ID.Hex(),
		ConversationID: m.ConversationID,
		SenderID:       domain.ExternalID(m.SenderID),
		ReceiverID:     domain.ExternalID(m.ReceiverID),
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
		Read:           m.Read,
	}
}

// Append inserts msg and sets the conversation's last_message and
// last_message_at to the message's content and timestamp. Either both
// writes land or neither does.
func (r *MessageRepository) Append(ctx context.Context, msg *domain.Message) error {
	convID, err := objectID(msg.ConversationID, domain.ErrConversationNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoMessage{
		ID:             primitive.NewObjectID(),
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID.String(),
		ReceiverID:     msg.ReceiverID.String(),
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt.UTC().Truncate(time.Millisecond),
		Read:           false,
	}

	sess, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := r.messages.InsertOne(sc, doc); err != nil {
			return nil, fmt.Errorf("insert message: %w", err)
		}

		res, err := r.conversations.UpdateOne(sc,
			bson.M{"_id": convID},
			bson.M{"$set": bson.M{
				"last_message":    doc.Content,
				"last_message_at": doc.CreatedAt,
			}},
		)
		if err != nil {
			return nil, fmt.Errorf("update conversation summary: %w", err)
		}
		if res.MatchedCount == 0 {
			return nil, domain.ErrConversationNotFound
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	msg.ID = doc.ID.Hex()
	msg.CreatedAt = doc.CreatedAt
	msg.Read = false
	return nil
}

// ListByConversation returns the whole log ascending by created_at. Ties
// fall back to the ObjectID, which grows with insertion order.
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]*domain.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	msgs, err := findAll(ctx, r.messages, bson.M{"conversation_id": conversationID}, opts, (*mongoMessage).toDomain)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

func (r *MessageRepository) CountUnread(ctx context.Context, receiver domain.ExternalID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.messages.CountDocuments(ctx, bson.M{"receiver_id": receiver.String(), "read": false})
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

// MarkRead flips read on every unread message addressed to receiver in the
// conversation and reports how many changed.
func (r *MessageRepository) MarkRead(ctx context.Context, conversationID string, receiver domain.ExternalID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"conversation_id": conversationID,
		"receiver_id":     receiver.String(),
		"read":            false,
	}
	res, err := r.messages.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	return res.ModifiedCount, nil
}
