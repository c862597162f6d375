package repositories

import (
	"context"
	"time"

	"github.com/waveline-app/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository defines the interface for direct message operations
type MessageRepository interface {
	CreateMessage(ctx context.Context, message *models.Message) error
	GetMessagesBetween(ctx context.Context, userID, counterpartID string, page, limit int64) ([]models.Message, error)
	MarkConversationRead(ctx context.Context, userID, counterpartID string) (int64, error)
	GetConversations(ctx context.Context, userID string) ([]models.Conversation, error)
	SoftDelete(ctx context.Context, messageID, userID string) error
}

// MongoMessageRepository implements MessageRepository for MongoDB
type MongoMessageRepository struct {
	collection *mongo.Collection
}

// NewMongoMessageRepository creates a new MongoMessageRepository
func NewMongoMessageRepository(db *mongo.Database) *MongoMessageRepository {
	return &MongoMessageRepository{collection: db.Collection("messages")}
}

// CreateMessage creates a new unread message
func (r *MongoMessageRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	message.ID = primitive.NewObjectID()
	message.Read = false
	if message.DeletedFor == nil {
		message.DeletedFor = []primitive.ObjectID{}
	}
	message.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, message)
	return err
}

// GetMessagesBetween returns a page of messages between the pair, excluding
// any the caller soft-deleted, reversed into chronological display order.
func (r *MongoMessageRepository) GetMessagesBetween(ctx context.Context, userID, counterpartID string, page, limit int64) ([]models.Message, error) {
	userOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, models.ErrNotFound
	}
	counterpartOID, err := primitive.ObjectIDFromHex(counterpartID)
	if err != nil {
		return nil, models.ErrNotFound
	}

	filter := bson.M{
		"$or": bson.A{
			bson.M{"sender_id": userOID, "recipient_id": counterpartOID},
			bson.M{"sender_id": counterpartOID, "recipient_id": userOID},
		},
		"deleted_for": bson.M{"$ne": userOID},
	}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	messages := []models.Message{}
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}

	// Newest-first page, oldest-first display.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// MarkConversationRead flips every unread message from counterpart to user
// and reports how many were flipped.
func (r *MongoMessageRepository) MarkConversationRead(ctx context.Context, userID, counterpartID string) (int64, error) {
	userOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return 0, models.ErrNotFound
	}
	counterpartOID, err := primitive.ObjectIDFromHex(counterpartID)
	if err != nil {
		return 0, models.ErrNotFound
	}

	res, err := r.collection.UpdateMany(ctx,
		bson.M{"sender_id": counterpartOID, "recipient_id": userOID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// GetConversations aggregates one row per counterpart: the latest message
// not deleted by the viewer plus the count of unread messages from that
// counterpart, ordered by last-message recency.
func (r *MongoMessageRepository) GetConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	userOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, models.ErrNotFound
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"$or": bson.A{
				bson.M{"sender_id": userOID},
				bson.M{"recipient_id": userOID},
			},
			"deleted_for": bson.M{"$ne": userOID},
		}}},
		bson.D{{Key: "$sort", Value: bson.M{"created_at": -1}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$sender_id", userOID}},
				"$recipient_id",
				"$sender_id",
			}},
			"last_message": bson.M{"$first": "$$ROOT"},
			"unread_count": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$and": bson.A{
					bson.M{"$eq": bson.A{"$recipient_id", userOID}},
					bson.M{"$eq": bson.A{"$read", false}},
				}},
				1,
				0,
			}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.M{"last_message.created_at": -1}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "user",
		}}},
		bson.D{{Key: "$unwind", Value: "$user"}},
		bson.D{{Key: "$project", Value: bson.M{
			"user": bson.M{
				"_id":             1,
				"username":        1,
				"display_name":    1,
				"profile_picture": 1,
			},
			"last_message": 1,
			"unread_count": 1,
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	conversations := []models.Conversation{}
	if err = cursor.All(ctx, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

// SoftDelete appends the user to the message's deleted_for set. Only the
// sender or the recipient may delete; the set only ever grows and the
// document is never purged, even once both sides have deleted.
func (r *MongoMessageRepository) SoftDelete(ctx context.Context, messageID, userID string) error {
	objID, err := primitive.ObjectIDFromHex(messageID)
	if err != nil {
		return models.ErrNotFound
	}
	userOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return models.ErrNotFound
	}

	var message models.Message
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&message)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.ErrNotFound
		}
		return err
	}
	if message.SenderID != userOID && message.RecipientID != userOID {
		return models.ErrForbidden
	}

	_, err = r.collection.UpdateOne(ctx,
		bson.M{"_id": objID},
		bson.M{"$addToSet": bson.M{"deleted_for": userOID}},
	)
	return err
}
