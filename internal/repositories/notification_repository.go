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

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
	GetByRecipient(ctx context.Context, recipientID string, page, limit int64) ([]models.Notification, int64, error)
	GetUnreadCount(ctx context.Context, recipientID string) (int64, error)
	MarkAsRead(ctx context.Context, notificationID, recipientID string) error
	MarkAllAsRead(ctx context.Context, recipientID string) error
}

// MongoNotificationRepository implements NotificationRepository for MongoDB
type MongoNotificationRepository struct {
	collection *mongo.Collection
}

// NewMongoNotificationRepository creates a new MongoNotificationRepository
func NewMongoNotificationRepository(db *mongo.Database) *MongoNotificationRepository {
	return &MongoNotificationRepository{collection: db.Collection("notifications")}
}

// CreateNotification persists a single unread notification record
func (r *MongoNotificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	notification.ID = primitive.NewObjectID()
	notification.Read = false
	notification.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, notification)
	return err
}

// GetByRecipient returns a page of the recipient's notifications, newest
// first, with the total count.
func (r *MongoNotificationRepository) GetByRecipient(ctx context.Context, recipientID string, page, limit int64) ([]models.Notification, int64, error) {
	objID, err := primitive.ObjectIDFromHex(recipientID)
	if err != nil {
		return nil, 0, models.ErrNotFound
	}

	filter := bson.M{"recipient_id": objID}
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

// GetUnreadCount returns the recipient's unread notification count
func (r *MongoNotificationRepository) GetUnreadCount(ctx context.Context, recipientID string) (int64, error) {
	objID, err := primitive.ObjectIDFromHex(recipientID)
	if err != nil {
		return 0, models.ErrNotFound
	}
	return r.collection.CountDocuments(ctx, bson.M{"recipient_id": objID, "read": false})
}

// MarkAsRead flips a notification's read flag. Re-marking an already-read
// notification is a no-op; a notification belonging to someone else is
// ErrNotFound.
func (r *MongoNotificationRepository) MarkAsRead(ctx context.Context, notificationID, recipientID string) error {
	objID, err := primitive.ObjectIDFromHex(notificationID)
	if err != nil {
		return models.ErrNotFound
	}
	recipientOID, err := primitive.ObjectIDFromHex(recipientID)
	if err != nil {
		return models.ErrNotFound
	}

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID, "recipient_id": recipientOID},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// MarkAllAsRead flips every unread notification of the recipient; calling
// it again is a no-op.
func (r *MongoNotificationRepository) MarkAllAsRead(ctx context.Context, recipientID string) error {
	objID, err := primitive.ObjectIDFromHex(recipientID)
	if err != nil {
		return models.ErrNotFound
	}
	_, err = r.collection.UpdateMany(ctx,
		bson.M{"recipient_id": objID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	return err
}
