package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/waveline-app/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EventRepository defines the interface for event data operations
type EventRepository interface {
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	GetEventsByTimeline(ctx context.Context, timelineID string, skip, limit int64) ([]models.Event, error)
	DeleteEvent(ctx context.Context, id, ownerID string) error

	ToggleLike(ctx context.Context, eventID, userID string) (bool, *models.Event, error)
	AddComment(ctx context.Context, eventID, userID, text string) (*models.Event, error)
	DeleteComment(ctx context.Context, eventID, commentID, userID string) (*models.Event, error)
}

// MongoEventRepository implements EventRepository for MongoDB
type MongoEventRepository struct {
	collection *mongo.Collection
}

// NewMongoEventRepository creates a new MongoEventRepository
func NewMongoEventRepository(db *mongo.Database) *MongoEventRepository {
	return &MongoEventRepository{collection: db.Collection("events")}
}

// CreateEvent creates a new event with empty like and comment sets
func (r *MongoEventRepository) CreateEvent(ctx context.Context, event *models.Event) error {
	event.ID = primitive.NewObjectID()
	if event.Likes == nil {
		event.Likes = []primitive.ObjectID{}
	}
	if event.Comments == nil {
		event.Comments = []models.Comment{}
	}
	event.CreatedAt = time.Now()
	event.UpdatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, event)
	return err
}

// GetEventByID retrieves an event by ID
func (r *MongoEventRepository) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid event ID format: %w", models.ErrNotFound)
	}

	var event models.Event
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&event)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

// GetEventsByTimeline retrieves a timeline's events, newest first
func (r *MongoEventRepository) GetEventsByTimeline(ctx context.Context, timelineID string, skip, limit int64) ([]models.Event, error) {
	objID, err := primitive.ObjectIDFromHex(timelineID)
	if err != nil {
		return nil, models.ErrNotFound
	}

	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"timeline_id": objID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	events := []models.Event{}
	if err = cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// DeleteEvent deletes an event owned by ownerID
func (r *MongoEventRepository) DeleteEvent(ctx context.Context, id, ownerID string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ErrNotFound
	}
	ownerOID, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return models.ErrNotFound
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID, "user_id": ownerOID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		if exists := r.collection.FindOne(ctx, bson.M{"_id": objID}).Err(); exists == nil {
			return models.ErrForbidden
		}
		return models.ErrNotFound
	}
	return nil
}

// ToggleLike flips the user's membership in the event's like set and returns
// the new state plus the updated event. The flip is two conditional updates,
// insert-if-absent then remove-if-present, each carrying the membership
// predicate in its filter, so concurrent toggles by different users never
// lose an update.
func (r *MongoEventRepository) ToggleLike(ctx context.Context, eventID, userID string) (bool, *models.Event, error) {
	objID, err := primitive.ObjectIDFromHex(eventID)
	if err != nil {
		return false, nil, models.ErrNotFound
	}
	userOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return false, nil, models.ErrNotFound
	}

	after := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var event models.Event
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": objID, "likes": bson.M{"$ne": userOID}},
		bson.M{"$addToSet": bson.M{"likes": userOID}},
		after,
	).Decode(&event)
	if err == nil {
		return true, &event, nil
	}
	if err != mongo.ErrNoDocuments {
		return false, nil, err
	}

	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": objID, "likes": userOID},
		bson.M{"$pull": bson.M{"likes": userOID}},
		after,
	).Decode(&event)
	if err == nil {
		return false, &event, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil, models.ErrNotFound
	}
	return false, nil, err
}

// AddComment appends a comment to the event and returns the updated event
func (r *MongoEventRepository) AddComment(ctx context.Context, eventID, userID, text string) (*models.Event, error) {
	objID, err := primitive.ObjectIDFromHex(eventID)
	if err != nil {
		return nil, models.ErrNotFound
	}
	userOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, models.ErrNotFound
	}

	comment := models.Comment{
		ID:        primitive.NewObjectID(),
		UserID:    userOID,
		Text:      text,
		CreatedAt: time.Now(),
	}

	var event models.Event
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": objID},
		bson.M{"$push": bson.M{"comments": comment}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&event)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

// DeleteComment removes a comment owned by userID from the event. The pull
// filter matches on both comment id and author, so only the owner's delete
// modifies the document.
func (r *MongoEventRepository) DeleteComment(ctx context.Context, eventID, commentID, userID string) (*models.Event, error) {
	objID, err := primitive.ObjectIDFromHex(eventID)
	if err != nil {
		return nil, models.ErrNotFound
	}
	commentOID, err := primitive.ObjectIDFromHex(commentID)
	if err != nil {
		return nil, models.ErrNotFound
	}
	userOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, models.ErrNotFound
	}

	var event models.Event
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": objID, "comments": bson.M{"$elemMatch": bson.M{"_id": commentOID, "user_id": userOID}}},
		bson.M{"$pull": bson.M{"comments": bson.M{"_id": commentOID}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&event)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			return nil, err
		}
		// Comment present but owned by someone else is Forbidden.
		filter := bson.M{"_id": objID, "comments._id": commentOID}
		if exists := r.collection.FindOne(ctx, filter).Err(); exists == nil {
			return nil, models.ErrForbidden
		}
		return nil, models.ErrNotFound
	}
	return &event, nil
}
