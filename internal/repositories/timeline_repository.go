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

// TimelineRepository defines the interface for timeline data operations
type TimelineRepository interface {
	CreateTimeline(ctx context.Context, timeline *models.Timeline) error
	GetTimelineByID(ctx context.Context, id string) (*models.Timeline, error)
	GetTimelinesByUser(ctx context.Context, userID string, skip, limit int64) ([]models.Timeline, error)
	UpdateTimeline(ctx context.Context, id, ownerID string, req *models.UpdateTimelineRequest) (*models.Timeline, error)
	DeleteTimeline(ctx context.Context, id, ownerID string) error

	ToggleFollow(ctx context.Context, timelineID, userID string) (bool, *models.Timeline, error)
}

// MongoTimelineRepository implements TimelineRepository for MongoDB
type MongoTimelineRepository struct {
	collection *mongo.Collection
}

// NewMongoTimelineRepository creates a new MongoTimelineRepository
func NewMongoTimelineRepository(db *mongo.Database) *MongoTimelineRepository {
	return &MongoTimelineRepository{collection: db.Collection("timelines")}
}

// CreateTimeline creates a new timeline with an empty follower set
func (r *MongoTimelineRepository) CreateTimeline(ctx context.Context, timeline *models.Timeline) error {
	timeline.ID = primitive.NewObjectID()
	if timeline.Followers == nil {
		timeline.Followers = []primitive.ObjectID{}
	}
	if timeline.Visibility == "" {
		timeline.Visibility = "public"
	}
	timeline.CreatedAt = time.Now()
	timeline.UpdatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, timeline)
	return err
}

// GetTimelineByID retrieves a timeline by ID
func (r *MongoTimelineRepository) GetTimelineByID(ctx context.Context, id string) (*models.Timeline, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid timeline ID format: %w", models.ErrNotFound)
	}

	var timeline models.Timeline
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&timeline)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &timeline, nil
}

// GetTimelinesByUser retrieves a user's timelines, newest first
func (r *MongoTimelineRepository) GetTimelinesByUser(ctx context.Context, userID string, skip, limit int64) ([]models.Timeline, error) {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, models.ErrNotFound
	}

	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": objID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	timelines := []models.Timeline{}
	if err = cursor.All(ctx, &timelines); err != nil {
		return nil, err
	}
	return timelines, nil
}

// UpdateTimeline applies the non-empty fields for the owning user
func (r *MongoTimelineRepository) UpdateTimeline(ctx context.Context, id, ownerID string, req *models.UpdateTimelineRequest) (*models.Timeline, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}
	ownerOID, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return nil, models.ErrNotFound
	}

	set := bson.M{"updated_at": time.Now()}
	if req.Title != "" {
		set["title"] = req.Title
	}
	if req.Description != "" {
		set["description"] = req.Description
	}
	if req.Visibility != "" {
		set["visibility"] = req.Visibility
	}
	if req.Tags != nil {
		set["tags"] = req.Tags
	}

	var timeline models.Timeline
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": objID, "user_id": ownerOID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&timeline)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			return nil, err
		}
		if exists := r.collection.FindOne(ctx, bson.M{"_id": objID}).Err(); exists == nil {
			return nil, models.ErrForbidden
		}
		return nil, models.ErrNotFound
	}
	return &timeline, nil
}

// DeleteTimeline deletes a timeline owned by ownerID
func (r *MongoTimelineRepository) DeleteTimeline(ctx context.Context, id, ownerID string) error {
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

// ToggleFollow flips the user's membership in the timeline's follower set,
// using the same conditional insert-if-absent / remove-if-present pair as
// event likes. This set is independent of the user-to-user follow graph.
func (r *MongoTimelineRepository) ToggleFollow(ctx context.Context, timelineID, userID string) (bool, *models.Timeline, error) {
	objID, err := primitive.ObjectIDFromHex(timelineID)
	if err != nil {
		return false, nil, models.ErrNotFound
	}
	userOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return false, nil, models.ErrNotFound
	}

	after := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var timeline models.Timeline
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": objID, "followers": bson.M{"$ne": userOID}},
		bson.M{"$addToSet": bson.M{"followers": userOID}},
		after,
	).Decode(&timeline)
	if err == nil {
		return true, &timeline, nil
	}
	if err != mongo.ErrNoDocuments {
		return false, nil, err
	}

	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": objID, "followers": userOID},
		bson.M{"$pull": bson.M{"followers": userOID}},
		after,
	).Decode(&timeline)
	if err == nil {
		return false, &timeline, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil, models.ErrNotFound
	}
	return false, nil, err
}
