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

// UserRepository defines the interface for user data operations, including
// the symmetric follow graph between users.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, req *models.UpdateProfileRequest) (*models.User, error)
	SearchUsers(ctx context.Context, query string, limit int64) ([]models.UserCompact, error)

	Follow(ctx context.Context, actorID, targetID string) (*models.User, *models.User, error)
	Unfollow(ctx context.Context, actorID, targetID string) (*models.User, *models.User, error)
	GetFollowers(ctx context.Context, id string) ([]models.UserCompact, error)
	GetFollowing(ctx context.Context, id string) ([]models.UserCompact, error)
}

// MongoUserRepository implements UserRepository for MongoDB
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new MongoUserRepository
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection("users")}
}

// CreateUser creates a new user with empty follow sets
func (r *MongoUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	if user.Following == nil {
		user.Following = []primitive.ObjectID{}
	}
	if user.Followers == nil {
		user.Followers = []primitive.ObjectID{}
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, user)
	return err
}

// GetUserByID retrieves a user by ID
func (r *MongoUserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID format: %w", models.ErrNotFound)
	}

	var user models.User
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email
func (r *MongoUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByGoogleID retrieves a user linked to a Google account
func (r *MongoUserRepository) GetUserByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"google_id": googleID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateProfile applies the non-empty profile fields and returns the updated user
func (r *MongoUserRepository) UpdateProfile(ctx context.Context, id string, req *models.UpdateProfileRequest) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}

	set := bson.M{"updated_at": time.Now()}
	if req.DisplayName != "" {
		set["display_name"] = req.DisplayName
	}
	if req.ProfilePicture != "" {
		set["profile_picture"] = req.ProfilePicture
	}
	if req.Bio != "" {
		set["bio"] = req.Bio
	}

	var user models.User
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": objID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// SearchUsers searches for users by username or display name (case-insensitive)
func (r *MongoUserRepository) SearchUsers(ctx context.Context, query string, limit int64) ([]models.UserCompact, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"username": bson.M{"$regex": query, "$options": "i"}},
		bson.M{"display_name": bson.M{"$regex": query, "$options": "i"}},
	}}
	findOptions := options.Find().
		SetLimit(limit).
		SetProjection(bson.M{"username": 1, "display_name": 1, "profile_picture": 1})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []models.UserCompact{}
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Follow adds target to actor.following and actor to target.followers.
// The actor-side update carries the not-yet-following predicate in its
// filter, so the duplicate check and the insert are a single atomic step;
// a failure on the target side is compensated by pulling the actor side
// back out, keeping the two sets mirrored.
func (r *MongoUserRepository) Follow(ctx context.Context, actorID, targetID string) (*models.User, *models.User, error) {
	if actorID == targetID {
		return nil, nil, fmt.Errorf("cannot follow yourself: %w", models.ErrInvalidOperation)
	}
	actorOID, err := primitive.ObjectIDFromHex(actorID)
	if err != nil {
		return nil, nil, models.ErrNotFound
	}
	targetOID, err := primitive.ObjectIDFromHex(targetID)
	if err != nil {
		return nil, nil, models.ErrNotFound
	}

	// Target must exist before the actor document is touched.
	if err := r.collection.FindOne(ctx, bson.M{"_id": targetOID}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err(); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil, models.ErrNotFound
		}
		return nil, nil, err
	}

	var actor models.User
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": actorOID, "following": bson.M{"$ne": targetOID}},
		bson.M{"$addToSet": bson.M{"following": targetOID}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&actor)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			// Actor missing or edge already present; disambiguate.
			if exists := r.collection.FindOne(ctx, bson.M{"_id": actorOID}).Err(); exists == mongo.ErrNoDocuments {
				return nil, nil, models.ErrNotFound
			}
			return nil, nil, fmt.Errorf("already following this user: %w", models.ErrConflict)
		}
		return nil, nil, err
	}

	var target models.User
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": targetOID},
		bson.M{"$addToSet": bson.M{"followers": actorOID}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&target)
	if err != nil {
		// Compensate the actor side so the invariant holds.
		_, _ = r.collection.UpdateOne(ctx, bson.M{"_id": actorOID}, bson.M{"$pull": bson.M{"following": targetOID}})
		if err == mongo.ErrNoDocuments {
			return nil, nil, models.ErrNotFound
		}
		return nil, nil, err
	}
	return &actor, &target, nil
}

// Unfollow removes both sides of the follow edge. The actor-side pull is
// conditional on the edge existing; a missing edge is ErrNotFound.
func (r *MongoUserRepository) Unfollow(ctx context.Context, actorID, targetID string) (*models.User, *models.User, error) {
	if actorID == targetID {
		return nil, nil, fmt.Errorf("cannot unfollow yourself: %w", models.ErrInvalidOperation)
	}
	actorOID, err := primitive.ObjectIDFromHex(actorID)
	if err != nil {
		return nil, nil, models.ErrNotFound
	}
	targetOID, err := primitive.ObjectIDFromHex(targetID)
	if err != nil {
		return nil, nil, models.ErrNotFound
	}

	var actor models.User
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": actorOID, "following": targetOID},
		bson.M{"$pull": bson.M{"following": targetOID}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&actor)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil, fmt.Errorf("not following this user: %w", models.ErrNotFound)
		}
		return nil, nil, err
	}

	var target models.User
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": targetOID},
		bson.M{"$pull": bson.M{"followers": actorOID}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&target)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return &actor, &models.User{ID: targetOID}, nil
		}
		// Compensate the actor side so the invariant holds.
		_, _ = r.collection.UpdateOne(ctx, bson.M{"_id": actorOID}, bson.M{"$addToSet": bson.M{"following": targetOID}})
		return nil, nil, err
	}
	return &actor, &target, nil
}

// GetFollowers resolves the user's followers set to compact profiles
func (r *MongoUserRepository) GetFollowers(ctx context.Context, id string) ([]models.UserCompact, error) {
	return r.resolveFollowSet(ctx, id, "followers")
}

// GetFollowing resolves the user's following set to compact profiles
func (r *MongoUserRepository) GetFollowing(ctx context.Context, id string) ([]models.UserCompact, error) {
	return r.resolveFollowSet(ctx, id, "following")
}

func (r *MongoUserRepository) resolveFollowSet(ctx context.Context, id, field string) ([]models.UserCompact, error) {
	user, err := r.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ids := user.Followers
	if field == "following" {
		ids = user.Following
	}
	if len(ids) == 0 {
		return []models.UserCompact{}, nil
	}

	findOptions := options.Find().SetProjection(bson.M{"username": 1, "display_name": 1, "profile_picture": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []models.UserCompact{}
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}
