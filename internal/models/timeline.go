package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Timeline is a user-owned collection of events stored in MongoDB. Followers
// holds the ids of users subscribed to the timeline's updates; this set is
// independent of the user-to-user follow graph.
type Timeline struct {
	ID          primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	UserID      primitive.ObjectID   `json:"user_id" bson:"user_id"`
	Title       string               `json:"title" bson:"title"`
	Description string               `json:"description" bson:"description"`
	Visibility  string               `json:"visibility" bson:"visibility"` // public, private, followers
	Followers   []primitive.ObjectID `json:"followers" bson:"followers"`
	Tags        []string             `json:"tags,omitempty" bson:"tags,omitempty"`
	CreatedAt   time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at" bson:"updated_at"`
}

type CreateTimelineRequest struct {
	Title       string   `json:"title" validate:"required,min=1,max=100"`
	Description string   `json:"description,omitempty" validate:"omitempty,max=500"`
	Visibility  string   `json:"visibility,omitempty" validate:"omitempty,oneof=public private followers"`
	Tags        []string `json:"tags,omitempty"`
}

type UpdateTimelineRequest struct {
	Title       string   `json:"title,omitempty" validate:"omitempty,min=1,max=100"`
	Description string   `json:"description,omitempty" validate:"omitempty,max=500"`
	Visibility  string   `json:"visibility,omitempty" validate:"omitempty,oneof=public private followers"`
	Tags        []string `json:"tags,omitempty"`
}
