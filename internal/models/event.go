package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Media is a reference to an already-uploaded file. Transcoding and storage
// happen upstream; events only carry the resulting URL.
type Media struct {
	Type string `json:"type" bson:"type"` // image, video
	URL  string `json:"url" bson:"url"`
}

// Comment is embedded in its event document.
type Comment struct {
	ID        primitive.ObjectID `json:"id" bson:"_id"`
	UserID    primitive.ObjectID `json:"user_id" bson:"user_id"`
	Text      string             `json:"text" bson:"text"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// Event is a single entry on a timeline, stored in MongoDB. Likes is a set of
// user ids; membership is mutated only through conditional updates so
// concurrent toggles never lose writes.
type Event struct {
	ID          primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	TimelineID  primitive.ObjectID   `json:"timeline_id" bson:"timeline_id"`
	UserID      primitive.ObjectID   `json:"user_id" bson:"user_id"` // timeline owner, denormalized
	Title       string               `json:"title" bson:"title"`
	Description string               `json:"description" bson:"description"`
	Date        time.Time            `json:"date" bson:"date"`
	Media       []Media              `json:"media,omitempty" bson:"media,omitempty"`
	Location    string               `json:"location,omitempty" bson:"location,omitempty"`
	Category    string               `json:"category" bson:"category"`
	Likes       []primitive.ObjectID `json:"likes" bson:"likes"`
	Comments    []Comment            `json:"comments" bson:"comments"`
	Visibility  string               `json:"visibility" bson:"visibility"`
	CreatedAt   time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at" bson:"updated_at"`
}

type CreateEventRequest struct {
	TimelineID  string  `json:"timeline_id" validate:"required"`
	Title       string  `json:"title" validate:"required,min=1,max=100"`
	Description string  `json:"description,omitempty" validate:"omitempty,max=1000"`
	Date        string  `json:"date" validate:"required"`
	Media       []Media `json:"media,omitempty"`
	Location    string  `json:"location,omitempty" validate:"omitempty,max=100"`
	Category    string  `json:"category" validate:"required,oneof=achievement birthday career personal relationship travel other"`
	Visibility  string  `json:"visibility,omitempty" validate:"omitempty,oneof=public private followers"`
}

type AddCommentRequest struct {
	Text string `json:"text" validate:"required,min=1,max=500"`
}
