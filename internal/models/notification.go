package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types.
const (
	NotificationFollow         = "follow"
	NotificationLike           = "like"
	NotificationComment        = "comment"
	NotificationMessage        = "message"
	NotificationTimelineFollow = "timeline_follow"
)

// Notification is an append-only record stored in MongoDB; only the read
// flag ever changes, and only from false to true.
type Notification struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	RecipientID primitive.ObjectID `json:"recipient_id" bson:"recipient_id"`
	SenderID    primitive.ObjectID `json:"sender_id" bson:"sender_id"`
	Type        string             `json:"type" bson:"type"`
	EventID     primitive.ObjectID `json:"event_id,omitempty" bson:"event_id,omitempty"`
	TimelineID  primitive.ObjectID `json:"timeline_id,omitempty" bson:"timeline_id,omitempty"`
	Message     string             `json:"message" bson:"message"`
	Read        bool               `json:"read" bson:"read"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}

// EnrichedNotification includes the sender's compact profile.
type EnrichedNotification struct {
	Notification
	Sender UserCompact `json:"sender"`
}
