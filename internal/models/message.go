package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is a direct message between two users, stored in MongoDB.
// DeletedFor only ever grows: a message is visible to a participant until
// they soft-delete it, and is never purged from the collection.
type Message struct {
	ID          primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	SenderID    primitive.ObjectID   `json:"sender_id" bson:"sender_id"`
	RecipientID primitive.ObjectID   `json:"recipient_id" bson:"recipient_id"`
	Content     string               `json:"content" bson:"content"`
	Read        bool                 `json:"read" bson:"read"`
	Media       string               `json:"media,omitempty" bson:"media,omitempty"`
	MediaType   string               `json:"media_type,omitempty" bson:"media_type,omitempty"`
	DeletedFor  []primitive.ObjectID `json:"-" bson:"deleted_for"`
	CreatedAt   time.Time            `json:"created_at" bson:"created_at"`
}

// Conversation is a derived per-counterpart view, never persisted: the most
// recent message not deleted by the viewer plus the viewer's unread count.
type Conversation struct {
	User        UserCompact `json:"user" bson:"user"`
	LastMessage Message     `json:"last_message" bson:"last_message"`
	UnreadCount int         `json:"unread_count" bson:"unread_count"`
}

type SendMessageRequest struct {
	Recipient string `json:"recipient" validate:"required"`
	Content   string `json:"content" validate:"required,min=1,max=2000"`
	Media     string `json:"media,omitempty" validate:"omitempty,url"`
	MediaType string `json:"media_type,omitempty" validate:"omitempty,oneof=image video"`
}
