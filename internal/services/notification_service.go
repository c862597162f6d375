package services

import (
	"context"

	"github.com/waveline-app/backend/internal/models"
	"github.com/waveline-app/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Registry is the part of the presence hub the service pushes through.
type Registry interface {
	SendToUser(userID, event string, data interface{})
	Broadcast(groupKey, event string, data interface{})
}

// NotifyInput describes one notification-worthy action.
type NotifyInput struct {
	RecipientID primitive.ObjectID
	SenderID    primitive.ObjectID
	Type        string
	EventID     primitive.ObjectID
	TimelineID  primitive.ObjectID
	Message     string
}

// NotificationService persists notifications and fans them out to the
// recipient's live channels. Persistence is the durability mechanism: a
// disconnected recipient finds the record on the next list call, pushes are
// never queued or retried.
type NotificationService struct {
	notifications repositories.NotificationRepository
	users         repositories.UserRepository
	registry      Registry
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notifRepo repositories.NotificationRepository, userRepo repositories.UserRepository, registry Registry) *NotificationService {
	return &NotificationService{
		notifications: notifRepo,
		users:         userRepo,
		registry:      registry,
	}
}

// Notify persists exactly one notification record, then pushes it to every
// live channel of the recipient. A persistence failure is returned to the
// caller (who logs and swallows it, never failing the primary action); push
// delivery is best-effort.
func (s *NotificationService) Notify(ctx context.Context, input NotifyInput) (*models.Notification, error) {
	notification := &models.Notification{
		RecipientID: input.RecipientID,
		SenderID:    input.SenderID,
		Type:        input.Type,
		EventID:     input.EventID,
		TimelineID:  input.TimelineID,
		Message:     input.Message,
	}
	if err := s.notifications.CreateNotification(ctx, notification); err != nil {
		return nil, err
	}

	enriched := models.EnrichedNotification{Notification: *notification}
	if sender, err := s.users.GetUserByID(ctx, input.SenderID.Hex()); err == nil {
		enriched.Sender = sender.ToCompact()
	}
	s.registry.SendToUser(notification.RecipientID.Hex(), "notification", enriched)

	return notification, nil
}
