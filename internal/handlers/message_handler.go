package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/waveline-app/backend/internal/models"
	"github.com/waveline-app/backend/internal/repositories"
	"github.com/waveline-app/backend/internal/services"
)

// MessageHandler handles direct messages and their conversation views
type MessageHandler struct {
	messageRepository   repositories.MessageRepository
	userRepository      repositories.UserRepository
	notificationService *services.NotificationService
	registry            services.Registry
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(
	messageRepo repositories.MessageRepository,
	userRepo repositories.UserRepository,
	notifService *services.NotificationService,
	registry services.Registry,
) *MessageHandler {
	return &MessageHandler{
		messageRepository:   messageRepo,
		userRepository:      userRepo,
		notificationService: notifService,
		registry:            registry,
	}
}

// RegisterMessageRoutes registers messaging routes
func (h *MessageHandler) RegisterMessageRoutes(g *echo.Group) {
	g.POST("/messages", h.SendMessage)
	g.GET("/messages/conversations", h.GetConversations)
	g.GET("/messages/:user_id", h.GetMessages)
	g.DELETE("/messages/:id", h.DeleteMessage)
}

// SendMessage creates a message, fans out a notification and pushes the
// message to the recipient's live channels. Push failures never fail the
// send.
func (h *MessageHandler) SendMessage(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	sender, err := h.userRepository.GetUserByID(ctx, currentUserID)
	if err != nil {
		return domainHTTPError(err)
	}
	recipient, err := h.userRepository.GetUserByID(ctx, req.Recipient)
	if err != nil {
		return domainHTTPError(err)
	}

	message := &models.Message{
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
		Content:     req.Content,
		Media:       req.Media,
		MediaType:   req.MediaType,
	}
	if err := h.messageRepository.CreateMessage(ctx, message); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if _, err := h.notificationService.Notify(ctx, services.NotifyInput{
		RecipientID: recipient.ID,
		SenderID:    sender.ID,
		Type:        models.NotificationMessage,
		Message:     sender.Username + " sent you a message",
	}); err != nil {
		log.Printf("message: notification for %s failed: %v", recipient.ID.Hex(), err)
	}
	h.registry.SendToUser(recipient.ID.Hex(), "newMessage", message)

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": message})
}

// GetMessages returns the thread with a counterpart in chronological order,
// marking every message from the counterpart as read and pushing a read
// receipt to the counterpart's channels.
func (h *MessageHandler) GetMessages(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	counterpartID := c.Param("user_id")

	page, _ := strconv.ParseInt(c.QueryParam("page"), 10, 64)
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	ctx := c.Request().Context()
	messages, err := h.messageRepository.GetMessagesBetween(ctx, currentUserID, counterpartID, page, limit)
	if err != nil {
		return domainHTTPError(err)
	}

	flipped, err := h.messageRepository.MarkConversationRead(ctx, currentUserID, counterpartID)
	if err != nil {
		log.Printf("messages: mark read for %s failed: %v", counterpartID, err)
	} else if flipped > 0 {
		for i := range messages {
			if messages[i].SenderID.Hex() == counterpartID {
				messages[i].Read = true
			}
		}
		h.registry.SendToUser(counterpartID, "messagesRead", currentUserID)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": messages})
}

// GetConversations returns one aggregate row per counterpart, most recent
// first; always succeeds, possibly empty.
func (h *MessageHandler) GetConversations(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	conversations, err := h.messageRepository.GetConversations(c.Request().Context(), currentUserID)
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": conversations})
}

// DeleteMessage soft-deletes a message for the caller only; the counterpart
// keeps their view.
func (h *MessageHandler) DeleteMessage(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	if err := h.messageRepository.SoftDelete(c.Request().Context(), c.Param("id"), currentUserID); err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": nil})
}
