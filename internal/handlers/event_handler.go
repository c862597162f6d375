package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/waveline-app/backend/internal/models"
	"github.com/waveline-app/backend/internal/repositories"
	"github.com/waveline-app/backend/internal/services"
)

// EventHandler handles event HTTP requests, including the like toggle and
// comments.
type EventHandler struct {
	eventRepository     repositories.EventRepository
	timelineRepository  repositories.TimelineRepository
	userRepository      repositories.UserRepository
	notificationService *services.NotificationService
	registry            services.Registry
	analyticsRepository repositories.AnalyticsRepository
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(
	eventRepo repositories.EventRepository,
	timelineRepo repositories.TimelineRepository,
	userRepo repositories.UserRepository,
	notifService *services.NotificationService,
	registry services.Registry,
	analyticsRepo repositories.AnalyticsRepository,
) *EventHandler {
	return &EventHandler{
		eventRepository:     eventRepo,
		timelineRepository:  timelineRepo,
		userRepository:      userRepo,
		notificationService: notifService,
		registry:            registry,
		analyticsRepository: analyticsRepo,
	}
}

// RegisterEventRoutes registers event-related routes
func (h *EventHandler) RegisterEventRoutes(g *echo.Group) {
	g.POST("/events", h.CreateEvent)
	g.GET("/events/:id", h.GetEvent)
	g.DELETE("/events/:id", h.DeleteEvent)
	g.POST("/events/:id/like", h.ToggleLike)
	g.POST("/events/:id/comments", h.AddComment)
	g.DELETE("/events/:id/comments/:comment_id", h.DeleteComment)
	g.GET("/timelines/:id/events", h.GetTimelineEvents)
}

// CreateEvent creates an event on a timeline the caller owns. Media must
// already be uploaded; the event only references the resulting URLs.
func (h *EventHandler) CreateEvent(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	timeline, err := h.timelineRepository.GetTimelineByID(ctx, req.TimelineID)
	if err != nil {
		return domainHTTPError(err)
	}
	if timeline.UserID.Hex() != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "Timeline not owned by this user")
	}

	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid date format, expected RFC3339")
	}

	event := &models.Event{
		TimelineID:  timeline.ID,
		UserID:      timeline.UserID,
		Title:       req.Title,
		Description: req.Description,
		Date:        date,
		Media:       req.Media,
		Location:    req.Location,
		Category:    req.Category,
		Visibility:  req.Visibility,
	}
	if event.Visibility == "" {
		event.Visibility = timeline.Visibility
	}
	if err := h.eventRepository.CreateEvent(ctx, event); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.registry.Broadcast("timeline:"+timeline.ID.Hex(), "timelineUpdate", echo.Map{
		"type": "event_created",
		"user": currentUserID,
	})

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": event})
}

// GetEvent returns a single event
func (h *EventHandler) GetEvent(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	event, err := h.eventRepository.GetEventByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return domainHTTPError(err)
	}

	if h.analyticsRepository != nil && currentUserID != "" {
		if err := h.analyticsRepository.Track(&models.AnalyticsEntry{
			UserID:     currentUserID,
			TimelineID: event.TimelineID.Hex(),
			EventID:    event.ID.Hex(),
			Type:       "view",
		}); err != nil {
			log.Printf("event view: analytics track failed: %v", err)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": event})
}

// GetTimelineEvents returns a page of a timeline's events
func (h *EventHandler) GetTimelineEvents(c echo.Context) error {
	page, _ := strconv.ParseInt(c.QueryParam("page"), 10, 64)
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	events, err := h.eventRepository.GetEventsByTimeline(c.Request().Context(), c.Param("id"), (page-1)*limit, limit)
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": events})
}

// DeleteEvent deletes an event the caller owns
func (h *EventHandler) DeleteEvent(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	if err := h.eventRepository.DeleteEvent(c.Request().Context(), c.Param("id"), currentUserID); err != nil {
		return domainHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ToggleLike flips the caller's like on the event and reports the new
// state. Only the absent-to-present transition notifies the owner, and the
// reverse transition retracts nothing; the resulting state is reported even
// when the notification silently failed.
func (h *EventHandler) ToggleLike(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	eventID := c.Param("id")

	ctx := c.Request().Context()
	liked, event, err := h.eventRepository.ToggleLike(ctx, eventID, currentUserID)
	if err != nil {
		return domainHTTPError(err)
	}

	if liked && event.UserID.Hex() != currentUserID {
		actor, aerr := h.userRepository.GetUserByID(ctx, currentUserID)
		if aerr != nil {
			log.Printf("like: actor lookup failed: %v", aerr)
		} else if _, nerr := h.notificationService.Notify(ctx, services.NotifyInput{
			RecipientID: event.UserID,
			SenderID:    actor.ID,
			Type:        models.NotificationLike,
			EventID:     event.ID,
			TimelineID:  event.TimelineID,
			Message:     actor.Username + " liked your event",
		}); nerr != nil {
			log.Printf("like: notification for %s failed: %v", event.UserID.Hex(), nerr)
		}
	}

	action := "unliked"
	if liked {
		action = "liked"
	}
	h.registry.Broadcast("timeline:"+event.TimelineID.Hex(), "eventUpdate", echo.Map{
		"type":   "like",
		"user":   currentUserID,
		"action": action,
	})
	if liked && h.analyticsRepository != nil {
		if err := h.analyticsRepository.Track(&models.AnalyticsEntry{
			UserID:     currentUserID,
			TimelineID: event.TimelineID.Hex(),
			EventID:    event.ID.Hex(),
			Type:       "like",
		}); err != nil {
			log.Printf("like: analytics track failed: %v", err)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{
		"liked": liked,
		"count": len(event.Likes),
	}})
}

// AddComment appends a comment and notifies the event owner
func (h *EventHandler) AddComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	eventID := c.Param("id")

	var req models.AddCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	event, err := h.eventRepository.AddComment(ctx, eventID, currentUserID, req.Text)
	if err != nil {
		return domainHTTPError(err)
	}

	if event.UserID.Hex() != currentUserID {
		actor, aerr := h.userRepository.GetUserByID(ctx, currentUserID)
		if aerr != nil {
			log.Printf("comment: actor lookup failed: %v", aerr)
		} else if _, nerr := h.notificationService.Notify(ctx, services.NotifyInput{
			RecipientID: event.UserID,
			SenderID:    actor.ID,
			Type:        models.NotificationComment,
			EventID:     event.ID,
			TimelineID:  event.TimelineID,
			Message:     actor.Username + " commented on your event",
		}); nerr != nil {
			log.Printf("comment: notification for %s failed: %v", event.UserID.Hex(), nerr)
		}
	}

	h.registry.Broadcast("timeline:"+event.TimelineID.Hex(), "eventUpdate", echo.Map{
		"type":    "comment",
		"user":    currentUserID,
		"comment": req.Text,
	})
	if h.analyticsRepository != nil {
		if err := h.analyticsRepository.Track(&models.AnalyticsEntry{
			UserID:     currentUserID,
			TimelineID: event.TimelineID.Hex(),
			EventID:    event.ID.Hex(),
			Type:       "comment",
		}); err != nil {
			log.Printf("comment: analytics track failed: %v", err)
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": event})
}

// DeleteComment removes a comment owned by the caller
func (h *EventHandler) DeleteComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	event, err := h.eventRepository.DeleteComment(c.Request().Context(), c.Param("id"), c.Param("comment_id"), currentUserID)
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": event})
}
