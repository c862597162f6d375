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

// TimelineHandler handles timeline HTTP requests, including the
// content-follow toggle.
type TimelineHandler struct {
	timelineRepository  repositories.TimelineRepository
	userRepository      repositories.UserRepository
	notificationService *services.NotificationService
	registry            services.Registry
	analyticsRepository repositories.AnalyticsRepository
}

// NewTimelineHandler creates a new TimelineHandler
func NewTimelineHandler(
	timelineRepo repositories.TimelineRepository,
	userRepo repositories.UserRepository,
	notifService *services.NotificationService,
	registry services.Registry,
	analyticsRepo repositories.AnalyticsRepository,
) *TimelineHandler {
	return &TimelineHandler{
		timelineRepository:  timelineRepo,
		userRepository:      userRepo,
		notificationService: notifService,
		registry:            registry,
		analyticsRepository: analyticsRepo,
	}
}

// RegisterTimelineRoutes registers timeline-related routes
func (h *TimelineHandler) RegisterTimelineRoutes(g *echo.Group) {
	g.POST("/timelines", h.CreateTimeline)
	g.GET("/timelines/:id", h.GetTimeline)
	g.PUT("/timelines/:id", h.UpdateTimeline)
	g.DELETE("/timelines/:id", h.DeleteTimeline)
	g.POST("/timelines/:id/follow", h.ToggleFollow)
	g.GET("/users/:id/timelines", h.GetUserTimelines)
	g.GET("/timelines/:id/analytics", h.GetTimelineAnalytics)
}

// CreateTimeline creates a timeline owned by the caller
func (h *TimelineHandler) CreateTimeline(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateTimelineRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	owner, err := h.userRepository.GetUserByID(c.Request().Context(), currentUserID)
	if err != nil {
		return domainHTTPError(err)
	}

	timeline := &models.Timeline{
		UserID:      owner.ID,
		Title:       req.Title,
		Description: req.Description,
		Visibility:  req.Visibility,
		Tags:        req.Tags,
	}
	if err := h.timelineRepository.CreateTimeline(c.Request().Context(), timeline); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": timeline})
}

// GetTimeline returns a timeline, honoring private visibility
func (h *TimelineHandler) GetTimeline(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	timeline, err := h.timelineRepository.GetTimelineByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return domainHTTPError(err)
	}
	if timeline.Visibility == "private" && timeline.UserID.Hex() != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "You do not have permission to view this timeline")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": timeline})
}

// UpdateTimeline applies changes to a timeline the caller owns
func (h *TimelineHandler) UpdateTimeline(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.UpdateTimelineRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	timeline, err := h.timelineRepository.UpdateTimeline(c.Request().Context(), c.Param("id"), currentUserID, &req)
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": timeline})
}

// DeleteTimeline deletes a timeline the caller owns
func (h *TimelineHandler) DeleteTimeline(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	if err := h.timelineRepository.DeleteTimeline(c.Request().Context(), c.Param("id"), currentUserID); err != nil {
		return domainHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ToggleFollow flips the caller's membership in the timeline's follower
// set. The notification policy matches event likes: only absent-to-present
// notifies the owner, nothing is ever retracted.
func (h *TimelineHandler) ToggleFollow(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	timelineID := c.Param("id")

	ctx := c.Request().Context()
	following, timeline, err := h.timelineRepository.ToggleFollow(ctx, timelineID, currentUserID)
	if err != nil {
		return domainHTTPError(err)
	}

	if following && timeline.UserID.Hex() != currentUserID {
		actor, aerr := h.userRepository.GetUserByID(ctx, currentUserID)
		if aerr != nil {
			log.Printf("timeline follow: actor lookup failed: %v", aerr)
		} else if _, nerr := h.notificationService.Notify(ctx, services.NotifyInput{
			RecipientID: timeline.UserID,
			SenderID:    actor.ID,
			Type:        models.NotificationTimelineFollow,
			TimelineID:  timeline.ID,
			Message:     actor.Username + " started following your timeline",
		}); nerr != nil {
			log.Printf("timeline follow: notification for %s failed: %v", timeline.UserID.Hex(), nerr)
		}
	}

	h.registry.Broadcast("timeline:"+timeline.ID.Hex(), "timelineUpdate", echo.Map{
		"type": "follow",
		"user": currentUserID,
	})

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{
		"following": following,
		"count":     len(timeline.Followers),
	}})
}

// GetUserTimelines returns a page of a user's timelines
func (h *TimelineHandler) GetUserTimelines(c echo.Context) error {
	page, _ := strconv.ParseInt(c.QueryParam("page"), 10, 64)
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	timelines, err := h.timelineRepository.GetTimelinesByUser(c.Request().Context(), c.Param("id"), (page-1)*limit, limit)
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": timelines})
}

// GetTimelineAnalytics returns per-day engagement counts to the timeline owner
func (h *TimelineHandler) GetTimelineAnalytics(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	if h.analyticsRepository == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Analytics not configured")
	}

	timeline, err := h.timelineRepository.GetTimelineByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return domainHTTPError(err)
	}
	if timeline.UserID.Hex() != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "Timeline not owned by this user")
	}

	to := time.Now()
	from := to.AddDate(0, 0, -30)
	if v := c.QueryParam("from"); v != "" {
		if parsed, err := time.Parse("2006-01-02", v); err == nil {
			from = parsed
		}
	}
	if v := c.QueryParam("to"); v != "" {
		if parsed, err := time.Parse("2006-01-02", v); err == nil {
			to = parsed
		}
	}

	buckets, err := h.analyticsRepository.GetTimelineStats(timeline.ID.Hex(), from, to)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": buckets})
}
