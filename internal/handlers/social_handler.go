package handlers

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/waveline-app/backend/internal/models"
	"github.com/waveline-app/backend/internal/repositories"
	"github.com/waveline-app/backend/internal/services"
)

// SocialHandler handles the user-to-user follow graph
type SocialHandler struct {
	userRepository      repositories.UserRepository
	notificationService *services.NotificationService
	analyticsRepository repositories.AnalyticsRepository
}

// NewSocialHandler creates a new SocialHandler
func NewSocialHandler(userRepo repositories.UserRepository, notifService *services.NotificationService, analyticsRepo repositories.AnalyticsRepository) *SocialHandler {
	return &SocialHandler{
		userRepository:      userRepo,
		notificationService: notifService,
		analyticsRepository: analyticsRepo,
	}
}

// RegisterSocialRoutes registers follow-graph routes
func (h *SocialHandler) RegisterSocialRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)
}

// FollowUser adds a follow edge; both sides of the graph move together.
func (h *SocialHandler) FollowUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	targetID := c.Param("id")

	ctx := c.Request().Context()
	actor, target, err := h.userRepository.Follow(ctx, currentUserID, targetID)
	if err != nil {
		return domainHTTPError(err)
	}

	// Notification and analytics are side effects; failures never undo the edge.
	if _, err := h.notificationService.Notify(ctx, services.NotifyInput{
		RecipientID: target.ID,
		SenderID:    actor.ID,
		Type:        models.NotificationFollow,
		Message:     actor.Username + " started following you",
	}); err != nil {
		log.Printf("follow: notification for %s failed: %v", target.ID.Hex(), err)
	}
	if h.analyticsRepository != nil {
		if err := h.analyticsRepository.Track(&models.AnalyticsEntry{UserID: currentUserID, Type: "follow"}); err != nil {
			log.Printf("follow: analytics track failed: %v", err)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{
		"following": actor.Following,
		"followers": target.Followers,
	}})
}

// UnfollowUser removes a follow edge; no notification is sent and none is
// retracted.
func (h *SocialHandler) UnfollowUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	targetID := c.Param("id")

	actor, target, err := h.userRepository.Unfollow(c.Request().Context(), currentUserID, targetID)
	if err != nil {
		return domainHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{
		"following": actor.Following,
		"followers": target.Followers,
	}})
}

// GetFollowers returns the user's followers as compact profiles
func (h *SocialHandler) GetFollowers(c echo.Context) error {
	followers, err := h.userRepository.GetFollowers(c.Request().Context(), c.Param("id"))
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": followers})
}

// GetFollowing returns the users this user follows as compact profiles
func (h *SocialHandler) GetFollowing(c echo.Context) error {
	following, err := h.userRepository.GetFollowing(c.Request().Context(), c.Param("id"))
	if err != nil {
		return domainHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": following})
}
