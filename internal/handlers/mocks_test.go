package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/waveline-app/backend/internal/models"
	"github.com/waveline-app/backend/internal/validators"
)

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) CreateUser(ctx context.Context, u *models.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepo) GetUserByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return nil, nil
}

func (m *MockUserRepo) UpdateProfile(ctx context.Context, id string, req *models.UpdateProfileRequest) (*models.User, error) {
	return nil, nil
}

func (m *MockUserRepo) SearchUsers(ctx context.Context, query string, limit int64) ([]models.UserCompact, error) {
	return nil, nil
}

func (m *MockUserRepo) Follow(ctx context.Context, actorID, targetID string) (*models.User, *models.User, error) {
	args := m.Called(ctx, actorID, targetID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.User), args.Get(1).(*models.User), args.Error(2)
}

func (m *MockUserRepo) Unfollow(ctx context.Context, actorID, targetID string) (*models.User, *models.User, error) {
	args := m.Called(ctx, actorID, targetID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.User), args.Get(1).(*models.User), args.Error(2)
}

func (m *MockUserRepo) GetFollowers(ctx context.Context, id string) ([]models.UserCompact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserCompact), args.Error(1)
}

func (m *MockUserRepo) GetFollowing(ctx context.Context, id string) ([]models.UserCompact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserCompact), args.Error(1)
}

type MockEventRepo struct {
	mock.Mock
}

func (m *MockEventRepo) CreateEvent(ctx context.Context, event *models.Event) error { return nil }

func (m *MockEventRepo) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventRepo) GetEventsByTimeline(ctx context.Context, timelineID string, skip, limit int64) ([]models.Event, error) {
	return nil, nil
}

func (m *MockEventRepo) DeleteEvent(ctx context.Context, id, ownerID string) error { return nil }

func (m *MockEventRepo) ToggleLike(ctx context.Context, eventID, userID string) (bool, *models.Event, error) {
	args := m.Called(ctx, eventID, userID)
	if args.Get(1) == nil {
		return false, nil, args.Error(2)
	}
	return args.Bool(0), args.Get(1).(*models.Event), args.Error(2)
}

func (m *MockEventRepo) AddComment(ctx context.Context, eventID, userID, text string) (*models.Event, error) {
	args := m.Called(ctx, eventID, userID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventRepo) DeleteComment(ctx context.Context, eventID, commentID, userID string) (*models.Event, error) {
	args := m.Called(ctx, eventID, commentID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

type MockTimelineRepo struct {
	mock.Mock
}

func (m *MockTimelineRepo) CreateTimeline(ctx context.Context, timeline *models.Timeline) error {
	return nil
}

func (m *MockTimelineRepo) GetTimelineByID(ctx context.Context, id string) (*models.Timeline, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Timeline), args.Error(1)
}

func (m *MockTimelineRepo) GetTimelinesByUser(ctx context.Context, userID string, skip, limit int64) ([]models.Timeline, error) {
	return nil, nil
}

func (m *MockTimelineRepo) UpdateTimeline(ctx context.Context, id, ownerID string, req *models.UpdateTimelineRequest) (*models.Timeline, error) {
	return nil, nil
}

func (m *MockTimelineRepo) DeleteTimeline(ctx context.Context, id, ownerID string) error {
	return nil
}

func (m *MockTimelineRepo) ToggleFollow(ctx context.Context, timelineID, userID string) (bool, *models.Timeline, error) {
	args := m.Called(ctx, timelineID, userID)
	if args.Get(1) == nil {
		return false, nil, args.Error(2)
	}
	return args.Bool(0), args.Get(1).(*models.Timeline), args.Error(2)
}

type MockMessageRepo struct {
	mock.Mock
}

func (m *MockMessageRepo) CreateMessage(ctx context.Context, message *models.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockMessageRepo) GetMessagesBetween(ctx context.Context, userID, counterpartID string, page, limit int64) ([]models.Message, error) {
	args := m.Called(ctx, userID, counterpartID, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockMessageRepo) MarkConversationRead(ctx context.Context, userID, counterpartID string) (int64, error) {
	args := m.Called(ctx, userID, counterpartID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMessageRepo) GetConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Conversation), args.Error(1)
}

func (m *MockMessageRepo) SoftDelete(ctx context.Context, messageID, userID string) error {
	args := m.Called(ctx, messageID, userID)
	return args.Error(0)
}

type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) CreateNotification(ctx context.Context, n *models.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationRepo) GetByRecipient(ctx context.Context, recipientID string, page, limit int64) ([]models.Notification, int64, error) {
	args := m.Called(ctx, recipientID, page, limit)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.Notification), args.Get(1).(int64), args.Error(2)
}

func (m *MockNotificationRepo) GetUnreadCount(ctx context.Context, recipientID string) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepo) MarkAsRead(ctx context.Context, notificationID, recipientID string) error {
	args := m.Called(ctx, notificationID, recipientID)
	return args.Error(0)
}

func (m *MockNotificationRepo) MarkAllAsRead(ctx context.Context, recipientID string) error {
	args := m.Called(ctx, recipientID)
	return args.Error(0)
}

// recordingRegistry captures pushes instead of writing to sockets.
type recordingRegistry struct {
	mu         sync.Mutex
	pushes     []registryPush
	broadcasts []registryPush
}

type registryPush struct {
	key   string
	event string
	data  interface{}
}

func (r *recordingRegistry) SendToUser(userID, event string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushes = append(r.pushes, registryPush{userID, event, data})
}

func (r *recordingRegistry) Broadcast(groupKey, event string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcasts = append(r.broadcasts, registryPush{groupKey, event, data})
}

// assertHTTPStatus asserts that err is an echo HTTPError with the given code.
func assertHTTPStatus(t *testing.T, err error, code int) {
	t.Helper()
	var httpErr *echo.HTTPError
	if assert.ErrorAs(t, err, &httpErr) {
		assert.Equal(t, code, httpErr.Code)
	}
}

// newTestContext builds an echo context carrying JWT claims for userID.
func newTestContext(method, target, body, userID string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = validators.NewValidator()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != "" {
		c.Set("user", &models.JwtCustomClaims{UserID: userID, Username: "tester"})
	}
	return c, rec
}
