package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/waveline-app/backend/internal/handlers"
	"github.com/waveline-app/backend/internal/models"
	"github.com/waveline-app/backend/internal/services"
)

type messageFixture struct {
	handler     *handlers.MessageHandler
	messageRepo *MockMessageRepo
	userRepo    *MockUserRepo
	notifRepo   *MockNotificationRepo
	registry    *recordingRegistry
}

func newMessageFixture() *messageFixture {
	messageRepo := new(MockMessageRepo)
	userRepo := new(MockUserRepo)
	notifRepo := new(MockNotificationRepo)
	registry := &recordingRegistry{}
	notifService := services.NewNotificationService(notifRepo, userRepo, registry)
	return &messageFixture{
		handler:     handlers.NewMessageHandler(messageRepo, userRepo, notifService, registry),
		messageRepo: messageRepo,
		userRepo:    userRepo,
		notifRepo:   notifRepo,
		registry:    registry,
	}
}

func TestSendMessage(t *testing.T) {
	senderID := primitive.NewObjectID()
	recipientID := primitive.NewObjectID()
	sender := &models.User{ID: senderID, Username: "alice"}
	recipient := &models.User{ID: recipientID, Username: "bob"}

	t.Run("PersistsNotifiesAndPushes", func(t *testing.T) {
		f := newMessageFixture()
		f.userRepo.On("GetUserByID", mock.Anything, senderID.Hex()).Return(sender, nil)
		f.userRepo.On("GetUserByID", mock.Anything, recipientID.Hex()).Return(recipient, nil)
		f.messageRepo.On("CreateMessage", mock.Anything, mock.MatchedBy(func(m *models.Message) bool {
			return m.SenderID == senderID && m.RecipientID == recipientID && m.Content == "hey"
		})).Return(nil).Once()
		f.notifRepo.On("CreateNotification", mock.Anything, mock.MatchedBy(func(n *models.Notification) bool {
			return n.Type == models.NotificationMessage && n.RecipientID == recipientID
		})).Return(nil).Once()

		c, rec := newTestContext(http.MethodPost, "/messages",
			`{"recipient":"`+recipientID.Hex()+`","content":"hey"}`, senderID.Hex())

		err := f.handler.SendMessage(c)

		assert.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)
		f.messageRepo.AssertExpectations(t)
		f.notifRepo.AssertExpectations(t)

		// One push for the stored notification, one for the message itself.
		assert.Len(t, f.registry.pushes, 2)
		assert.Equal(t, "notification", f.registry.pushes[0].event)
		assert.Equal(t, "newMessage", f.registry.pushes[1].event)
		assert.Equal(t, recipientID.Hex(), f.registry.pushes[1].key)
	})

	t.Run("MissingRecipientNotFound", func(t *testing.T) {
		f := newMessageFixture()
		f.userRepo.On("GetUserByID", mock.Anything, senderID.Hex()).Return(sender, nil)
		f.userRepo.On("GetUserByID", mock.Anything, recipientID.Hex()).Return(nil, models.ErrNotFound)

		c, _ := newTestContext(http.MethodPost, "/messages",
			`{"recipient":"`+recipientID.Hex()+`","content":"hey"}`, senderID.Hex())

		err := f.handler.SendMessage(c)

		assertHTTPStatus(t, err, http.StatusNotFound)
		f.messageRepo.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
	})

	t.Run("EmptyContentRejected", func(t *testing.T) {
		f := newMessageFixture()

		c, _ := newTestContext(http.MethodPost, "/messages",
			`{"recipient":"`+recipientID.Hex()+`","content":""}`, senderID.Hex())

		err := f.handler.SendMessage(c)

		assertHTTPStatus(t, err, http.StatusBadRequest)
	})

	t.Run("NotificationFailureStillDelivers", func(t *testing.T) {
		f := newMessageFixture()
		f.userRepo.On("GetUserByID", mock.Anything, senderID.Hex()).Return(sender, nil)
		f.userRepo.On("GetUserByID", mock.Anything, recipientID.Hex()).Return(recipient, nil)
		f.messageRepo.On("CreateMessage", mock.Anything, mock.Anything).Return(nil)
		f.notifRepo.On("CreateNotification", mock.Anything, mock.Anything).Return(assert.AnError)

		c, rec := newTestContext(http.MethodPost, "/messages",
			`{"recipient":"`+recipientID.Hex()+`","content":"hey"}`, senderID.Hex())

		err := f.handler.SendMessage(c)

		assert.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Len(t, f.registry.pushes, 1)
		assert.Equal(t, "newMessage", f.registry.pushes[0].event)
	})
}

func TestGetMessages(t *testing.T) {
	readerID := primitive.NewObjectID()
	counterpartID := primitive.NewObjectID()

	thread := []models.Message{
		{ID: primitive.NewObjectID(), SenderID: counterpartID, RecipientID: readerID, Content: "hi", CreatedAt: time.Now().Add(-time.Minute)},
		{ID: primitive.NewObjectID(), SenderID: readerID, RecipientID: counterpartID, Content: "hello", CreatedAt: time.Now()},
	}

	t.Run("MarksReadAndPushesReceipt", func(t *testing.T) {
		f := newMessageFixture()
		f.messageRepo.On("GetMessagesBetween", mock.Anything, readerID.Hex(), counterpartID.Hex(), int64(1), int64(50)).
			Return(thread, nil)
		f.messageRepo.On("MarkConversationRead", mock.Anything, readerID.Hex(), counterpartID.Hex()).
			Return(int64(1), nil).Once()

		c, rec := newTestContext(http.MethodGet, "/messages/"+counterpartID.Hex(), "", readerID.Hex())
		c.SetParamNames("user_id")
		c.SetParamValues(counterpartID.Hex())

		err := f.handler.GetMessages(c)

		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		f.messageRepo.AssertExpectations(t)
		assert.Len(t, f.registry.pushes, 1)
		assert.Equal(t, counterpartID.Hex(), f.registry.pushes[0].key)
		assert.Equal(t, "messagesRead", f.registry.pushes[0].event)
		assert.Equal(t, readerID.Hex(), f.registry.pushes[0].data)
	})

	t.Run("NothingUnreadPushesNoReceipt", func(t *testing.T) {
		f := newMessageFixture()
		f.messageRepo.On("GetMessagesBetween", mock.Anything, readerID.Hex(), counterpartID.Hex(), int64(1), int64(50)).
			Return([]models.Message{}, nil)
		f.messageRepo.On("MarkConversationRead", mock.Anything, readerID.Hex(), counterpartID.Hex()).
			Return(int64(0), nil)

		c, rec := newTestContext(http.MethodGet, "/messages/"+counterpartID.Hex(), "", readerID.Hex())
		c.SetParamNames("user_id")
		c.SetParamValues(counterpartID.Hex())

		err := f.handler.GetMessages(c)

		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, f.registry.pushes)
	})

	t.Run("MarkReadFailureStillReturnsThread", func(t *testing.T) {
		f := newMessageFixture()
		f.messageRepo.On("GetMessagesBetween", mock.Anything, readerID.Hex(), counterpartID.Hex(), int64(1), int64(50)).
			Return(thread, nil)
		f.messageRepo.On("MarkConversationRead", mock.Anything, readerID.Hex(), counterpartID.Hex()).
			Return(int64(0), assert.AnError)

		c, rec := newTestContext(http.MethodGet, "/messages/"+counterpartID.Hex(), "", readerID.Hex())
		c.SetParamNames("user_id")
		c.SetParamValues(counterpartID.Hex())

		err := f.handler.GetMessages(c)

		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "hello")
		assert.Empty(t, f.registry.pushes)
	})
}

func TestGetConversations(t *testing.T) {
	userID := primitive.NewObjectID()
	f := newMessageFixture()
	f.messageRepo.On("GetConversations", mock.Anything, userID.Hex()).
		Return([]models.Conversation{
			{User: models.UserCompact{Username: "bob"}, UnreadCount: 2},
		}, nil)

	c, rec := newTestContext(http.MethodGet, "/messages/conversations", "", userID.Hex())

	err := f.handler.GetConversations(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bob")
	assert.Contains(t, rec.Body.String(), `"unread_count":2`)
}

func TestDeleteMessage(t *testing.T) {
	userID := primitive.NewObjectID()
	messageID := primitive.NewObjectID()

	t.Run("Success", func(t *testing.T) {
		f := newMessageFixture()
		f.messageRepo.On("SoftDelete", mock.Anything, messageID.Hex(), userID.Hex()).Return(nil)

		c, rec := newTestContext(http.MethodDelete, "/messages/"+messageID.Hex(), "", userID.Hex())
		c.SetParamNames("id")
		c.SetParamValues(messageID.Hex())

		err := f.handler.DeleteMessage(c)

		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("OutsiderForbidden", func(t *testing.T) {
		f := newMessageFixture()
		f.messageRepo.On("SoftDelete", mock.Anything, messageID.Hex(), userID.Hex()).
			Return(models.ErrForbidden)

		c, _ := newTestContext(http.MethodDelete, "/messages/"+messageID.Hex(), "", userID.Hex())
		c.SetParamNames("id")
		c.SetParamValues(messageID.Hex())

		err := f.handler.DeleteMessage(c)

		assertHTTPStatus(t, err, http.StatusForbidden)
	})
}
