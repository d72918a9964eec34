package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"coach-service/internal/models"
	"coach-service/internal/repositories"
)

type ConversationRepositoryMock struct {
	mock.Mock
}

func (m *ConversationRepositoryMock) GetOrCreateConversation(ctx context.Context, clientID int) (models.Conversation, error) {
	args := m.Called(ctx, clientID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) GetConversation(ctx context.Context, conversationID int) (models.Conversation, error) {
	args := m.Called(ctx, conversationID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	args := m.Called(ctx)
	var list []models.Conversation
	if val := args.Get(0); val != nil {
		list = val.([]models.Conversation)
	}
	return list, args.Error(1)
}

func (m *ConversationRepositoryMock) MarkRead(ctx context.Context, conversationID int, reader models.Role, upTo time.Time) error {
	args := m.Called(ctx, conversationID, reader, upTo)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) UnreadCount(ctx context.Context, conversationID int, side models.Role) (int, error) {
	args := m.Called(ctx, conversationID, side)
	return args.Int(0), args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) AppendMessage(ctx context.Context, conversationID int, senderID int, senderRole models.Role, kind models.MessageKind, content string, media *models.Media) (models.Message, error) {
	args := m.Called(ctx, conversationID, senderID, senderRole, kind, content, media)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, conversationID int) ([]models.Message, error) {
	args := m.Called(ctx, conversationID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

type PushSubscriptionRepositoryMock struct {
	mock.Mock
}

func (m *PushSubscriptionRepositoryMock) Upsert(ctx context.Context, sub models.PushSubscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *PushSubscriptionRepositoryMock) GetByUser(ctx context.Context, userID int) (models.PushSubscription, error) {
	args := m.Called(ctx, userID)
	var sub models.PushSubscription
	if val := args.Get(0); val != nil {
		sub = val.(models.PushSubscription)
	}
	return sub, args.Error(1)
}

func (m *PushSubscriptionRepositoryMock) ListAll(ctx context.Context) ([]models.PushSubscription, error) {
	args := m.Called(ctx)
	var subs []models.PushSubscription
	if val := args.Get(0); val != nil {
		subs = val.([]models.PushSubscription)
	}
	return subs, args.Error(1)
}

func (m *PushSubscriptionRepositoryMock) Delete(ctx context.Context, userID int) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type BotLinkRepositoryMock struct {
	mock.Mock
}

func (m *BotLinkRepositoryMock) Link(ctx context.Context, userID int, chatID int64) error {
	args := m.Called(ctx, userID, chatID)
	return args.Error(0)
}

func (m *BotLinkRepositoryMock) DeactivateByChat(ctx context.Context, chatID int64) (bool, error) {
	args := m.Called(ctx, chatID)
	return args.Bool(0), args.Error(1)
}

func (m *BotLinkRepositoryMock) GetActiveByUser(ctx context.Context, userID int) (models.BotLink, error) {
	args := m.Called(ctx, userID)
	var link models.BotLink
	if val := args.Get(0); val != nil {
		link = val.(models.BotLink)
	}
	return link, args.Error(1)
}

func (m *BotLinkRepositoryMock) ListActive(ctx context.Context) ([]models.BotLink, error) {
	args := m.Called(ctx)
	var links []models.BotLink
	if val := args.Get(0); val != nil {
		links = val.([]models.BotLink)
	}
	return links, args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) FindByEmail(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

type WebPushSenderMock struct {
	mock.Mock
}

func (m *WebPushSenderMock) Send(ctx context.Context, sub models.PushSubscription, payload []byte) (int, error) {
	args := m.Called(ctx, sub, payload)
	return args.Int(0), args.Error(1)
}

type RelaySenderMock struct {
	mock.Mock
}

func (m *RelaySenderMock) SendText(ctx context.Context, chatID int64, text string) error {
	args := m.Called(ctx, chatID, text)
	return args.Error(0)
}

func (m *RelaySenderMock) SendAudio(ctx context.Context, chatID int64, url, caption string) error {
	args := m.Called(ctx, chatID, url, caption)
	return args.Error(0)
}

func (m *RelaySenderMock) SendVideo(ctx context.Context, chatID int64, url, caption string) error {
	args := m.Called(ctx, chatID, url, caption)
	return args.Error(0)
}

func (m *RelaySenderMock) SendDocument(ctx context.Context, chatID int64, url, caption string) error {
	args := m.Called(ctx, chatID, url, caption)
	return args.Error(0)
}

var _ repositories.ConversationRepository = (*ConversationRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.PushSubscriptionRepository = (*PushSubscriptionRepositoryMock)(nil)
var _ repositories.BotLinkRepository = (*BotLinkRepositoryMock)(nil)
var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
