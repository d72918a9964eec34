package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"coach-service/internal/mocks"
	"coach-service/internal/models"
	"coach-service/internal/repositories"
)

type stubChannel struct {
	name   string
	result models.DispatchResult
}

func (s stubChannel) Name() string { return s.name }
func (s stubChannel) Deliver(context.Context, models.DispatchRequest) models.DispatchResult {
	return s.result
}

func TestDispatchAggregatesAcrossChannels(t *testing.T) {
	svc := NewService(
		stubChannel{name: "push", result: models.DispatchResult{Sent: 1, Total: 2, Errors: []string{"push user 3: endpoint status 500"}}},
		stubChannel{name: "bot", result: models.DispatchResult{Sent: 1, Total: 1, Errors: []string{}}},
	)

	result := svc.Dispatch(context.Background(), models.DispatchRequest{DestinatarioID: "3", Title: "hola"})

	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 3, result.Total)
	require.Len(t, result.Errors, 1)
}

func TestDispatchWithNoChannels(t *testing.T) {
	svc := NewService()
	result := svc.Dispatch(context.Background(), models.DispatchRequest{DestinatarioID: "1", Title: "hola"})

	assert.Zero(t, result.Sent)
	assert.Zero(t, result.Total)
	assert.Empty(t, result.Errors)
}

func TestPushDeliverSendsToSingleRecipient(t *testing.T) {
	subs := new(mocks.PushSubscriptionRepositoryMock)
	sender := new(mocks.WebPushSenderMock)
	channel := NewPushChannel(subs, sender, "/icons/icon-192.png", "/icons/badge-72.png")

	sub := models.PushSubscription{UserID: 3, Endpoint: "https://push.example/abc"}
	subs.On("GetByUser", mock.Anything, 3).Return(sub, nil).Once()
	sender.On("Send", mock.Anything, sub, mock.Anything).Return(http.StatusCreated, nil).Once()

	result := channel.Deliver(context.Background(), models.DispatchRequest{
		DestinatarioID: "3",
		Title:          "Nuevo mensaje",
		Body:           "hola",
		URL:            "/chat",
	})

	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 1, result.Total)
	assert.Empty(t, result.Errors)

	payload := sender.Calls[0].Arguments.Get(2).([]byte)
	var decoded models.PushPayload
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "Nuevo mensaje", decoded.Title)
	assert.Equal(t, "/chat", decoded.URL)
	assert.Equal(t, "/chat", decoded.Tag)

	subs.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestPushDeliverEvictsGoneEndpoint(t *testing.T) {
	subs := new(mocks.PushSubscriptionRepositoryMock)
	sender := new(mocks.WebPushSenderMock)
	channel := NewPushChannel(subs, sender, "", "")

	sub := models.PushSubscription{UserID: 3, Endpoint: "https://push.example/stale"}
	subs.On("GetByUser", mock.Anything, 3).Return(sub, nil).Once()
	sender.On("Send", mock.Anything, sub, mock.Anything).Return(http.StatusGone, nil).Once()
	subs.On("Delete", mock.Anything, 3).Return(nil).Once()

	result := channel.Deliver(context.Background(), models.DispatchRequest{DestinatarioID: "3", Title: "hola"})

	// An evicted endpoint is cleanup, not a delivery failure.
	assert.Zero(t, result.Sent)
	assert.Equal(t, 1, result.Total)
	assert.Empty(t, result.Errors)
	subs.AssertExpectations(t)
}

func TestPushDeliverBroadcastIsolatesFailures(t *testing.T) {
	subs := new(mocks.PushSubscriptionRepositoryMock)
	sender := new(mocks.WebPushSenderMock)
	channel := NewPushChannel(subs, sender, "", "")

	all := []models.PushSubscription{
		{UserID: 1, Endpoint: "https://push.example/1"},
		{UserID: 2, Endpoint: "https://push.example/2"},
		{UserID: 3, Endpoint: "https://push.example/3"},
	}
	subs.On("ListAll", mock.Anything).Return(all, nil).Once()
	sender.On("Send", mock.Anything, all[0], mock.Anything).Return(http.StatusCreated, nil).Once()
	sender.On("Send", mock.Anything, all[1], mock.Anything).Return(http.StatusBadRequest, nil).Once()
	sender.On("Send", mock.Anything, all[2], mock.Anything).Return(http.StatusCreated, nil).Once()

	result := channel.Deliver(context.Background(), models.DispatchRequest{DestinatarioID: "todas", Title: "aviso"})

	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 3, result.Total)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "push user 2")
	subs.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestPushDeliverNoSubscriptionIsSilent(t *testing.T) {
	subs := new(mocks.PushSubscriptionRepositoryMock)
	sender := new(mocks.WebPushSenderMock)
	channel := NewPushChannel(subs, sender, "", "")

	subs.On("GetByUser", mock.Anything, 9).Return(models.PushSubscription{}, repositories.ErrSubscriptionNotFound).Once()

	result := channel.Deliver(context.Background(), models.DispatchRequest{DestinatarioID: "9", Title: "hola"})

	assert.Zero(t, result.Total)
	assert.Empty(t, result.Errors)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestBotDeliverByType(t *testing.T) {
	links := new(mocks.BotLinkRepositoryMock)
	sender := new(mocks.RelaySenderMock)
	channel := NewBotChannel(links, sender)

	link := models.BotLink{UserID: 4, ChatID: 777, Active: true}
	links.On("GetActiveByUser", mock.Anything, 4).Return(link, nil).Times(3)
	sender.On("SendAudio", mock.Anything, int64(777), "https://cdn.example/a.ogg", "Nota de voz\n\nescucha").Return(nil).Once()
	sender.On("SendVideo", mock.Anything, int64(777), "https://cdn.example/v.mp4", "Video").Return(nil).Once()
	sender.On("SendText", mock.Anything, int64(777), "Aviso\n\nhola").Return(nil).Once()

	for _, req := range []models.DispatchRequest{
		{DestinatarioID: "4", Title: "Nota de voz", Body: "escucha", Type: "audio", URL: "https://cdn.example/a.ogg"},
		{DestinatarioID: "4", Title: "Video", Type: "video", URL: "https://cdn.example/v.mp4"},
		{DestinatarioID: "4", Title: "Aviso", Body: "hola", Type: "message"},
	} {
		result := channel.Deliver(context.Background(), req)
		assert.Equal(t, 1, result.Sent)
	}
	sender.AssertExpectations(t)
}

func TestBotDeliverNoLinkIsSilent(t *testing.T) {
	links := new(mocks.BotLinkRepositoryMock)
	sender := new(mocks.RelaySenderMock)
	channel := NewBotChannel(links, sender)

	links.On("GetActiveByUser", mock.Anything, 4).Return(models.BotLink{}, repositories.ErrBotLinkNotFound).Once()

	result := channel.Deliver(context.Background(), models.DispatchRequest{DestinatarioID: "4", Title: "hola"})

	assert.Zero(t, result.Total)
	assert.Empty(t, result.Errors)
	sender.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything)
}
