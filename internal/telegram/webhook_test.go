package telegram

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"coach-service/internal/mocks"
	"coach-service/internal/models"
	"coach-service/internal/repositories"
)

func setupWebhookRouter(handler *WebhookHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/telegram/webhook", handler.Handle)
	return r
}

// commandUpdate builds the platform's update JSON for a bot command
// message, entity offsets included.
func commandUpdate(chatID int64, text string, commandLen int) string {
	return fmt.Sprintf(`{
		"update_id": 100,
		"message": {
			"message_id": 1,
			"chat": {"id": %d},
			"text": %q,
			"entities": [{"type": "bot_command", "offset": 0, "length": %d}]
		}
	}`, chatID, text, commandLen)
}

func postUpdate(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestWebhookVincularLinksAccount(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	links := new(mocks.BotLinkRepositoryMock)
	responder := new(mocks.RelaySenderMock)
	router := setupWebhookRouter(NewWebhookHandler(users, links, responder))

	users.On("FindByEmail", mock.Anything, "ana@example.com").Return(models.User{ID: 7, Email: "ana@example.com"}, nil).Once()
	links.On("Link", mock.Anything, 7, int64(777)).Return(nil).Once()
	responder.On("SendText", mock.Anything, int64(777), replyLinked).Return(nil).Once()

	rec := postUpdate(t, router, commandUpdate(777, "/vincular ana@example.com", 9))

	require.Equal(t, http.StatusOK, rec.Code)
	users.AssertExpectations(t)
	links.AssertExpectations(t)
	responder.AssertExpectations(t)
}

func TestWebhookVincularUnknownEmail(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	links := new(mocks.BotLinkRepositoryMock)
	responder := new(mocks.RelaySenderMock)
	router := setupWebhookRouter(NewWebhookHandler(users, links, responder))

	users.On("FindByEmail", mock.Anything, "nadie@example.com").Return(models.User{}, repositories.ErrUserNotFound).Once()
	responder.On("SendText", mock.Anything, int64(777), replyNotFound).Return(nil).Once()

	rec := postUpdate(t, router, commandUpdate(777, "/vincular nadie@example.com", 9))

	require.Equal(t, http.StatusOK, rec.Code)
	links.AssertNotCalled(t, "Link", mock.Anything, mock.Anything, mock.Anything)
	responder.AssertExpectations(t)
}

func TestWebhookVincularWithoutEmail(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	responder := new(mocks.RelaySenderMock)
	router := setupWebhookRouter(NewWebhookHandler(users, new(mocks.BotLinkRepositoryMock), responder))

	responder.On("SendText", mock.Anything, int64(777), replyMissingEmail).Return(nil).Once()

	rec := postUpdate(t, router, commandUpdate(777, "/vincular", 9))

	require.Equal(t, http.StatusOK, rec.Code)
	users.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
	responder.AssertExpectations(t)
}

func TestWebhookDesvincular(t *testing.T) {
	links := new(mocks.BotLinkRepositoryMock)
	responder := new(mocks.RelaySenderMock)
	router := setupWebhookRouter(NewWebhookHandler(new(mocks.UserRepositoryMock), links, responder))

	links.On("DeactivateByChat", mock.Anything, int64(777)).Return(true, nil).Once()
	responder.On("SendText", mock.Anything, int64(777), replyUnlinked).Return(nil).Once()

	rec := postUpdate(t, router, commandUpdate(777, "/desvincular", 12))

	require.Equal(t, http.StatusOK, rec.Code)
	links.AssertExpectations(t)
	responder.AssertExpectations(t)
}

func TestWebhookDesvincularWithoutLink(t *testing.T) {
	links := new(mocks.BotLinkRepositoryMock)
	responder := new(mocks.RelaySenderMock)
	router := setupWebhookRouter(NewWebhookHandler(new(mocks.UserRepositoryMock), links, responder))

	links.On("DeactivateByChat", mock.Anything, int64(777)).Return(false, nil).Once()
	responder.On("SendText", mock.Anything, int64(777), replyNoLink).Return(nil).Once()

	rec := postUpdate(t, router, commandUpdate(777, "/desvincular", 12))

	require.Equal(t, http.StatusOK, rec.Code)
	responder.AssertExpectations(t)
}

func TestWebhookStartAndUnknownCommand(t *testing.T) {
	responder := new(mocks.RelaySenderMock)
	router := setupWebhookRouter(NewWebhookHandler(new(mocks.UserRepositoryMock), new(mocks.BotLinkRepositoryMock), responder))

	responder.On("SendText", mock.Anything, int64(777), replyWelcome).Return(nil).Once()
	responder.On("SendText", mock.Anything, int64(777), replyUnknown).Return(nil).Once()

	require.Equal(t, http.StatusOK, postUpdate(t, router, commandUpdate(777, "/start", 6)).Code)
	require.Equal(t, http.StatusOK, postUpdate(t, router, commandUpdate(777, "/bailar", 7)).Code)
	responder.AssertExpectations(t)
}

func TestWebhookMalformedBodyStillAcknowledges(t *testing.T) {
	responder := new(mocks.RelaySenderMock)
	router := setupWebhookRouter(NewWebhookHandler(new(mocks.UserRepositoryMock), new(mocks.BotLinkRepositoryMock), responder))

	rec := postUpdate(t, router, `{not json`)

	assert.Equal(t, http.StatusOK, rec.Code)
	responder.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookUpdateWithoutMessage(t *testing.T) {
	responder := new(mocks.RelaySenderMock)
	router := setupWebhookRouter(NewWebhookHandler(new(mocks.UserRepositoryMock), new(mocks.BotLinkRepositoryMock), responder))

	rec := postUpdate(t, router, `{"update_id": 100}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	responder.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything)
}
