package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"coach-service/internal/models"
	"coach-service/internal/notify"
	"coach-service/internal/repositories"
	"coach-service/internal/ws"
)

// ConversationHandler manages the conversation endpoints.
type ConversationHandler struct {
	convRepo    repositories.ConversationRepository
	messageRepo repositories.MessageRepository
	hub         *ws.Hub
	notifier    *notify.Service
	staffID     int
}

// NewConversationHandler builds a ConversationHandler. staffID is the
// single staff account notified when a client writes.
func NewConversationHandler(convRepo repositories.ConversationRepository, messageRepo repositories.MessageRepository, hub *ws.Hub, notifier *notify.Service, staffID int) *ConversationHandler {
	return &ConversationHandler{
		convRepo:    convRepo,
		messageRepo: messageRepo,
		hub:         hub,
		notifier:    notifier,
		staffID:     staffID,
	}
}

// StartConversation returns the caller's conversation, creating it on
// first contact. Staff may address a specific client.
func (h *ConversationHandler) StartConversation(c *gin.Context) {
	userID := c.GetInt("userID")
	role := models.Role(c.GetString("userRole"))

	clientID := userID
	if role == models.RoleStaff {
		var req struct {
			ClientID int `json:"client_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		clientID = req.ClientID
	}

	conv, err := h.convRepo.GetOrCreateConversation(c.Request.Context(), clientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create conversation"})
		return
	}
	c.JSON(http.StatusOK, conv)
}

// ListConversations returns every conversation for the staff console.
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	if models.Role(c.GetString("userRole")) != models.RoleStaff {
		c.JSON(http.StatusForbidden, gin.H{"error": "staff only"})
		return
	}

	convs, err := h.convRepo.ListConversations(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

// GetMessages returns the conversation history in creation order.
func (h *ConversationHandler) GetMessages(c *gin.Context) {
	conv, ok := h.authorizeConversation(c)
	if !ok {
		return
	}

	msgs, err := h.messageRepo.ListMessages(c.Request.Context(), conv.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostMessage appends a message, broadcasts it to subscribed sessions
// and fires the peer notification without blocking the response.
func (h *ConversationHandler) PostMessage(c *gin.Context) {
	conv, ok := h.authorizeConversation(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")
	role := models.Role(c.GetString("userRole"))

	var req struct {
		Kind    models.MessageKind `json:"kind"`
		Content string             `json:"content"`
		Media   *models.Media      `json:"media"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Kind == "" {
		req.Kind = models.KindText
	}
	if !req.Kind.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message kind"})
		return
	}
	if req.Kind == models.KindText && req.Content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}
	if req.Kind != models.KindText && req.Media == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "media is required for non-text messages"})
		return
	}

	msg, err := h.messageRepo.AppendMessage(c.Request.Context(), conv.ID, userID, role, req.Kind, req.Content, req.Media)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	h.hub.Broadcast(ws.Messages(conv.ID), models.ChatEvent{
		Type:         "message",
		Message:      &msg,
		Conversation: conv.ID,
	})
	h.notifyPeer(conv, msg)

	c.JSON(http.StatusCreated, msg)
}

// MarkRead flags the peer's messages read up to a timestamp and resets
// the caller's unread counter.
func (h *ConversationHandler) MarkRead(c *gin.Context) {
	conv, ok := h.authorizeConversation(c)
	if !ok {
		return
	}
	role := models.Role(c.GetString("userRole"))

	var req struct {
		UpTo *time.Time `json:"up_to"`
	}
	// The body is optional; an absent or malformed one means "up to now".
	_ = c.ShouldBindJSON(&req)
	upTo := time.Now()
	if req.UpTo != nil {
		upTo = *req.UpTo
	}

	if err := h.convRepo.MarkRead(c.Request.Context(), conv.ID, role, upTo); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrConversationNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not mark read"})
		return
	}

	h.hub.Broadcast(ws.Messages(conv.ID), models.ChatEvent{
		Type:         "read",
		Reader:       role,
		ReadUpTo:     upTo.UTC().Format(time.RFC3339Nano),
		Conversation: conv.ID,
	})
	c.Status(http.StatusNoContent)
}

// notifyPeer dispatches the new-message notification on a detached
// context so the sender's request never waits on delivery.
func (h *ConversationHandler) notifyPeer(conv models.Conversation, msg models.Message) {
	recipient := h.staffID
	routeURL := "/admin/chat/" + strconv.Itoa(conv.ID)
	if msg.SenderRole == models.RoleStaff {
		recipient = conv.ClientID
		routeURL = "/chat"
	}

	req := models.DispatchRequest{
		DestinatarioID: strconv.Itoa(recipient),
		Title:          "Nuevo mensaje",
		Body:           msg.DisplayText(),
		Type:           relayType(msg.Kind),
		URL:            routeURL,
	}
	if msg.MediaURL != nil && msg.Kind != models.KindText {
		req.URL = *msg.MediaURL
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		result := h.notifier.Dispatch(ctx, req)
		if len(result.Errors) > 0 {
			log.Printf("peer notification incomplete conversation=%d: %v", conv.ID, result.Errors)
		}
	}()
}

func relayType(kind models.MessageKind) string {
	switch kind {
	case models.KindAudio:
		return "audio"
	case models.KindVideo:
		return "video"
	case models.KindImage:
		return "document"
	default:
		return "message"
	}
}

// authorizeConversation loads the conversation and checks the caller is
// a participant (staff sees all, a client only their own thread).
func (h *ConversationHandler) authorizeConversation(c *gin.Context) (models.Conversation, bool) {
	conversationID, err := strconv.Atoi(c.Param("conversation_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return models.Conversation{}, false
	}

	conv, err := h.convRepo.GetConversation(c.Request.Context(), conversationID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrConversationNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "conversation not found"})
		return models.Conversation{}, false
	}

	userID := c.GetInt("userID")
	role := models.Role(c.GetString("userRole"))
	if role != models.RoleStaff && conv.ClientID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a conversation member"})
		return models.Conversation{}, false
	}
	return conv, true
}
