package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"coach-service/internal/middleware"
	"coach-service/internal/models"
	"coach-service/internal/observability"
	"coach-service/internal/presence"
	"coach-service/internal/repositories"
)

// ConversationWSHandler handles conversation websocket sessions.
type ConversationWSHandler struct {
	hub      *Hub
	convRepo repositories.ConversationRepository
	verifier *middleware.Verifier
	tracker  *presence.Tracker
	typing   *presence.TypingIndicator
}

// NewConversationWSHandler constructs a ConversationWSHandler.
func NewConversationWSHandler(hub *Hub, convRepo repositories.ConversationRepository, verifier *middleware.Verifier, tracker *presence.Tracker) *ConversationWSHandler {
	return &ConversationWSHandler{
		hub:      hub,
		convRepo: convRepo,
		verifier: verifier,
		tracker:  tracker,
		// Suppression window is half the consumer decay window so a
		// continuously typing sender rebroadcasts before consumers'
		// indicators expire.
		typing: presence.NewTypingIndicatorWindow(presence.TypingDecay / 2),
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type inboundFrame struct {
	Type string `json:"type"`
}

// Handle upgrades the connection, joins the session to its conversation
// topics and the global presence topic, and serves inbound frames until
// the peer disconnects.
func (h *ConversationWSHandler) Handle(c *gin.Context) {
	conversationID, err := strconv.Atoi(c.Param("conversation_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	ctx, span := otel.Tracer("coach-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := c.GetHeader("Authorization")
	if token == "" {
		if q := c.Query("token"); q != "" {
			token = "Bearer " + q
		}
	}
	userID, role, err := h.validateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conv, err := h.convRepo.GetConversation(ctx, conversationID)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for conversation"})
		return
	}
	if role != models.RoleStaff && conv.ClientID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for conversation"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		Role:        role,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}

	topics := []Topic{Messages(conversationID), Typing(conversationID), Presence()}
	for _, topic := range topics {
		h.hub.Subscribe(topic, conn, info)
	}
	h.tracker.Track(userID, role)
	h.broadcastPresence()

	observability.IncWSActive(string(KindMessages))
	observability.IncWSEvent(string(KindMessages), "ws_connect")
	h.publishSessionEvent(info, conversationID, "ws_connect", "")

	go h.readLoop(conn, info, conversationID, topics)
}

func (h *ConversationWSHandler) readLoop(conn *websocket.Conn, info ConnInfo, conversationID int, topics []Topic) {
	var closeReason string
	defer func() {
		for _, topic := range topics {
			h.hub.Unsubscribe(topic, conn)
		}
		h.tracker.Untrack(info.UserID)
		h.broadcastPresence()
		observability.DecWSActive(string(KindMessages))
		observability.IncWSEvent(string(KindMessages), "ws_disconnect")
		h.publishSessionEvent(info, conversationID, "ws_disconnect", closeReason)
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent(string(KindMessages), "ws_error")
				h.publishSessionEvent(info, conversationID, "ws_error", closeReason)
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		switch frame.Type {
		case "typing":
			h.relayTyping(conversationID, info)
		case "heartbeat":
			h.tracker.Heartbeat(info.UserID)
		}
	}
}

// relayTyping rebroadcasts a typing frame at most once per suppression
// window. Duplicate frames inside the window are dropped; once the
// window passes, the next frame re-emits so consumers refresh their
// decay timers while the sender keeps typing.
func (h *ConversationWSHandler) relayTyping(conversationID int, info ConnInfo) {
	if h.typing.IsTyping(conversationID, info.UserID) {
		return
	}
	h.typing.Signal(conversationID, info.UserID)
	h.hub.Broadcast(Typing(conversationID), models.TypingEvent{
		Type:           "typing",
		ConversationID: conversationID,
		UserID:         info.UserID,
		Role:           info.Role,
	})
}

func (h *ConversationWSHandler) broadcastPresence() {
	h.hub.Broadcast(Presence(), models.PresenceEvent{
		Type:   "presence",
		Online: h.tracker.Snapshot(),
	})
}

func (h *ConversationWSHandler) publishSessionEvent(info ConnInfo, conversationID int, event, reason string) {
	topic := Messages(conversationID)
	_ = observability.PublishEvent(context.Background(), topic.RoutingKey(), observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"kind":        string(topic.Kind),
				"resource_id": conversationID,
				"event":       event,
				"conn_id":     info.ConnID,
				"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
				"reason":      reason,
			},
			"identity": map[string]interface{}{
				"user_id":   info.UserID,
				"role":      string(info.Role),
				"device_id": info.DeviceID,
				"ip":        info.IP,
			},
		},
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}

func (h *ConversationWSHandler) validateToken(header string) (int, models.Role, error) {
	parts := strings.Split(header, " ")
	if len(parts) == 2 {
		return h.verifier.Verify(parts[1])
	}
	return 0, "", fmt.Errorf("invalid token")
}
