package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"coach-service/internal/observability"
)

// Conn is the subset of *websocket.Conn the hub writes to. Tests
// substitute fakes; production always hands in gorilla connections.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Hub fans events out to the sessions subscribed to each topic.
// Delivery is best-effort and at-most-once per connected session: a
// session that is not subscribed at publish time never sees the event.
type Hub struct {
	rooms    map[Topic]map[Conn]bool
	connInfo map[Topic]map[Conn]ConnInfo
	mu       sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:    make(map[Topic]map[Conn]bool),
		connInfo: make(map[Topic]map[Conn]ConnInfo),
	}
}

// Subscribe registers a connection on a topic.
func (h *Hub) Subscribe(topic Topic, conn Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[topic]; !ok {
		h.rooms[topic] = make(map[Conn]bool)
	}
	h.rooms[topic][conn] = true
	if _, ok := h.connInfo[topic]; !ok {
		h.connInfo[topic] = make(map[Conn]ConnInfo)
	}
	h.connInfo[topic][conn] = info
}

// Unsubscribe removes a connection from a topic. Idempotent and safe
// to call during teardown.
func (h *Hub) Unsubscribe(topic Topic, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[topic]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, topic)
		}
	}
	if infos, ok := h.connInfo[topic]; ok {
		delete(infos, conn)
		if len(infos) == 0 {
			delete(h.connInfo, topic)
		}
	}
}

// Subscribers returns the current subscriber count for a topic.
func (h *Hub) Subscribers(topic Topic) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[topic])
}

// Broadcast sends the event to every connection on the topic. Failed
// writes close and remove the connection; the durable row remains the
// source of truth for message events, so a missed write is recoverable
// by re-fetching on reconnect.
func (h *Hub) Broadcast(topic Topic, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("broadcast marshal error: %v", err)
		return
	}

	h.mu.RLock()
	conns := make([]Conn, 0, len(h.rooms[topic]))
	for conn := range h.rooms[topic] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			// Capture the session info before Unsubscribe deletes it.
			info, tracked := h.getConnInfo(topic, conn)
			conn.Close()
			h.Unsubscribe(topic, conn)
			if tracked {
				h.publishWSError(topic, info, err)
			}
		}
	}
}

func (h *Hub) publishWSError(topic Topic, info ConnInfo, err error) {
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        string(topic.Kind),
			"resource_id": topic.ConversationID,
			"event":       "ws_error",
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      err.Error(),
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"role":      string(info.Role),
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), topic.RoutingKey(), observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   payload,
	}, headers)
	observability.IncWSEvent(string(topic.Kind), "ws_error")
}

func (h *Hub) getConnInfo(topic Topic, conn Conn) (ConnInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if infos, ok := h.connInfo[topic]; ok {
		info, exists := infos[conn]
		return info, exists
	}
	return ConnInfo{}, false
}
