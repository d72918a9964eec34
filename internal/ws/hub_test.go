package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coach-service/internal/observability"
)

type fakeConn struct {
	writes  [][]byte
	failure error
	closed  bool
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	if f.failure != nil {
		return f.failure
	}
	f.writes = append(f.writes, data)
	return nil
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

func TestBroadcastDeliversToSubscribersOnce(t *testing.T) {
	hub := NewHub()
	topic := Messages(5)
	a := &fakeConn{}
	b := &fakeConn{}
	other := &fakeConn{}

	hub.Subscribe(topic, a, ConnInfo{ConnID: "a", UserID: 1})
	hub.Subscribe(topic, b, ConnInfo{ConnID: "b", UserID: 2})
	hub.Subscribe(Messages(9), other, ConnInfo{ConnID: "c", UserID: 3})

	hub.Broadcast(topic, map[string]any{"type": "message", "conversation": 5})

	require.Len(t, a.writes, 1)
	require.Len(t, b.writes, 1)
	assert.Empty(t, other.writes)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(a.writes[0], &decoded))
	assert.Equal(t, "message", decoded["type"])
}

func TestBroadcastAfterUnsubscribeSkipsSession(t *testing.T) {
	hub := NewHub()
	topic := Typing(3)
	conn := &fakeConn{}

	hub.Subscribe(topic, conn, ConnInfo{ConnID: "a", UserID: 1})
	hub.Unsubscribe(topic, conn)
	hub.Unsubscribe(topic, conn) // idempotent

	hub.Broadcast(topic, map[string]any{"type": "typing"})

	assert.Empty(t, conn.writes)
	assert.Equal(t, 0, hub.Subscribers(topic))
}

func TestBroadcastRemovesFailingConnection(t *testing.T) {
	hub := NewHub()
	topic := Messages(7)
	healthy := &fakeConn{}
	broken := &fakeConn{failure: errors.New("write: broken pipe")}

	hub.Subscribe(topic, healthy, ConnInfo{ConnID: "ok", UserID: 1})
	hub.Subscribe(topic, broken, ConnInfo{ConnID: "broken", UserID: 2})

	hub.Broadcast(topic, map[string]any{"type": "message"})

	assert.True(t, broken.closed)
	assert.Equal(t, 1, hub.Subscribers(topic))

	hub.Broadcast(topic, map[string]any{"type": "message"})
	assert.Len(t, healthy.writes, 2)
}

type recordedEvent struct {
	routingKey string
	envelope   observability.EventEnvelope
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) PublishJSON(_ context.Context, routingKey string, message interface{}, _ map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	envelope, _ := message.(observability.EventEnvelope)
	p.events = append(p.events, recordedEvent{routingKey: routingKey, envelope: envelope})
	return nil
}

func (p *recordingPublisher) recorded() []recordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]recordedEvent(nil), p.events...)
}

func TestBroadcastFailurePublishesWSErrorEvent(t *testing.T) {
	publisher := &recordingPublisher{}
	observability.SetPublisher(publisher)
	defer observability.SetPublisher(nil)

	hub := NewHub()
	topic := Messages(7)
	broken := &fakeConn{failure: errors.New("write: broken pipe")}
	hub.Subscribe(topic, broken, ConnInfo{ConnID: "broken", UserID: 2, RequestID: "req-1"})

	hub.Broadcast(topic, map[string]any{"type": "message"})

	events := publisher.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, "ws_events.messages.7", events[0].routingKey)
	assert.Equal(t, "ws_events", events[0].envelope.EventType)
	assert.Equal(t, "ws_error", events[0].envelope.EventName)
	assert.Equal(t, 0, hub.Subscribers(topic))
}

func TestTopicRoutingKeys(t *testing.T) {
	assert.Equal(t, "ws_events.messages.4", Messages(4).RoutingKey())
	assert.Equal(t, "ws_events.typing.4", Typing(4).RoutingKey())
	assert.Equal(t, "ws_events.presence", Presence().RoutingKey())
}

func TestTopicsAreDistinctKeys(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{}
	hub.Subscribe(Messages(1), conn, ConnInfo{ConnID: "a"})

	assert.Equal(t, 1, hub.Subscribers(Messages(1)))
	assert.Equal(t, 0, hub.Subscribers(Typing(1)))
	assert.Equal(t, 0, hub.Subscribers(Messages(2)))
}
