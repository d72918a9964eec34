package ws

import "fmt"

// TopicKind distinguishes the three event streams the bus carries.
type TopicKind string

const (
	// KindMessages carries durable row-insert events for one conversation.
	KindMessages TopicKind = "messages"
	// KindTyping carries ephemeral typing broadcasts for one conversation.
	KindTyping TopicKind = "typing"
	// KindPresence is the single global online-users stream.
	KindPresence TopicKind = "presence"
)

// Topic is a value, not an ad hoc string: subscriptions and broadcasts
// are keyed by it directly.
type Topic struct {
	Kind           TopicKind
	ConversationID int
}

// Messages is the row-insert topic for a conversation.
func Messages(conversationID int) Topic {
	return Topic{Kind: KindMessages, ConversationID: conversationID}
}

// Typing is the ephemeral typing topic for a conversation.
func Typing(conversationID int) Topic {
	return Topic{Kind: KindTyping, ConversationID: conversationID}
}

// Presence is the global presence topic.
func Presence() Topic {
	return Topic{Kind: KindPresence}
}

// RoutingKey names the topic for audit events.
func (t Topic) RoutingKey() string {
	if t.Kind == KindPresence {
		return "ws_events.presence"
	}
	return fmt.Sprintf("ws_events.%s.%d", t.Kind, t.ConversationID)
}
