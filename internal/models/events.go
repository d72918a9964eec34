package models

import "time"

// ChatEvent is broadcast to a conversation's message topic.
type ChatEvent struct {
	Type         string   `json:"type"`
	Message      *Message `json:"message,omitempty"`
	Reader       Role     `json:"reader,omitempty"`
	ReadUpTo     string   `json:"read_up_to,omitempty"`
	Conversation int      `json:"conversation_id"`
}

// TypingEvent is the ephemeral typing broadcast. It is never stored;
// consumers clear the indicator after a fixed decay window.
type TypingEvent struct {
	Type           string `json:"type"`
	ConversationID int    `json:"conversation_id"`
	UserID         int    `json:"user_id"`
	Role           Role   `json:"role"`
}

// PresenceEntry is one session's slot in a presence sync.
type PresenceEntry struct {
	UserID   int       `json:"user_id"`
	Role     Role      `json:"role"`
	LastSeen time.Time `json:"last_seen"`
}

// PresenceEvent carries the full presence set after a track/untrack.
type PresenceEvent struct {
	Type   string          `json:"type"`
	Online []PresenceEntry `json:"online"`
}
