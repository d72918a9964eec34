package models

import "time"

// MessageKind is the content type of a message.
type MessageKind string

const (
	KindText  MessageKind = "text"
	KindImage MessageKind = "image"
	KindVideo MessageKind = "video"
	KindAudio MessageKind = "audio"
)

// Valid reports whether the kind is one of the supported values.
func (k MessageKind) Valid() bool {
	switch k {
	case KindText, KindImage, KindVideo, KindAudio:
		return true
	}
	return false
}

// Placeholder is the preview text used for non-text kinds.
func (k MessageKind) Placeholder() string {
	switch k {
	case KindImage:
		return "\U0001F4F7 Imagen"
	case KindVideo:
		return "\U0001F3A5 Video"
	case KindAudio:
		return "\U0001F3A4 Audio"
	default:
		return ""
	}
}

// Media is an optional attachment reference carried by a message.
type Media struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

// Message belongs to exactly one conversation. It is immutable after
// creation except for the read flag, which flips false->true exactly once.
type Message struct {
	ID             int         `db:"id" json:"id"`
	ConversationID int         `db:"conversation_id" json:"conversation_id"`
	SenderID       int         `db:"sender_id" json:"sender_id"`
	SenderRole     Role        `db:"sender_role" json:"sender_role"`
	Kind           MessageKind `db:"kind" json:"kind"`
	Content        string      `db:"content" json:"content"`
	MediaURL       *string     `db:"media_url" json:"media_url,omitempty"`
	MediaType      *string     `db:"media_type" json:"media_type,omitempty"`
	Read           bool        `db:"read" json:"read"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
}

// DisplayText is what conversation previews and notifications show for
// the message: its content for text, a fixed placeholder otherwise.
func (m Message) DisplayText() string {
	if m.Kind == KindText {
		return m.Content
	}
	return m.Kind.Placeholder()
}
