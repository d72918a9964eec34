package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"coach-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions for conversation messages.
type MessageRepository interface {
	AppendMessage(ctx context.Context, conversationID int, senderID int, senderRole models.Role, kind models.MessageKind, content string, media *models.Media) (models.Message, error)
	ListMessages(ctx context.Context, conversationID int) ([]models.Message, error)
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, conversation_id, sender_id, sender_role, kind, content, media_url, media_type, read, created_at`

// AppendMessage inserts a message and, in the same transaction, updates
// the conversation preview and bumps the peer side's unread counter. The
// increment is a single UPDATE expression so concurrent senders never
// lose counts to a read-then-write race.
func (r *MessageRepo) AppendMessage(ctx context.Context, conversationID int, senderID int, senderRole models.Role, kind models.MessageKind, content string, media *models.Media) (models.Message, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, err
	}
	defer tx.Rollback()

	var mediaURL, mediaType *string
	if media != nil {
		mediaURL, mediaType = &media.URL, &media.Type
	}

	var msg models.Message
	if err := tx.QueryRowxContext(ctx,
		`INSERT INTO messages (conversation_id, sender_id, sender_role, kind, content, media_url, media_type)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         RETURNING `+messageColumns,
		conversationID, senderID, senderRole, kind, content, mediaURL, mediaType).
		StructScan(&msg); err != nil {
		return models.Message{}, err
	}

	counter := `staff_unread`
	if senderRole == models.RoleStaff {
		counter = `client_unread`
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE conversations
         SET preview=$1, last_message_at=$2, `+counter+` = `+counter+` + 1
         WHERE id=$3`,
		msg.DisplayText(), msg.CreatedAt, conversationID)
	if err != nil {
		return models.Message{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.Message{}, ErrConversationNotFound
	}

	if err := tx.Commit(); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// ListMessages returns a conversation's messages ordered by creation
// time, insertion order breaking ties.
func (r *MessageRepo) ListMessages(ctx context.Context, conversationID int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM messages
         WHERE conversation_id=$1 ORDER BY created_at ASC, id ASC`, conversationID)
	return msgs, err
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}
