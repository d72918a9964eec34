package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"coach-service/internal/models"
)

var ErrConversationNotFound = errors.New("conversation not found")

// ConversationRepository abstracts conversation persistence.
type ConversationRepository interface {
	GetOrCreateConversation(ctx context.Context, clientID int) (models.Conversation, error)
	GetConversation(ctx context.Context, conversationID int) (models.Conversation, error)
	ListConversations(ctx context.Context) ([]models.Conversation, error)
	MarkRead(ctx context.Context, conversationID int, reader models.Role, upTo time.Time) error
	UnreadCount(ctx context.Context, conversationID int, side models.Role) (int, error)
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

const conversationColumns = `id, client_id, preview, last_message_at, client_unread, staff_unread, created_at`

// GetOrCreateConversation returns the single conversation for a client,
// creating it on first contact. Safe to call concurrently: the insert is
// a no-op when the row already exists.
func (r *ConversationRepo) GetOrCreateConversation(ctx context.Context, clientID int) (models.Conversation, error) {
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO conversations (client_id) VALUES ($1) ON CONFLICT (client_id) DO NOTHING`, clientID); err != nil {
		return models.Conversation{}, err
	}

	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv,
		`SELECT `+conversationColumns+` FROM conversations WHERE client_id=$1`, clientID)
	return conv, err
}

// GetConversation fetches a conversation by id.
func (r *ConversationRepo) GetConversation(ctx context.Context, conversationID int) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv,
		`SELECT `+conversationColumns+` FROM conversations WHERE id=$1`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// ListConversations returns all conversations for the staff console,
// most recently active first.
func (r *ConversationRepo) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := r.db.SelectContext(ctx, &convs,
		`SELECT `+conversationColumns+` FROM conversations ORDER BY last_message_at DESC`)
	return convs, err
}

// MarkRead flags the peer's unread messages up to the timestamp as read
// and resets the reader's own counter to zero. Idempotent: a second call
// with no new messages leaves the counter at zero.
func (r *ConversationRepo) MarkRead(ctx context.Context, conversationID int, reader models.Role, upTo time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE messages SET read = TRUE
         WHERE conversation_id=$1 AND sender_role=$2 AND read = FALSE AND created_at <= $3`,
		conversationID, reader.Peer(), upTo); err != nil {
		return err
	}

	counter := `client_unread`
	if reader == models.RoleStaff {
		counter = `staff_unread`
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE conversations SET `+counter+` = 0 WHERE id=$1`, conversationID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrConversationNotFound
	}

	return tx.Commit()
}

// UnreadCount recomputes a side's unread counter from the message rows.
// Used to reconcile the denormalized counter against ground truth.
func (r *ConversationRepo) UnreadCount(ctx context.Context, conversationID int, side models.Role) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM messages
         WHERE conversation_id=$1 AND sender_role=$2 AND read = FALSE`,
		conversationID, side.Peer())
	return count, err
}
