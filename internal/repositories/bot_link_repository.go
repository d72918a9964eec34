package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"coach-service/internal/models"
)

var ErrBotLinkNotFound = errors.New("bot link not found")

// BotLinkRepository persists the mapping between application users and
// their chat identity on the bot platform.
type BotLinkRepository interface {
	Link(ctx context.Context, userID int, chatID int64) error
	DeactivateByChat(ctx context.Context, chatID int64) (bool, error)
	GetActiveByUser(ctx context.Context, userID int) (models.BotLink, error)
	ListActive(ctx context.Context) ([]models.BotLink, error)
}

// BotLinkRepo is the sqlx implementation.
type BotLinkRepo struct {
	db *sqlx.DB
}

// NewBotLinkRepo constructs a BotLinkRepo.
func NewBotLinkRepo(db *sqlx.DB) *BotLinkRepo {
	return &BotLinkRepo{db: db}
}

// Link activates (or reactivates) the link between a user and a chat.
// Re-linking is an upsert, never a duplicate row.
func (r *BotLinkRepo) Link(ctx context.Context, userID int, chatID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bot_links (user_id, chat_id, active) VALUES ($1, $2, TRUE)
         ON CONFLICT (user_id) DO UPDATE SET chat_id = EXCLUDED.chat_id, active = TRUE, linked_at = NOW()`,
		userID, chatID)
	return err
}

// DeactivateByChat soft-disables the link owned by a chat identity.
// Returns false when the chat has no active link.
func (r *BotLinkRepo) DeactivateByChat(ctx context.Context, chatID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bot_links SET active = FALSE WHERE chat_id=$1 AND active = TRUE`, chatID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetActiveByUser returns the user's active link if any.
func (r *BotLinkRepo) GetActiveByUser(ctx context.Context, userID int) (models.BotLink, error) {
	var link models.BotLink
	err := r.db.GetContext(ctx, &link,
		`SELECT user_id, chat_id, active, linked_at FROM bot_links WHERE user_id=$1 AND active = TRUE`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.BotLink{}, ErrBotLinkNotFound
	}
	return link, err
}

// ListActive returns every active link, for broadcast dispatches.
func (r *BotLinkRepo) ListActive(ctx context.Context) ([]models.BotLink, error) {
	var links []models.BotLink
	err := r.db.SelectContext(ctx, &links,
		`SELECT user_id, chat_id, active, linked_at FROM bot_links WHERE active = TRUE`)
	return links, err
}
