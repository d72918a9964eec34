package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"coach-service/internal/models"
)

var ErrSubscriptionNotFound = errors.New("push subscription not found")

// PushSubscriptionRepository persists browser push subscriptions. One
// row per user; registration upserts, revocation and terminal delivery
// failures delete.
type PushSubscriptionRepository interface {
	Upsert(ctx context.Context, sub models.PushSubscription) error
	GetByUser(ctx context.Context, userID int) (models.PushSubscription, error)
	ListAll(ctx context.Context) ([]models.PushSubscription, error)
	Delete(ctx context.Context, userID int) error
}

// PushSubscriptionRepo is the sqlx implementation.
type PushSubscriptionRepo struct {
	db *sqlx.DB
}

// NewPushSubscriptionRepo constructs a PushSubscriptionRepo.
func NewPushSubscriptionRepo(db *sqlx.DB) *PushSubscriptionRepo {
	return &PushSubscriptionRepo{db: db}
}

// Upsert registers or refreshes a user's subscription.
func (r *PushSubscriptionRepo) Upsert(ctx context.Context, sub models.PushSubscription) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO push_subscriptions (user_id, endpoint, p256dh, auth) VALUES ($1, $2, $3, $4)
         ON CONFLICT (user_id) DO UPDATE SET endpoint = EXCLUDED.endpoint, p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth`,
		sub.UserID, sub.Endpoint, sub.P256dh, sub.Auth)
	return err
}

// GetByUser returns the user's subscription if one exists.
func (r *PushSubscriptionRepo) GetByUser(ctx context.Context, userID int) (models.PushSubscription, error) {
	var sub models.PushSubscription
	err := r.db.GetContext(ctx, &sub,
		`SELECT user_id, endpoint, p256dh, auth, created_at FROM push_subscriptions WHERE user_id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PushSubscription{}, ErrSubscriptionNotFound
	}
	return sub, err
}

// ListAll returns every stored subscription, for broadcast dispatches.
func (r *PushSubscriptionRepo) ListAll(ctx context.Context) ([]models.PushSubscription, error) {
	var subs []models.PushSubscription
	err := r.db.SelectContext(ctx, &subs,
		`SELECT user_id, endpoint, p256dh, auth, created_at FROM push_subscriptions`)
	return subs, err
}

// Delete removes a user's subscription. Called on explicit revocation
// and when a delivery reports the endpoint gone.
func (r *PushSubscriptionRepo) Delete(ctx context.Context, userID int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE user_id=$1`, userID)
	return err
}
