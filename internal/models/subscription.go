package models

import "time"

// PushSubscription holds the endpoint and key material needed to address
// one user's browser push endpoint. One row per user, upserted on
// re-registration and deleted when delivery reports the endpoint gone.
type PushSubscription struct {
	UserID    int       `db:"user_id" json:"user_id"`
	Endpoint  string    `db:"endpoint" json:"endpoint"`
	P256dh    string    `db:"p256dh" json:"p256dh"`
	Auth      string    `db:"auth" json:"auth"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// BotLink maps an application user to their chat identity on the bot
// platform. Unlinking deactivates instead of deleting so re-linking is
// a plain upsert.
type BotLink struct {
	UserID   int       `db:"user_id" json:"user_id"`
	ChatID   int64     `db:"chat_id" json:"chat_id"`
	Active   bool      `db:"active" json:"active"`
	LinkedAt time.Time `db:"linked_at" json:"linked_at"`
}
