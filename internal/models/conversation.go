package models

import "time"

// Role identifies which side of a conversation a user is on. There is a
// single staff account, so every conversation pairs one client with staff.
type Role string

const (
	RoleClient Role = "client"
	RoleStaff  Role = "staff"
)

// Peer returns the opposite side.
func (r Role) Peer() Role {
	if r == RoleClient {
		return RoleStaff
	}
	return RoleClient
}

// Conversation is the single durable thread between a client and staff.
type Conversation struct {
	ID            int       `db:"id" json:"id"`
	ClientID      int       `db:"client_id" json:"client_id"`
	Preview       string    `db:"preview" json:"preview"`
	LastMessageAt time.Time `db:"last_message_at" json:"last_message_at"`
	ClientUnread  int       `db:"client_unread" json:"client_unread"`
	StaffUnread   int       `db:"staff_unread" json:"staff_unread"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Unread returns the unread counter for the given side.
func (c Conversation) Unread(side Role) int {
	if side == RoleClient {
		return c.ClientUnread
	}
	return c.StaffUnread
}

// User is the minimal projection of the account table this service needs:
// bot linking resolves users by email, notifications by id.
type User struct {
	ID    int    `db:"id" json:"id"`
	Email string `db:"email" json:"email"`
	Name  string `db:"name" json:"name"`
	Role  Role   `db:"role" json:"role"`
}
