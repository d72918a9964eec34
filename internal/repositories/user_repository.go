package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"coach-service/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository resolves users by id and email. Account management
// itself lives in the auth collaborator; this service only reads.
type UserRepository interface {
	GetUser(ctx context.Context, userID int) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

// UserRepo is the sqlx implementation.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetUser fetches a user by id.
func (r *UserRepo) GetUser(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user,
		`SELECT id, email, name, role FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// FindByEmail looks a user up by email, case-insensitively.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user,
		`SELECT id, email, name, role FROM users WHERE LOWER(email)=LOWER($1)`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}
