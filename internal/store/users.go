package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"backoffice-service/internal/models"
)

// GetUserByUsername retrieves a user by username
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, "SELECT * FROM users WHERE username = $1", username)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, username)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, "SELECT * FROM users WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new user account
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	err := s.db.GetContext(ctx, u, `
		INSERT INTO users (username, password_hash, full_name, can_view_financials)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		u.Username, u.PasswordHash, u.FullName, u.CanViewFinancials)
	if err != nil && strings.Contains(err.Error(), "users_username_key") {
		return validationf("username '%s' already exists", u.Username)
	}
	return err
}

// EnsureUser creates a user by username if it does not exist yet. Used by the
// seed step at startup; existing users keep their stored password hash.
func (s *Store) EnsureUser(ctx context.Context, u *models.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, full_name, can_view_financials)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (username) DO NOTHING`,
		u.Username, u.PasswordHash, u.FullName, u.CanViewFinancials)
	return err
}
