package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avolkov/labchat/internal/domain/model"
	"github.com/avolkov/labchat/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.UserStore = (*UserRepo)(nil)

// UserRepo is the SQLite implementation of the UserStore port interface.
type UserRepo struct {
	db *DB
}

// NewUserRepo creates a new UserRepo backed by the given DB.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// Insert persists a new user. A unique constraint violation on email or
// username is reported as model.ErrConflict.
func (r *UserRepo) Insert(ctx context.Context, user model.User) error {
	const query = `INSERT INTO users (id, email, username, password_hash, full_name, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Writer.ExecContext(ctx, query,
		user.ID, user.Email, user.Username, user.PasswordHash, user.FullName,
		user.IsActive, user.CreatedAt.UTC(), user.UpdatedAt.UTC(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return fmt.Errorf("user %q: %w", user.Email, model.ErrConflict)
		}
		return fmt.Errorf("insert user %q: %w", user.Email, err)
	}
	return nil
}

// GetByEmail returns the user with the given email, or nil when absent.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getBy(ctx, "email", email)
}

// GetByID returns the user with the given id, or nil when absent.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserRepo) getBy(ctx context.Context, column, value string) (*model.User, error) {
	query := `SELECT id, email, username, password_hash, full_name, is_active, created_at, updated_at, last_login
		FROM users WHERE ` + column + ` = ?`

	var user model.User
	var createdAt, updatedAt string
	var lastLogin sql.NullString

	err := r.db.Reader.QueryRowContext(ctx, query, value).Scan(
		&user.ID, &user.Email, &user.Username, &user.PasswordHash, &user.FullName,
		&user.IsActive, &createdAt, &updatedAt, &lastLogin,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by %s: %w", column, err)
	}

	user.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	user.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	if lastLogin.Valid {
		t, err := parseTime(lastLogin.String)
		if err != nil {
			return nil, fmt.Errorf("parse last_login: %w", err)
		}
		user.LastLogin = &t
	}

	return &user, nil
}

// UpdateLastLogin records a successful login time.
func (r *UserRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE users SET last_login = ? WHERE id = ?`

	_, err := r.db.Writer.ExecContext(ctx, query, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("update last_login for user %q: %w", id, err)
	}
	return nil
}
