package driven

import (
	"context"
	"time"

	"github.com/avolkov/labchat/internal/domain/model"
)

// UserStore defines the driven port for user account persistence.
type UserStore interface {
	// Insert persists a new user. Returns model.ErrConflict (wrapped) when
	// the email or username is already taken.
	Insert(ctx context.Context, user model.User) error

	// GetByEmail returns the user with the given email, or nil when absent.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// GetByID returns the user with the given id, or nil when absent.
	GetByID(ctx context.Context, id string) (*model.User, error)

	// UpdateLastLogin records a successful login time.
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}
