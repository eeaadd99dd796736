package driven

import (
	"context"
	"time"

	"github.com/avolkov/labchat/internal/domain/model"
)

// ChatStore defines the driven port for chat session and message persistence.
// Sessions are owner-scoped the same way credential configs are.
type ChatStore interface {
	// InsertSession persists a new session.
	InsertSession(ctx context.Context, session model.ChatSession) error

	// GetSession returns the session with the given id owned by ownerID.
	// Returns model.ErrNotFound (wrapped) when absent or owned by another user.
	GetSession(ctx context.Context, id, ownerID string) (*model.ChatSession, error)

	// ListSessions returns all sessions owned by ownerID, newest first.
	ListSessions(ctx context.Context, ownerID string) ([]model.ChatSession, error)

	// TouchSession bumps a session's updated_at after new messages land.
	TouchSession(ctx context.Context, id string, at time.Time) error

	// InsertMessage appends a message to its session.
	InsertMessage(ctx context.Context, msg model.ChatMessage) error

	// ListMessages returns a session's messages in insertion order.
	ListMessages(ctx context.Context, sessionID string) ([]model.ChatMessage, error)
}
