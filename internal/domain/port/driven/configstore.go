package driven

import (
	"context"

	"github.com/avolkov/labchat/internal/domain/model"
)

// ConfigStore defines the driven port for CredentialConfig persistence.
// All reads and mutations are owner-scoped: an id that exists but belongs to
// a different owner behaves exactly like a missing id.
type ConfigStore interface {
	// Insert persists a new config. The caller assigns ID and timestamps.
	Insert(ctx context.Context, cfg model.CredentialConfig) error

	// GetByID returns the config with the given id owned by ownerID.
	// Returns model.ErrNotFound (wrapped) when absent or owned by another user.
	GetByID(ctx context.Context, id, ownerID string) (*model.CredentialConfig, error)

	// ListByOwner returns all configs owned by ownerID in insertion order.
	// Returns an empty slice, never nil, when the owner has none.
	ListByOwner(ctx context.Context, ownerID string) ([]model.CredentialConfig, error)

	// Update overwrites the stored config matching cfg.ID and cfg.OwnerID.
	// Returns model.ErrNotFound (wrapped) when no row matches, including the
	// case of a concurrent delete.
	Update(ctx context.Context, cfg model.CredentialConfig) error

	// Delete permanently removes the config. Returns model.ErrNotFound
	// (wrapped) under the same ownership rule as GetByID.
	Delete(ctx context.Context, id, ownerID string) error
}
