package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avolkov/labchat/internal/domain/model"
	"github.com/avolkov/labchat/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ConfigStore = (*ConfigRepo)(nil)

// ConfigRepo is the SQLite implementation of the ConfigStore port interface.
// Tokens arrive already encrypted; this repo never sees plaintext.
type ConfigRepo struct {
	db *DB
}

// NewConfigRepo creates a new ConfigRepo backed by the given DB.
func NewConfigRepo(db *DB) *ConfigRepo {
	return &ConfigRepo{db: db}
}

const configColumns = `id, owner_id, display_name, base_url, encrypted_token, project_ref,
	is_active, validation_message, validation_code, account_name, created_at, updated_at`

// Insert persists a new credential config.
func (r *ConfigRepo) Insert(ctx context.Context, cfg model.CredentialConfig) error {
	const query = `INSERT INTO gitlab_configs (` + configColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Writer.ExecContext(ctx, query,
		cfg.ID, cfg.OwnerID, cfg.DisplayName, cfg.BaseURL, cfg.EncryptedToken, cfg.ProjectRef,
		cfg.IsActive, cfg.ValidationMessage, string(cfg.ValidationCode), cfg.AccountName,
		cfg.CreatedAt.UTC(), cfg.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert gitlab config %q: %w", cfg.ID, err)
	}
	return nil
}

// GetByID returns the config with the given id owned by ownerID. A row owned
// by a different user is reported exactly like a missing row.
func (r *ConfigRepo) GetByID(ctx context.Context, id, ownerID string) (*model.CredentialConfig, error) {
	const query = `SELECT ` + configColumns + ` FROM gitlab_configs WHERE id = ? AND owner_id = ?`

	cfg, err := scanConfig(r.db.Reader.QueryRowContext(ctx, query, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("gitlab config %q: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get gitlab config %q: %w", id, err)
	}
	return cfg, nil
}

// ListByOwner returns all configs owned by ownerID in insertion order.
func (r *ConfigRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.CredentialConfig, error) {
	const query = `SELECT ` + configColumns + ` FROM gitlab_configs WHERE owner_id = ? ORDER BY rowid`

	rows, err := r.db.Reader.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list gitlab configs: %w", err)
	}
	defer rows.Close()

	configs := []model.CredentialConfig{}
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("scan gitlab config: %w", err)
		}
		configs = append(configs, *cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gitlab configs: %w", err)
	}

	return configs, nil
}

// Update overwrites the stored config matching cfg.ID and cfg.OwnerID.
func (r *ConfigRepo) Update(ctx context.Context, cfg model.CredentialConfig) error {
	const query = `UPDATE gitlab_configs
		SET display_name = ?, base_url = ?, encrypted_token = ?, project_ref = ?,
			is_active = ?, validation_message = ?, validation_code = ?, account_name = ?,
			updated_at = ?
		WHERE id = ? AND owner_id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query,
		cfg.DisplayName, cfg.BaseURL, cfg.EncryptedToken, cfg.ProjectRef,
		cfg.IsActive, cfg.ValidationMessage, string(cfg.ValidationCode), cfg.AccountName,
		cfg.UpdatedAt.UTC(),
		cfg.ID, cfg.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("update gitlab config %q: %w", cfg.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		// Also covers an update racing a delete: the row is simply gone.
		return fmt.Errorf("gitlab config %q: %w", cfg.ID, model.ErrNotFound)
	}
	return nil
}

// Delete permanently removes the config.
func (r *ConfigRepo) Delete(ctx context.Context, id, ownerID string) error {
	const query = `DELETE FROM gitlab_configs WHERE id = ? AND owner_id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete gitlab config %q: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("gitlab config %q: %w", id, model.ErrNotFound)
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for the shared scan helper.
type scanner interface {
	Scan(dest ...any) error
}

func scanConfig(s scanner) (*model.CredentialConfig, error) {
	var cfg model.CredentialConfig
	var code string
	var createdAt, updatedAt string

	err := s.Scan(
		&cfg.ID, &cfg.OwnerID, &cfg.DisplayName, &cfg.BaseURL, &cfg.EncryptedToken, &cfg.ProjectRef,
		&cfg.IsActive, &cfg.ValidationMessage, &code, &cfg.AccountName,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	cfg.ValidationCode = model.ValidationCode(code)

	cfg.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	cfg.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &cfg, nil
}
