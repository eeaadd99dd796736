// Package application contains the use-case services sitting between the
// HTTP driving adapter and the driven ports.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/labchat/internal/crypto"
	"github.com/avolkov/labchat/internal/domain/model"
	"github.com/avolkov/labchat/internal/domain/port/driven"
)

// CreateConfigInput carries the payload of a create request. OwnerID comes
// from the authenticated request context, never from the payload.
type CreateConfigInput struct {
	DisplayName string
	BaseURL     string
	Token       string
	ProjectRef  string
}

// UpdateConfigInput carries the payload of an update request. BaseURL is
// required; Token distinguishes "keep the stored token" from "replace it".
type UpdateConfigInput struct {
	DisplayName string
	BaseURL     string
	ProjectRef  string
	Token       model.TokenUpdate
}

// ConfigService owns the lifecycle of credential configs. Every create and
// update runs exactly one validation probe; its outcome is data on the
// persisted record, never an error. Input and ownership errors abort before
// any side effect.
type ConfigService struct {
	store     driven.ConfigStore
	validator driven.CredentialValidator
	cipher    *crypto.TokenCipher
	logger    *slog.Logger
}

// NewConfigService creates a ConfigService with all required dependencies.
func NewConfigService(
	store driven.ConfigStore,
	validator driven.CredentialValidator,
	cipher *crypto.TokenCipher,
	logger *slog.Logger,
) *ConfigService {
	return &ConfigService{
		store:     store,
		validator: validator,
		cipher:    cipher,
		logger:    logger,
	}
}

// Create validates the supplied credential, encrypts the token, and persists
// a new config. A failed validation does not block creation; it is recorded
// on the config so the user can see and correct the problem.
func (s *ConfigService) Create(ctx context.Context, ownerID string, in CreateConfigInput) (*model.CredentialConfig, error) {
	baseURL := strings.TrimSpace(in.BaseURL)
	token := strings.TrimSpace(in.Token)

	if baseURL == "" {
		return nil, fmt.Errorf("%w: gitlab url required", model.ErrValidation)
	}
	if token == "" {
		return nil, fmt.Errorf("%w: access token required", model.ErrValidation)
	}

	result := s.validator.Validate(ctx, baseURL, token)

	encrypted, err := s.cipher.Encrypt(token)
	if err != nil {
		return nil, fmt.Errorf("encrypt token: %w", err)
	}

	now := time.Now().UTC()
	cfg := model.CredentialConfig{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		DisplayName:    strings.TrimSpace(in.DisplayName),
		BaseURL:        baseURL,
		EncryptedToken: encrypted,
		ProjectRef:     strings.TrimSpace(in.ProjectRef),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	cfg.ApplyValidation(result)

	if err := s.store.Insert(ctx, cfg); err != nil {
		return nil, err
	}

	s.logger.Info("gitlab config created",
		"config_id", cfg.ID,
		"base_url", cfg.BaseURL,
		"is_active", cfg.IsActive,
		"validation_code", string(cfg.ValidationCode),
	)
	return &cfg, nil
}

// Update merges the payload into an existing config and re-validates. When
// the token is kept, the stored token is decrypted and re-validated against
// the possibly changed base URL: a URL change alone must re-probe the prior
// secret. Field changes are persisted even when the new validation fails.
func (s *ConfigService) Update(ctx context.Context, id, ownerID string, in UpdateConfigInput) (*model.CredentialConfig, error) {
	baseURL := strings.TrimSpace(in.BaseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("%w: gitlab url required", model.ErrValidation)
	}

	cfg, err := s.store.GetByID(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	var token string
	newToken, replace := in.Token.Replacement()
	if replace {
		token = strings.TrimSpace(newToken)
		if token == "" {
			return nil, fmt.Errorf("%w: access token required", model.ErrValidation)
		}
	} else {
		token, err = s.cipher.Decrypt(cfg.EncryptedToken)
		if err != nil {
			// Key mismatch or corrupt record; surfaced, never retried.
			return nil, fmt.Errorf("stored token for config %q: %w", id, err)
		}
	}

	result := s.validator.Validate(ctx, baseURL, token)

	if replace {
		encrypted, err := s.cipher.Encrypt(token)
		if err != nil {
			return nil, fmt.Errorf("encrypt token: %w", err)
		}
		cfg.EncryptedToken = encrypted
	}

	cfg.DisplayName = strings.TrimSpace(in.DisplayName)
	cfg.BaseURL = baseURL
	cfg.ProjectRef = strings.TrimSpace(in.ProjectRef)
	cfg.UpdatedAt = time.Now().UTC()
	cfg.ApplyValidation(result)

	if err := s.store.Update(ctx, *cfg); err != nil {
		return nil, err
	}

	s.logger.Info("gitlab config updated",
		"config_id", cfg.ID,
		"base_url", cfg.BaseURL,
		"token_replaced", replace,
		"is_active", cfg.IsActive,
		"validation_code", string(cfg.ValidationCode),
	)
	return cfg, nil
}

// Get returns one config owned by ownerID.
func (s *ConfigService) Get(ctx context.Context, id, ownerID string) (*model.CredentialConfig, error) {
	return s.store.GetByID(ctx, id, ownerID)
}

// List returns all configs owned by ownerID in insertion order.
func (s *ConfigService) List(ctx context.Context, ownerID string) ([]model.CredentialConfig, error) {
	return s.store.ListByOwner(ctx, ownerID)
}

// Delete permanently removes a config owned by ownerID.
func (s *ConfigService) Delete(ctx context.Context, id, ownerID string) error {
	if err := s.store.Delete(ctx, id, ownerID); err != nil {
		return err
	}
	s.logger.Info("gitlab config deleted", "config_id", id)
	return nil
}

// PlaintextToken decrypts a config's stored token for use against the
// GitLab API. Callers must not persist or log the result.
func (s *ConfigService) PlaintextToken(cfg *model.CredentialConfig) (string, error) {
	return s.cipher.Decrypt(cfg.EncryptedToken)
}
