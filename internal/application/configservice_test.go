package application

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/labchat/internal/crypto"
	"github.com/avolkov/labchat/internal/domain/model"
)

// memConfigStore is an in-memory ConfigStore for service tests.
type memConfigStore struct {
	configs []model.CredentialConfig
}

func (s *memConfigStore) Insert(_ context.Context, cfg model.CredentialConfig) error {
	s.configs = append(s.configs, cfg)
	return nil
}

func (s *memConfigStore) GetByID(_ context.Context, id, ownerID string) (*model.CredentialConfig, error) {
	for _, cfg := range s.configs {
		if cfg.ID == id && cfg.OwnerID == ownerID {
			c := cfg
			return &c, nil
		}
	}
	return nil, fmt.Errorf("gitlab config %q: %w", id, model.ErrNotFound)
}

func (s *memConfigStore) ListByOwner(_ context.Context, ownerID string) ([]model.CredentialConfig, error) {
	out := []model.CredentialConfig{}
	for _, cfg := range s.configs {
		if cfg.OwnerID == ownerID {
			out = append(out, cfg)
		}
	}
	return out, nil
}

func (s *memConfigStore) Update(_ context.Context, cfg model.CredentialConfig) error {
	for i, existing := range s.configs {
		if existing.ID == cfg.ID && existing.OwnerID == cfg.OwnerID {
			s.configs[i] = cfg
			return nil
		}
	}
	return fmt.Errorf("gitlab config %q: %w", cfg.ID, model.ErrNotFound)
}

func (s *memConfigStore) Delete(_ context.Context, id, ownerID string) error {
	for i, cfg := range s.configs {
		if cfg.ID == id && cfg.OwnerID == ownerID {
			s.configs = append(s.configs[:i], s.configs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("gitlab config %q: %w", id, model.ErrNotFound)
}

// stubValidator returns a canned result and records the credentials it saw.
type stubValidator struct {
	result    model.ValidationResult
	calls     int
	lastURL   string
	lastToken string
}

func (v *stubValidator) Validate(_ context.Context, baseURL, token string) model.ValidationResult {
	v.calls++
	v.lastURL = baseURL
	v.lastToken = token
	return v.result
}

func validResult(name string) model.ValidationResult {
	return model.ValidationResult{Valid: true, AccountName: name}
}

func invalidResult(code model.ValidationCode, msg string) model.ValidationResult {
	return model.ValidationResult{Code: code, Message: msg}
}

func newTestCipher(t *testing.T) *crypto.TokenCipher {
	t.Helper()
	c, err := crypto.NewTokenCipher(bytes.Repeat([]byte{0x42}, crypto.KeySize))
	require.NoError(t, err)
	return c
}

func newConfigService(t *testing.T, store *memConfigStore, v *stubValidator) *ConfigService {
	t.Helper()
	return NewConfigService(store, v, newTestCipher(t), slog.New(slog.DiscardHandler))
}

func TestConfigService_CreateValid(t *testing.T) {
	store := &memConfigStore{}
	validator := &stubValidator{result: validResult("alice")}
	svc := newConfigService(t, store, validator)

	cfg, err := svc.Create(context.Background(), "owner-1", CreateConfigInput{
		DisplayName: "Work GitLab",
		BaseURL:     "https://gitlab.example.com",
		Token:       "glpat-abc",
	})

	require.NoError(t, err)
	assert.True(t, cfg.IsActive)
	assert.Equal(t, "alice", cfg.AccountName)
	assert.Empty(t, cfg.ValidationCode)
	assert.Empty(t, cfg.ValidationMessage)
	assert.NotEmpty(t, cfg.ID)
	assert.Equal(t, "owner-1", cfg.OwnerID)
	assert.Equal(t, 1, validator.calls)
	require.Len(t, store.configs, 1)
}

func TestConfigService_CreateInvalidTokenStillPersists(t *testing.T) {
	store := &memConfigStore{}
	validator := &stubValidator{result: invalidResult(model.CodeInvalidToken, "Invalid access token or token expired")}
	svc := newConfigService(t, store, validator)

	cfg, err := svc.Create(context.Background(), "owner-1", CreateConfigInput{
		BaseURL: "https://gitlab.example.com",
		Token:   "glpat-abc",
	})

	require.NoError(t, err, "a failed validation is data, not an error")
	assert.False(t, cfg.IsActive)
	assert.Equal(t, model.CodeInvalidToken, cfg.ValidationCode)
	assert.Empty(t, cfg.AccountName)
	require.Len(t, store.configs, 1)

	// The token is encrypted at rest and round-trips.
	plaintext, err := svc.PlaintextToken(cfg)
	require.NoError(t, err)
	assert.Equal(t, "glpat-abc", plaintext)
}

func TestConfigService_CreateEmptyTokenFailsBeforeSideEffects(t *testing.T) {
	store := &memConfigStore{}
	validator := &stubValidator{result: validResult("alice")}
	svc := newConfigService(t, store, validator)

	_, err := svc.Create(context.Background(), "owner-1", CreateConfigInput{
		BaseURL: "https://gitlab.example.com",
		Token:   "   ",
	})

	require.ErrorIs(t, err, model.ErrValidation)
	assert.Zero(t, validator.calls, "no probe before input validation passes")
	assert.Empty(t, store.configs)
}

func TestConfigService_CreateEmptyURLFails(t *testing.T) {
	store := &memConfigStore{}
	validator := &stubValidator{result: validResult("alice")}
	svc := newConfigService(t, store, validator)

	_, err := svc.Create(context.Background(), "owner-1", CreateConfigInput{Token: "glpat-abc"})

	require.ErrorIs(t, err, model.ErrValidation)
	assert.Zero(t, validator.calls)
	assert.Empty(t, store.configs)
}

func TestConfigService_UpdateKeepTokenRevalidatesStoredSecret(t *testing.T) {
	store := &memConfigStore{}
	validator := &stubValidator{result: validResult("alice")}
	svc := newConfigService(t, store, validator)
	ctx := context.Background()

	created, err := svc.Create(ctx, "owner-1", CreateConfigInput{
		BaseURL: "https://old.example.com",
		Token:   "glpat-abc",
	})
	require.NoError(t, err)
	originalBlob := append([]byte(nil), created.EncryptedToken...)

	// A URL change with a kept token now fails validation.
	validator.result = invalidResult(model.CodeInvalidToken, "Invalid access token or token expired")
	updated, err := svc.Update(ctx, created.ID, "owner-1", UpdateConfigInput{
		DisplayName: "Renamed",
		BaseURL:     "https://new.example.com",
		Token:       model.KeepToken(),
	})
	require.NoError(t, err)

	assert.Equal(t, "https://new.example.com", validator.lastURL)
	assert.Equal(t, "glpat-abc", validator.lastToken, "kept token is decrypted and re-probed")
	assert.False(t, updated.IsActive)
	assert.Equal(t, model.CodeInvalidToken, updated.ValidationCode)
	assert.Equal(t, originalBlob, updated.EncryptedToken, "stored ciphertext untouched on keep")
	assert.Equal(t, "Renamed", updated.DisplayName, "field changes persist despite failed validation")
}

func TestConfigService_UpdateReplaceTokenReencrypts(t *testing.T) {
	store := &memConfigStore{}
	validator := &stubValidator{result: validResult("alice")}
	svc := newConfigService(t, store, validator)
	ctx := context.Background()

	created, err := svc.Create(ctx, "owner-1", CreateConfigInput{
		BaseURL: "https://gitlab.example.com",
		Token:   "glpat-old",
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, "owner-1", UpdateConfigInput{
		BaseURL: "https://gitlab.example.com",
		Token:   model.ReplaceToken("glpat-new"),
	})
	require.NoError(t, err)

	assert.Equal(t, "glpat-new", validator.lastToken)
	assert.NotEqual(t, created.EncryptedToken, updated.EncryptedToken)

	plaintext, err := svc.PlaintextToken(updated)
	require.NoError(t, err)
	assert.Equal(t, "glpat-new", plaintext)
}

func TestConfigService_UpdateEmptyURLFailsBeforeProbe(t *testing.T) {
	store := &memConfigStore{}
	validator := &stubValidator{result: validResult("alice")}
	svc := newConfigService(t, store, validator)
	ctx := context.Background()

	created, err := svc.Create(ctx, "owner-1", CreateConfigInput{
		BaseURL: "https://gitlab.example.com",
		Token:   "glpat-abc",
	})
	require.NoError(t, err)
	callsAfterCreate := validator.calls

	_, err = svc.Update(ctx, created.ID, "owner-1", UpdateConfigInput{Token: model.KeepToken()})
	require.ErrorIs(t, err, model.ErrValidation)
	assert.Equal(t, callsAfterCreate, validator.calls)
}

func TestConfigService_UpdateReplaceEmptyTokenFails(t *testing.T) {
	store := &memConfigStore{}
	validator := &stubValidator{result: validResult("alice")}
	svc := newConfigService(t, store, validator)
	ctx := context.Background()

	created, err := svc.Create(ctx, "owner-1", CreateConfigInput{
		BaseURL: "https://gitlab.example.com",
		Token:   "glpat-abc",
	})
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, "owner-1", UpdateConfigInput{
		BaseURL: "https://gitlab.example.com",
		Token:   model.ReplaceToken("  "),
	})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestConfigService_UpdateForeignOwnerNotFoundBeforeProbe(t *testing.T) {
	store := &memConfigStore{}
	validator := &stubValidator{result: validResult("alice")}
	svc := newConfigService(t, store, validator)
	ctx := context.Background()

	created, err := svc.Create(ctx, "owner-1", CreateConfigInput{
		BaseURL: "https://gitlab.example.com",
		Token:   "glpat-abc",
	})
	require.NoError(t, err)
	callsAfterCreate := validator.calls

	_, err = svc.Update(ctx, created.ID, "owner-2", UpdateConfigInput{
		BaseURL: "https://gitlab.example.com",
		Token:   model.KeepToken(),
	})
	require.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, callsAfterCreate, validator.calls, "ownership check precedes any probe")
}

func TestConfigService_UpdateCorruptStoredTokenSurfacesDecryptError(t *testing.T) {
	store := &memConfigStore{}
	validator := &stubValidator{result: validResult("alice")}
	svc := newConfigService(t, store, validator)
	ctx := context.Background()

	created, err := svc.Create(ctx, "owner-1", CreateConfigInput{
		BaseURL: "https://gitlab.example.com",
		Token:   "glpat-abc",
	})
	require.NoError(t, err)

	// Corrupt the stored ciphertext behind the service's back.
	store.configs[0].EncryptedToken[len(store.configs[0].EncryptedToken)-1] ^= 0xff

	_, err = svc.Update(ctx, created.ID, "owner-1", UpdateConfigInput{
		BaseURL: "https://gitlab.example.com",
		Token:   model.KeepToken(),
	})
	assert.ErrorIs(t, err, crypto.ErrDecrypt)
}

func TestConfigService_GetListDelete(t *testing.T) {
	store := &memConfigStore{}
	validator := &stubValidator{result: validResult("alice")}
	svc := newConfigService(t, store, validator)
	ctx := context.Background()

	created, err := svc.Create(ctx, "owner-1", CreateConfigInput{
		BaseURL: "https://gitlab.example.com",
		Token:   "glpat-abc",
	})
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.Get(ctx, created.ID, "owner-2")
	assert.ErrorIs(t, err, model.ErrNotFound)

	configs, err := svc.List(ctx, "owner-1")
	require.NoError(t, err)
	assert.Len(t, configs, 1)

	assert.ErrorIs(t, svc.Delete(ctx, created.ID, "owner-2"), model.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, created.ID, "owner-1"))
	assert.ErrorIs(t, svc.Delete(ctx, created.ID, "owner-1"), model.ErrNotFound)
}
