package application

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/labchat/internal/domain/model"
)

// memUserStore is an in-memory UserStore for service tests.
type memUserStore struct {
	users map[string]model.User // keyed by id
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[string]model.User{}}
}

func (s *memUserStore) Insert(_ context.Context, user model.User) error {
	for _, existing := range s.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return fmt.Errorf("user %q: %w", user.Email, model.ErrConflict)
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, nil
}

func (s *memUserStore) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := s.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (s *memUserStore) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	u.LastLogin = &at
	s.users[id] = u
	return nil
}

func newAuthService(store *memUserStore) *AuthService {
	return NewAuthService(store, []byte("test-jwt-secret"), time.Hour, slog.New(slog.DiscardHandler))
}

func registerInput() RegisterInput {
	return RegisterInput{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "correct-horse",
		FullName: "Alice",
	}
}

func TestAuthService_RegisterAndVerify(t *testing.T) {
	svc := newAuthService(newMemUserStore())

	user, token, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)

	subject, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, subject)
}

func TestAuthService_RegisterRejectsBadInput(t *testing.T) {
	svc := newAuthService(newMemUserStore())
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"missing email", func(in *RegisterInput) { in.Email = "" }},
		{"email without at sign", func(in *RegisterInput) { in.Email = "alice.example.com" }},
		{"short username", func(in *RegisterInput) { in.Username = "al" }},
		{"short password", func(in *RegisterInput) { in.Password = "short" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := registerInput()
			tt.mutate(&in)
			_, _, err := svc.Register(ctx, in)
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	svc := newAuthService(newMemUserStore())
	ctx := context.Background()

	_, _, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	dup := registerInput()
	dup.Username = "alice2"
	_, _, err = svc.Register(ctx, dup)
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestAuthService_Login(t *testing.T) {
	store := newMemUserStore()
	svc := newAuthService(store)
	ctx := context.Background()

	registered, _, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	user, token, err := svc.Login(ctx, "Alice@Example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotNil(t, user.LastLogin)

	subject, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, subject)
}

func TestAuthService_LoginFailuresIndistinguishable(t *testing.T) {
	store := newMemUserStore()
	svc := newAuthService(store)
	ctx := context.Background()

	registered, _, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	_, _, wrongPassword := svc.Login(ctx, "alice@example.com", "wrong")
	_, _, unknownEmail := svc.Login(ctx, "bob@example.com", "correct-horse")
	require.ErrorIs(t, wrongPassword, model.ErrUnauthorized)
	require.ErrorIs(t, unknownEmail, model.ErrUnauthorized)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())

	// Deactivated accounts fail the same way.
	u := store.users[registered.ID]
	u.IsActive = false
	store.users[registered.ID] = u
	_, _, inactive := svc.Login(ctx, "alice@example.com", "correct-horse")
	assert.ErrorIs(t, inactive, model.ErrUnauthorized)
}

func TestAuthService_VerifyTokenRejectsTampering(t *testing.T) {
	svc := newAuthService(newMemUserStore())
	other := NewAuthService(newMemUserStore(), []byte("different-secret"), time.Hour, slog.New(slog.DiscardHandler))

	_, token, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	_, err = other.VerifyToken(token)
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	_, err = svc.VerifyToken(token + "x")
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	_, err = svc.VerifyToken("not-a-token")
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestAuthService_ExpiredTokenRejected(t *testing.T) {
	store := newMemUserStore()
	expired := NewAuthService(store, []byte("test-jwt-secret"), -time.Minute, slog.New(slog.DiscardHandler))

	_, token, err := expired.Register(context.Background(), registerInput())
	require.NoError(t, err)

	_, err = expired.VerifyToken(token)
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestAuthService_CurrentUser(t *testing.T) {
	svc := newAuthService(newMemUserStore())
	ctx := context.Background()

	registered, _, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	user, err := svc.CurrentUser(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = svc.CurrentUser(ctx, "missing-id")
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}
