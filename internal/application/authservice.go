package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/avolkov/labchat/internal/domain/model"
	"github.com/avolkov/labchat/internal/domain/port/driven"
)

// RegisterInput carries a registration payload.
type RegisterInput struct {
	Email    string
	Username string
	Password string
	FullName string
}

// AuthService handles registration, login, and access token verification.
// Tokens are HS256 JWTs with the user id as subject.
type AuthService struct {
	users  driven.UserStore
	secret []byte
	ttl    time.Duration
	logger *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(users driven.UserStore, secret []byte, ttl time.Duration, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		secret: secret,
		ttl:    ttl,
		logger: logger,
	}
}

// Register creates a new user and returns it with a signed access token.
// Returns model.ErrValidation on malformed input and model.ErrConflict when
// the email or username is taken.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, string, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	username := strings.TrimSpace(in.Username)

	switch {
	case email == "" || !strings.Contains(email, "@"):
		return nil, "", fmt.Errorf("%w: valid email required", model.ErrValidation)
	case len(username) < 3 || len(username) > 50:
		return nil, "", fmt.Errorf("%w: username must be 3-50 characters", model.ErrValidation)
	case len(in.Password) < 8:
		return nil, "", fmt.Errorf("%w: password must be at least 8 characters", model.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(in.FullName),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Insert(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(user.ID, now)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return &user, token, nil
}

// Login verifies credentials and returns the user with a signed access
// token. Wrong email, wrong password, and an inactive account all return
// model.ErrUnauthorized without saying which.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", fmt.Errorf("login: %w", model.ErrUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", fmt.Errorf("login: %w", model.ErrUnauthorized)
	}
	if !user.IsActive {
		return nil, "", fmt.Errorf("login: %w", model.ErrUnauthorized)
	}

	now := time.Now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		// Login still succeeds; the timestamp is informational.
		s.logger.Warn("failed to record last login", "user_id", user.ID, "error", err)
	}
	user.LastLogin = &now

	token, err := s.issueToken(user.ID, now)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return user, token, nil
}

// CurrentUser resolves the user behind a verified token subject.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, fmt.Errorf("user %q: %w", userID, model.ErrUnauthorized)
	}
	return user, nil
}

// VerifyToken parses and verifies an access token and returns the user id.
func (s *AuthService) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", model.ErrUnauthorized)
	}

	return claims.Subject, nil
}

func (s *AuthService) issueToken(userID string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
