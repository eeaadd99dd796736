package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/avolkov/labchat/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// RegisterRequest is the JSON body for the register endpoint.
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// LoginRequest is the JSON body for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateConfigRequest is the JSON body for creating a GitLab config.
type CreateConfigRequest struct {
	Name        string `json:"name"`
	GitLabURL   string `json:"gitlab_url"`
	AccessToken string `json:"access_token"`
	ProjectID   string `json:"project_id"`
}

// UpdateConfigRequest is the JSON body for updating a GitLab config. A nil
// AccessToken keeps the stored token; a non-nil one replaces it.
type UpdateConfigRequest struct {
	Name        string  `json:"name"`
	GitLabURL   string  `json:"gitlab_url"`
	AccessToken *string `json:"access_token"`
	ProjectID   string  `json:"project_id"`
}

// ChatRequest is the JSON body for the chat endpoint. An empty SessionID
// starts a new session.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// UserResponse is the JSON representation of an account. The password hash
// is never serialized.
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	LastLogin string `json:"last_login,omitempty"`
}

// AuthResponse is the JSON body returned by register and login.
type AuthResponse struct {
	Token string       `json:"access_token"`
	Type  string       `json:"token_type"`
	User  UserResponse `json:"user"`
}

// ConfigResponse is the JSON representation of a GitLab config. The access
// token is intentionally absent: it never appears in any response.
type ConfigResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	GitLabURL         string `json:"gitlab_url"`
	ProjectID         string `json:"project_id"`
	IsActive          bool   `json:"is_active"`
	ValidationMessage string `json:"validation_message,omitempty"`
	ValidationCode    string `json:"validation_code,omitempty"`
	AccountName       string `json:"account_name,omitempty"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

// ChatResponse is the JSON body returned by the chat endpoint. HTML is the
// reply rendered to sanitized HTML for direct display.
type ChatResponse struct {
	SessionID string `json:"session_id"`
	Content   string `json:"content"`
	HTML      string `json:"html"`
	Model     string `json:"model"`
}

// SessionResponse is the JSON representation of a chat session.
type SessionResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// MessageResponse is the JSON representation of one chat message.
type MessageResponse struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Model  string `json:"model"`
	Time   string `json:"time"`
}

// toUserResponse converts a domain User to its JSON response representation.
func toUserResponse(u model.User) UserResponse {
	resp := UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FullName:  u.FullName,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
	if u.LastLogin != nil {
		resp.LastLogin = u.LastLogin.UTC().Format(time.RFC3339)
	}
	return resp
}

// toConfigResponse converts a domain CredentialConfig to its JSON response
// representation.
func toConfigResponse(cfg model.CredentialConfig) ConfigResponse {
	return ConfigResponse{
		ID:                cfg.ID,
		Name:              cfg.DisplayName,
		GitLabURL:         cfg.BaseURL,
		ProjectID:         cfg.ProjectRef,
		IsActive:          cfg.IsActive,
		ValidationMessage: cfg.ValidationMessage,
		ValidationCode:    string(cfg.ValidationCode),
		AccountName:       cfg.AccountName,
		CreatedAt:         cfg.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         cfg.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// toSessionResponse converts a domain ChatSession to its JSON representation.
func toSessionResponse(s model.ChatSession) SessionResponse {
	return SessionResponse{
		ID:        s.ID,
		Title:     s.Title,
		CreatedAt: s.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// toMessageResponse converts a domain ChatMessage to its JSON representation.
func toMessageResponse(m model.ChatMessage) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
	}
}
