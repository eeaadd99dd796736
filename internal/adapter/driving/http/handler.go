package httphandler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/avolkov/labchat/internal/application"
	"github.com/avolkov/labchat/internal/domain/model"
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	auth    *application.AuthService
	configs *application.ConfigService
	chat    *application.ChatService
	logger  *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	auth *application.AuthService,
	configs *application.ConfigService,
	chat *application.ChatService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		auth:    auth,
		configs: configs,
		chat:    chat,
		logger:  logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware. Everything except register, login,
// and the health check requires a Bearer token.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/auth/register", h.Register)
	mux.HandleFunc("POST /api/v1/auth/login", h.Login)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	protected := http.NewServeMux()
	protected.HandleFunc("GET /api/v1/auth/me", h.Me)
	protected.HandleFunc("GET /api/v1/gitlab/configs", h.ListConfigs)
	protected.HandleFunc("POST /api/v1/gitlab/configs", h.CreateConfig)
	protected.HandleFunc("GET /api/v1/gitlab/configs/{id}", h.GetConfig)
	protected.HandleFunc("PUT /api/v1/gitlab/configs/{id}", h.UpdateConfig)
	protected.HandleFunc("DELETE /api/v1/gitlab/configs/{id}", h.DeleteConfig)
	protected.HandleFunc("POST /api/v1/chat", h.Chat)
	protected.HandleFunc("GET /api/v1/chat/sessions", h.ListSessions)
	protected.HandleFunc("GET /api/v1/chat/sessions/{id}/messages", h.ListMessages)

	mux.Handle("/api/v1/", authMiddleware(h.auth, protected))

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Model:  h.chat.ModelName(),
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// writeServiceError maps domain sentinel errors to HTTP status codes.
// Validation messages are safe for callers; everything unclassified is a 500
// with the detail kept in the log.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, model.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
