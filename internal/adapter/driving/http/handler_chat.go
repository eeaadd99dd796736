package httphandler

import (
	"encoding/json"
	"net/http"
)

// Chat handles one chat turn and returns the assistant reply as both raw
// markdown and sanitized HTML.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := h.chat.Send(r.Context(), ownerID(r), req.SessionID, req.Message)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		SessionID: reply.SessionID,
		Content:   reply.Content,
		HTML:      renderMarkdown(reply.Content),
		Model:     reply.Model,
	})
}

// ListSessions returns the caller's chat sessions, most recent first.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.chat.Sessions(r.Context(), ownerID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		resp = append(resp, toSessionResponse(s))
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListMessages returns a session's messages in order. Sessions owned by
// other users are indistinguishable from missing ones.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.chat.Messages(r.Context(), r.PathValue("id"), ownerID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, toMessageResponse(m))
	}

	writeJSON(w, http.StatusOK, resp)
}
