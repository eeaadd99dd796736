package httphandler

import (
	"encoding/json"
	"net/http"

	"github.com/avolkov/labchat/internal/application"
	"github.com/avolkov/labchat/internal/domain/model"
)

// ListConfigs returns the caller's GitLab configs in creation order.
func (h *Handler) ListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := h.configs.List(r.Context(), ownerID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := make([]ConfigResponse, 0, len(configs))
	for _, cfg := range configs {
		resp = append(resp, toConfigResponse(cfg))
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateConfig validates the supplied credential and stores a new config.
// A failed probe still creates the record, inactive, with the failure
// reflected in the response body.
func (h *Handler) CreateConfig(w http.ResponseWriter, r *http.Request) {
	var req CreateConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg, err := h.configs.Create(r.Context(), ownerID(r), application.CreateConfigInput{
		DisplayName: req.Name,
		BaseURL:     req.GitLabURL,
		Token:       req.AccessToken,
		ProjectRef:  req.ProjectID,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toConfigResponse(*cfg))
}

// GetConfig returns one config by ID. Configs owned by other users are
// indistinguishable from missing ones.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.configs.Get(r.Context(), r.PathValue("id"), ownerID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toConfigResponse(*cfg))
}

// UpdateConfig re-validates and updates a config. Omitting access_token from
// the body keeps the stored token and re-validates it against the request's
// URL.
func (h *Handler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req UpdateConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token := model.KeepToken()
	if req.AccessToken != nil {
		token = model.ReplaceToken(*req.AccessToken)
	}

	cfg, err := h.configs.Update(r.Context(), r.PathValue("id"), ownerID(r), application.UpdateConfigInput{
		DisplayName: req.Name,
		BaseURL:     req.GitLabURL,
		ProjectRef:  req.ProjectID,
		Token:       token,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toConfigResponse(*cfg))
}

// DeleteConfig removes a config owned by the caller.
func (h *Handler) DeleteConfig(w http.ResponseWriter, r *http.Request) {
	if err := h.configs.Delete(r.Context(), r.PathValue("id"), ownerID(r)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
