package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/family-budget/internal/api/middleware"
	"github.com/dvloznov/family-budget/internal/domain"
	"github.com/dvloznov/family-budget/internal/storage"
)

// ProfilesHandler handles family member profiles and their sessions.
type ProfilesHandler struct {
	store storage.Store
	log   zerolog.Logger
}

// NewProfilesHandler creates a new profiles handler.
func NewProfilesHandler(store storage.Store, log zerolog.Logger) *ProfilesHandler {
	return &ProfilesHandler{store: store, log: log}
}

// ListProfiles handles GET /api/profiles
func (h *ProfilesHandler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.store.ListProfiles(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list profiles")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list profiles")
		return
	}
	if profiles == nil {
		profiles = []domain.Profile{}
	}
	middleware.WriteJSON(w, http.StatusOK, profiles)
}

type profileRequest struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// CreateProfile handles POST /api/profiles. The id comes from the identity
// provider, so the client supplies it.
func (h *ProfilesHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "id is required")
		return
	}

	profile := domain.Profile{ID: req.ID, DisplayName: strings.TrimSpace(req.DisplayName)}
	if err := h.store.CreateProfile(r.Context(), profile.ID, profile.DisplayName); err != nil {
		h.log.Error().Err(err).Str("id", req.ID).Msg("Failed to create profile")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create profile")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, profile)
}

// UpdateProfile handles PUT /api/profiles/{id}
func (h *ProfilesHandler) UpdateProfile(w http.ResponseWriter, r *http.Request, id string) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	profile := domain.Profile{ID: id, DisplayName: strings.TrimSpace(req.DisplayName)}
	if err := h.store.UpdateProfile(r.Context(), profile.ID, profile.DisplayName); err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to update profile")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, profile)
}

type sessionRequest struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// CreateSession handles POST /api/sessions: mints a session token for an
// already-authenticated family member.
func (h *ProfilesHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	token, err := h.store.CreateSession(r.Context(), req.UserID, req.Email)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", req.UserID).Msg("Failed to create session")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]string{"token": token})
}

// GetSession handles GET /api/sessions/{token}. Expired sessions read back
// as missing.
func (h *ProfilesHandler) GetSession(w http.ResponseWriter, r *http.Request, token string) {
	session, err := h.store.GetSession(r.Context(), token)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get session")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}
	if session == nil {
		middleware.WriteError(w, http.StatusNotFound, "Session not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, session)
}

// DeleteSession handles DELETE /api/sessions/{token}
func (h *ProfilesHandler) DeleteSession(w http.ResponseWriter, r *http.Request, token string) {
	if err := h.store.DeleteSession(r.Context(), token); err != nil {
		h.log.Error().Err(err).Msg("Failed to delete session")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
