package handlers

import (
	"encoding/json"
	"net/http"

	"studynotes-dashboard/internal/middleware"
	"studynotes-dashboard/internal/models"
	"studynotes-dashboard/internal/services"
)

type UserHandler struct {
	backendFor BackendFor
	sessions   *middleware.Sessions
}

func NewUserHandler(backendFor BackendFor, sessions *middleware.Sessions) *UserHandler {
	return &UserHandler{backendFor: backendFor, sessions: sessions}
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	backend, _ := h.backendFor.forRequest(r)
	user, err := services.NewAuthService(backend).Me(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	backend, _ := h.backendFor.forRequest(r)
	user, err := services.NewAuthService(backend).UpdateProfile(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	backend, _ := h.backendFor.forRequest(r)
	if err := services.NewAuthService(backend).DeleteAccount(r.Context()); err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.sessions.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
