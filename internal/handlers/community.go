package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"studynotes-dashboard/internal/models"
	"studynotes-dashboard/internal/services"
)

type CommunityHandler struct {
	backendFor BackendFor
}

func NewCommunityHandler(backendFor BackendFor) *CommunityHandler {
	return &CommunityHandler{backendFor: backendFor}
}

var communitySorts = map[string]bool{"trending": true, "recent": true, "popular": true}

func (h *CommunityHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	sortBy := r.URL.Query().Get("sort")
	if sortBy == "" {
		sortBy = "trending"
	}
	if !communitySorts[sortBy] {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"sort": "Sort must be trending, recent or popular"}, r))
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	backend, _ := h.backendFor.forRequest(r)
	notes, err := services.NewCommunityService(backend).List(r.Context(), sortBy, limit)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.CommunityNoteList{Notes: notes})
}

func (h *CommunityHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, false)
}

func (h *CommunityHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, true)
}

// toggleLike flips the like from the state the page currently shows. The
// page sends its displayed count so the reply can carry an adjusted one
// even when the backend reports none.
func (h *CommunityHandler) toggleLike(w http.ResponseWriter, r *http.Request, liked bool) {
	var req struct {
		LikeCount int `json:"like_count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	note := &models.CommunityNote{ID: chi.URLParam(r, "id"), IsLiked: liked, LikeCount: req.LikeCount}
	backend, _ := h.backendFor.forRequest(r)
	if err := services.NewCommunityService(backend).ToggleLike(r.Context(), note); err != nil {
		handleServiceError(w, r, err)
		return
	}

	count := note.LikeCount
	writeJSON(w, http.StatusOK, models.LikeResult{Liked: note.IsLiked, LikeCount: &count})
}

func (h *CommunityHandler) Overview(w http.ResponseWriter, r *http.Request) {
	backend, _ := h.backendFor.forRequest(r)
	writeJSON(w, http.StatusOK, services.NewCommunityService(backend).Overview(r.Context()))
}
