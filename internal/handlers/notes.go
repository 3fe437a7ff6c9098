package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"studynotes-dashboard/internal/api"
	"studynotes-dashboard/internal/models"
	"studynotes-dashboard/internal/services"
)

// Watcher queues a background poll whose samples are pushed to the user's
// open dashboard tabs. worker.Pool implements it.
type Watcher interface {
	Watch(ctx context.Context, kind models.WatchKind, resourceID, userKey, token string) error
}

// ViewCache holds normalized note views written by the watchers.
type ViewCache interface {
	CachedView(ctx context.Context, userKey, noteID string) ([]byte, error)
	InvalidateView(ctx context.Context, userKey, noteID string)
}

type NoteHandler struct {
	backendFor BackendFor
	resolver   services.Resolver
	watcher    Watcher
	cache      ViewCache
}

func NewNoteHandler(backendFor BackendFor, resolver services.Resolver, watcher Watcher, cache ViewCache) *NoteHandler {
	return &NoteHandler{backendFor: backendFor, resolver: resolver, watcher: watcher, cache: cache}
}

// Create triggers note generation and answers 202 straight away. Progress
// arrives over the WebSocket.
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.CreateNoteInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	backend, sess := h.backendFor.forRequest(r)
	resp, err := services.NewNoteService(backend, h.resolver).Create(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if err := h.watcher.Watch(r.Context(), models.WatchNote, resp.NoteID, sess.UserID, sess.Token); err != nil {
		log.Printf("failed to watch note %s: %v", resp.NoteID, err)
	}

	writeJSON(w, http.StatusAccepted, resp)
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := api.ListNotesParams{FolderID: q.Get("folder_id")}
	params.Limit, _ = strconv.Atoi(q.Get("limit"))
	params.Offset, _ = strconv.Atoi(q.Get("offset"))
	if params.Limit < 0 || params.Limit > 100 {
		params.Limit = 100
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	backend, _ := h.backendFor.forRequest(r)
	list, err := services.ListNotes(r.Context(), backend, params)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Get returns the normalized note view. A view cached by the watcher is
// served as is.
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	noteID := chi.URLParam(r, "id")
	backend, sess := h.backendFor.forRequest(r)

	if cached, err := h.cache.CachedView(r.Context(), sess.UserID, noteID); err != nil {
		log.Printf("view cache read failed: %v", err)
	} else if cached != nil {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		w.WriteHeader(http.StatusOK)
		w.Write(cached)
		return
	}

	view, err := services.NewNoteService(backend, h.resolver).View(r.Context(), noteID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.Header().Set("X-Cache", "MISS")
	writeJSON(w, http.StatusOK, view)
}

func (h *NoteHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsPublic *bool `json:"is_public"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IsPublic == nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"is_public": "is_public is required"}, r))
		return
	}

	noteID := chi.URLParam(r, "id")
	backend, sess := h.backendFor.forRequest(r)
	svc := services.NewNoteService(backend, h.resolver)

	view, err := svc.View(r.Context(), noteID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := svc.SetVisibility(r.Context(), &view.Note, *req.IsPublic); err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.cache.InvalidateView(r.Context(), sess.UserID, noteID)
	writeJSON(w, http.StatusOK, view)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	noteID := chi.URLParam(r, "id")
	backend, sess := h.backendFor.forRequest(r)

	if err := services.NewNoteService(backend, h.resolver).Delete(r.Context(), noteID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.cache.InvalidateView(r.Context(), sess.UserID, noteID)
	w.WriteHeader(http.StatusNoContent)
}
