package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"studynotes-dashboard/internal/models"
	"studynotes-dashboard/internal/services"
)

type LearningAidHandler struct {
	backendFor BackendFor
	watcher    Watcher
}

func NewLearningAidHandler(backendFor BackendFor, watcher Watcher) *LearningAidHandler {
	return &LearningAidHandler{backendFor: backendFor, watcher: watcher}
}

func (h *LearningAidHandler) Generate(w http.ResponseWriter, r *http.Request) {
	noteID := chi.URLParam(r, "id")
	backend, sess := h.backendFor.forRequest(r)

	job, err := services.NewLearningAidService(backend).Generate(r.Context(), noteID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if err := h.watcher.Watch(r.Context(), models.WatchLearningAids, noteID, sess.UserID, sess.Token); err != nil {
		log.Printf("failed to watch learning aids for %s: %v", noteID, err)
	}

	writeJSON(w, http.StatusAccepted, job)
}

func (h *LearningAidHandler) Flashcards(w http.ResponseWriter, r *http.Request) {
	backend, _ := h.backendFor.forRequest(r)
	cards, err := services.NewLearningAidService(backend).Flashcards(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.FlashcardList{Flashcards: cards})
}

func (h *LearningAidHandler) Quizzes(w http.ResponseWriter, r *http.Request) {
	backend, _ := h.backendFor.forRequest(r)
	quizzes, err := services.NewLearningAidService(backend).Quizzes(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"quizzes": quizzes})
}

// RateFlashcard takes the card's current ease and repetitions from the
// page, since the backend has no single-card read.
func (h *LearningAidHandler) RateFlashcard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Difficulty  string  `json:"difficulty"`
		EaseFactor  float64 `json:"ease_factor"`
		Repetitions int     `json:"repetitions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	card := models.Flashcard{ID: chi.URLParam(r, "id")}
	if req.EaseFactor > 0 || req.Repetitions > 0 {
		card.Progress = &models.FlashcardProgress{EaseFactor: req.EaseFactor, Repetitions: req.Repetitions}
	}

	backend, _ := h.backendFor.forRequest(r)
	progress, err := services.NewLearningAidService(backend).RateFlashcard(r.Context(), card, req.Difficulty)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (h *LearningAidHandler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answers map[string]string `json:"answers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	backend, _ := h.backendFor.forRequest(r)
	result, err := services.NewLearningAidService(backend).SubmitQuiz(r.Context(), chi.URLParam(r, "id"), req.Answers)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
