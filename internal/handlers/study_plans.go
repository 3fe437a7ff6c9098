package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"studynotes-dashboard/internal/models"
	"studynotes-dashboard/internal/services"
)

type StudyPlanHandler struct {
	backendFor BackendFor
	watcher    Watcher
}

func NewStudyPlanHandler(backendFor BackendFor, watcher Watcher) *StudyPlanHandler {
	return &StudyPlanHandler{backendFor: backendFor, watcher: watcher}
}

type planResponse struct {
	*models.StudyPlan
	CompletedModules int `json:"completed_modules"`
	ProgressPercent  int `json:"progress_percent"`
}

func planView(p *models.StudyPlan) planResponse {
	if p.Modules == nil {
		p.Modules = []models.StudyPlanModule{}
	}
	return planResponse{StudyPlan: p, CompletedModules: p.CompletedCount(), ProgressPercent: p.ProgressPercent()}
}

func (h *StudyPlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateStudyPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	backend, sess := h.backendFor.forRequest(r)
	plan, err := services.NewStudyPlanService(backend).Create(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if err := h.watcher.Watch(r.Context(), models.WatchStudyPlan, plan.ID, sess.UserID, sess.Token); err != nil {
		log.Printf("failed to watch study plan %s: %v", plan.ID, err)
	}

	writeJSON(w, http.StatusAccepted, planView(plan))
}

func (h *StudyPlanHandler) List(w http.ResponseWriter, r *http.Request) {
	backend, _ := h.backendFor.forRequest(r)
	plans, err := services.NewStudyPlanService(backend).List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	out := make([]planResponse, 0, len(plans))
	for i := range plans {
		out = append(out, planView(&plans[i]))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"study_plans": out})
}

func (h *StudyPlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	backend, _ := h.backendFor.forRequest(r)
	plan, err := services.NewStudyPlanService(backend).Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, planView(plan))
}

func (h *StudyPlanHandler) SetModuleCompleted(w http.ResponseWriter, r *http.Request) {
	var req models.ModuleCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	backend, _ := h.backendFor.forRequest(r)
	svc := services.NewStudyPlanService(backend)

	plan, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := svc.CompleteModule(r.Context(), plan, chi.URLParam(r, "moduleID"), req.Completed); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, planView(plan))
}
