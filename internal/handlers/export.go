package handlers

import (
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"studynotes-dashboard/internal/services"
)

type ExportHandler struct {
	backendFor BackendFor
}

func NewExportHandler(backendFor BackendFor) *ExportHandler {
	return &ExportHandler{backendFor: backendFor}
}

func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	backend, _ := h.backendFor.forRequest(r)
	res, err := services.NewExportService(backend).Export(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("format"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	if res.Pages > 0 {
		w.Header().Set("X-Page-Count", fmt.Sprint(res.Pages))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(res.Data)
}
