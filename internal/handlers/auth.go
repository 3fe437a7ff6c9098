package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"studynotes-dashboard/internal/middleware"
	"studynotes-dashboard/internal/models"
	"studynotes-dashboard/internal/services"
)

// Backend is the note backend as seen by a single request.
type Backend interface {
	services.AuthBackend
	services.NoteBackend
	services.LearningAidBackend
	services.StudyPlanBackend
	services.CommunityBackend
	services.ExportBackend
	services.NoteLister
}

// BackendFor returns a backend acting with token; an empty token gives an
// anonymous backend.
type BackendFor func(token string) Backend

// forRequest builds a backend from the session on the request context.
func (f BackendFor) forRequest(r *http.Request) (Backend, middleware.Session) {
	sess, _ := middleware.GetSession(r.Context())
	return f(sess.Token), sess
}

type AuthHandler struct {
	backendFor BackendFor
	sessions   *middleware.Sessions
}

func NewAuthHandler(backendFor BackendFor, sessions *middleware.Sessions) *AuthHandler {
	return &AuthHandler{backendFor: backendFor, sessions: sessions}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName        string `json:"full_name"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	backend := h.backendFor("")
	tokens, err := services.NewAuthService(backend).Register(r.Context(), models.RegisterRequest{
		FullName:        req.FullName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if tokens == nil || tokens.AccessToken == "" {
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"message":       "Account created. Please sign in.",
			"authenticated": false,
		})
		return
	}

	h.startSession(w, r, tokens, http.StatusCreated)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	tokens, err := services.NewAuthService(h.backendFor("")).Login(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.startSession(w, r, tokens, http.StatusOK)
}

// Logout ends the backend session when there is one and always clears the
// cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess, err := h.sessions.FromRequest(r); err == nil {
		if err := services.NewAuthService(h.backendFor(sess.Token)).Logout(r.Context()); err != nil {
			log.Printf("backend logout failed: %v", err)
		}
	}

	h.sessions.ClearCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// CreateSession mirrors a bearer token the page already holds into the
// httpOnly session cookie. The token is checked against the backend first.
func (h *AuthHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AccessToken == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "access_token is required", r))
		return
	}

	claims, err := middleware.ReadClaims(req.AccessToken)
	if err != nil || (!claims.ExpiresAt.IsZero() && claims.ExpiresAt.Before(time.Now())) {
		writeJSON(w, http.StatusUnauthorized, errorResp("TOKEN_EXPIRED", "Token has expired", r))
		return
	}

	h.startSession(w, r, &models.AuthTokens{AccessToken: req.AccessToken}, http.StatusOK)
}

func (h *AuthHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, tokens *models.AuthTokens, status int) {
	user := tokens.User
	if user == nil {
		u, err := services.NewAuthService(h.backendFor(tokens.AccessToken)).Me(r.Context())
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		user = u
	}

	if err := h.sessions.SetCookie(w, tokens.AccessToken); err != nil {
		log.Printf("failed to set session cookie: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
		return
	}

	writeJSON(w, status, map[string]interface{}{
		"authenticated": true,
		"user":          user,
	})
}

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch e := err.(type) {
	case *services.ValidationError:
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", e.Fields, r))
	case *services.ConflictError:
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", e.Message, r))
	case *services.NotFoundError:
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", e.Message, r))
	case *services.UnauthorizedError:
		middleware.EndSession(w, r)
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", e.Message, r))
	case *services.ForbiddenError:
		middleware.EndSession(w, r)
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", e.Message, r))
	case *services.RateLimitError:
		writeJSON(w, http.StatusTooManyRequests, errorResp("RATE_LIMITED", e.Message, r))
	case *services.UpstreamError:
		log.Printf("upstream error: %v", e)
		writeJSON(w, http.StatusBadGateway, errorResp("UPSTREAM_ERROR", e.Message, r))
	default:
		log.Printf("unexpected error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}
