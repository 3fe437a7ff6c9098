package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"studynotes-dashboard/internal/handlers"
	"studynotes-dashboard/internal/middleware"
	"studynotes-dashboard/internal/websocket"
)

func New(
	sessions *middleware.Sessions,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	noteHandler *handlers.NoteHandler,
	learningAidHandler *handlers.LearningAidHandler,
	studyPlanHandler *handlers.StudyPlanHandler,
	communityHandler *handlers.CommunityHandler,
	exportHandler *handlers.ExportHandler,
	wsHub *websocket.Hub,
	authLimiter *middleware.RateLimiter,
	generateLimiter *middleware.RateLimiter,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Post("/session", authHandler.CreateSession)
			r.Delete("/session", authHandler.DeleteSession)
		})

		// ──── User Routes ────
		r.Route("/users", func(r chi.Router) {
			r.Use(sessions.Middleware)
			r.Get("/me", userHandler.GetMe)
			r.Put("/me", userHandler.UpdateMe)
			r.Delete("/me", userHandler.DeleteMe)
		})

		// ──── Note Routes ────
		r.Route("/notes", func(r chi.Router) {
			r.Use(sessions.Middleware)
			r.With(generateLimiter.Middleware).Post("/", noteHandler.Create)
			r.Get("/", noteHandler.List)
			r.Get("/{id}", noteHandler.Get)
			r.Put("/{id}/visibility", noteHandler.SetVisibility)
			r.Delete("/{id}", noteHandler.Delete)

			r.With(generateLimiter.Middleware).Post("/{id}/learning-aids", learningAidHandler.Generate)
			r.Get("/{id}/flashcards", learningAidHandler.Flashcards)
			r.Get("/{id}/quizzes", learningAidHandler.Quizzes)
			r.Get("/{id}/export", exportHandler.Export)
		})

		// ──── Learning Aid Routes ────
		r.Group(func(r chi.Router) {
			r.Use(sessions.Middleware)
			r.Put("/flashcards/{id}/rating", learningAidHandler.RateFlashcard)
			r.Post("/quizzes/{id}/submit", learningAidHandler.SubmitQuiz)
		})

		// ──── Study Plan Routes ────
		r.Route("/study-plans", func(r chi.Router) {
			r.Use(sessions.Middleware)
			r.With(generateLimiter.Middleware).Post("/", studyPlanHandler.Create)
			r.Get("/", studyPlanHandler.List)
			r.Get("/{id}", studyPlanHandler.Get)
			r.Put("/{id}/modules/{moduleID}", studyPlanHandler.SetModuleCompleted)
		})

		// ──── Community Routes ────
		r.Route("/community", func(r chi.Router) {
			r.Use(sessions.Middleware)
			r.Get("/notes", communityHandler.ListNotes)
			r.Post("/notes/{id}/like", communityHandler.Like)
			r.Delete("/notes/{id}/like", communityHandler.Unlike)
			r.Get("/overview", communityHandler.Overview)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
