package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Rrens/admission-chat/internal/api/handler"
	customMiddleware "github.com/Rrens/admission-chat/internal/api/middleware"
	"github.com/Rrens/admission-chat/internal/chat"
	"github.com/Rrens/admission-chat/internal/domain"
	"github.com/Rrens/admission-chat/internal/session"
)

// Dependencies are the components the HTTP API is built on
type Dependencies struct {
	Store      domain.KVStore
	StorageKey string
	Sessions   *session.Repository
	Controller *chat.Controller
	// Limiter throttles chat submissions; nil disables rate limiting
	Limiter customMiddleware.Limiter
}

// NewRouter creates and configures the HTTP router
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	sessionHandler := handler.NewSessionHandler(deps.Sessions, deps.Controller)
	chatHandler := handler.NewChatHandler(deps.Controller)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(deps.Store, deps.StorageKey))

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", sessionHandler.List)
			r.Post("/", sessionHandler.Create)

			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", sessionHandler.Get)
				r.Patch("/", sessionHandler.Rename)
				r.Delete("/", sessionHandler.Delete)
				r.Post("/activate", sessionHandler.Activate)
			})
		})

		r.Route("/chat", func(r chi.Router) {
			r.With(limit(deps.Limiter)).Post("/", chatHandler.Send)
			r.Get("/state", chatHandler.State)
		})
		r.Post("/messages/{messageID}/feedback", chatHandler.Feedback)

		r.Get("/suggestions", handler.GetSuggestions)
		r.Get("/admin/dashboard", handler.GetDashboard)
	})

	return r
}

func limit(l customMiddleware.Limiter) func(http.Handler) http.Handler {
	if l == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return customMiddleware.NewRateLimitMiddleware(l).Limit
}
