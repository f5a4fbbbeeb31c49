package router

import (
	"net/http"

	"garagewatch/internal/handler"
	"garagewatch/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler        *handler.Handler
	CommandHandler *handler.CommandHandler
	OwnerHandler   *handler.OwnerHandler
	EngineHandler  *handler.EngineHandler
	LinkHandler    *handler.LinkHandler
	AuthMiddleware func(http.Handler) http.Handler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-API-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Group(func(r chi.Router) {
		if cfg.AuthMiddleware != nil {
			r.Use(cfg.AuthMiddleware)
		}

		r.Route("/api/v1", func(r chi.Router) {
			if cfg.Handler != nil {
				r.Get("/health", cfg.Handler.Health)
				r.Get("/ready", cfg.Handler.Ready)
			}

			if cfg.EngineHandler != nil {
				r.Post("/engine/tick", cfg.EngineHandler.Tick)
			}

			if cfg.CommandHandler != nil {
				r.Post("/commands", cfg.CommandHandler.Handle)
			}

			if cfg.LinkHandler != nil {
				r.Post("/links", cfg.LinkHandler.Linked)
			}

			if cfg.OwnerHandler != nil {
				r.Route("/owners/{platform_id}", func(r chi.Router) {
					r.Get("/", cfg.OwnerHandler.Get)
					r.Post("/sync", cfg.OwnerHandler.Sync)
				})
			}
		})
	})

	return r
}
