package router

import (
	"net/http"
	"os"
	"path/filepath"

	"isuclicker-api/internal/handler"
	"isuclicker-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler         *handler.Handler
	GameHandler     *handler.GameHandler
	AdminHandler    *handler.AdminHandler
	LogHandler      *handler.LogHandler
	AdminMiddleware func(http.Handler) http.Handler
	StaticDir       string
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-API-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Game routes
	if cfg.GameHandler != nil {
		r.Get("/initialize", cfg.GameHandler.Initialize)
		r.Get("/room", cfg.GameHandler.Room)
		r.Get("/room/", cfg.GameHandler.Room)
		r.Get("/room/{room_name}", cfg.GameHandler.Room)
		r.Get("/ws", cfg.GameHandler.ServeWS)
		r.Get("/ws/", cfg.GameHandler.ServeWS)
		r.Get("/ws/{room_name}", cfg.GameHandler.ServeWS)
	}

	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Health check endpoints
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready)
		}

		// Admin endpoints
		r.Group(func(r chi.Router) {
			if cfg.AdminMiddleware != nil {
				r.Use(cfg.AdminMiddleware)
			}
			r.Route("/admin", func(r chi.Router) {
				if cfg.AdminHandler != nil {
					r.Get("/stats", cfg.AdminHandler.GetStats)
					r.Get("/rooms/{room_name}/status", cfg.AdminHandler.GetRoomStatus)
				}
				if cfg.LogHandler != nil {
					r.Get("/journal", cfg.LogHandler.GetJournal)
				}
			})
		})
	})

	// Static client - public
	if cfg.StaticDir != "" {
		if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
			fileServer := http.FileServer(http.Dir(cfg.StaticDir))
			r.Get("/", func(w http.ResponseWriter, req *http.Request) {
				http.ServeFile(w, req, filepath.Join(cfg.StaticDir, "index.html"))
			})
			r.Handle("/*", fileServer)
		}
	}

	return r
}
