package web

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
)

// CORS middleware
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Max-Age", "300")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Debug("request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// NewRouter builds the HTTP surface of the client.
func NewRouter(handlers *SessionHandlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(requestLogger)
	r.Use(corsMiddleware)

	r.Get("/health", handlers.HealthCheck)
	r.Get("/ws", handlers.ServeWS)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/session", handlers.CreateSession)

		r.Route("/session/{session_id}", func(r chi.Router) {
			r.Get("/state", handlers.GetState)
			r.Post("/turn", handlers.SubmitTurn)
			r.Post("/undo", handlers.Undo)
			r.Post("/redo", handlers.Redo)
			r.Post("/mute", handlers.SetMute)
			r.Post("/prefs", handlers.SetPrefs)
			r.Post("/save", handlers.Save)
			r.Post("/load", handlers.Load)
			r.Get("/saves", handlers.ListSaves)
		})
	})

	return r
}
