package api

import (
	"net/http"
	"time"

	"ollamachat-backend/internal/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterDependencies holds all the dependencies required by the router setup,
// primarily handlers and configuration.
type RouterDependencies struct {
	ChatHandler        *handlers.ChatHandlers
	CORSAllowedOrigins []string
	// RequestTimeout bounds each request; it must exceed the Ollama timeout
	// so a slow generation surfaces as a classified error, not a cut connection.
	RequestTimeout time.Duration
}

// NewRouter creates and configures the main Chi router for the application.
func NewRouter(deps RouterDependencies) *chi.Mux {
	if deps.ChatHandler == nil {
		panic("ChatHandler dependency is nil in router setup")
	}
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = 60 * time.Second
	}

	r := chi.NewRouter()

	// --- Base Middleware Stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(deps.RequestTimeout))

	// --- CORS Configuration ---
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With"},
		MaxAge:         300, // Maximum value not ignored by any of major browsers
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Get("/health/ollama", deps.ChatHandler.HandleOllamaHealth)

	r.Route("/chat", func(r chi.Router) {
		r.With(middleware.AllowContentType("application/json")).Post("/", deps.ChatHandler.HandleCreateChat)
		r.Get("/history/{userID}", deps.ChatHandler.HandleGetChatHistory)
	})

	return r
}
