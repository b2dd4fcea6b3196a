package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"movie-favorites/internal/auth"
	"movie-favorites/internal/favorite"
	"movie-favorites/internal/httpx"
	"movie-favorites/internal/movie"
	"movie-favorites/internal/observability"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Logger         *slog.Logger
	Auth           *auth.Handler
	Tokens         auth.TokenVerifier
	AuthLimiter    *auth.RateLimiter
	Favorites      *favorite.Handler
	Movies         *movie.Handler
	Health         Pinger
	AllowedOrigins []string

	// TrustProxyHeaders lets X-Forwarded-For and X-Real-IP replace the
	// socket peer as the client address.
	TrustProxyHeaders bool
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	if d.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(observability.RequestLoggingMiddleware(d.Logger))
	r.Use(observability.RecoverMiddleware)
	r.Use(middleware.CleanPath)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", observability.RequestIDHeader},
		ExposedHeaders: []string{observability.RequestIDHeader},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	})

	r.Get("/health", healthHandler(d.Health))

	r.Route("/auth", func(r chi.Router) {
		r.Use(d.AuthLimiter.Middleware)
		r.Post("/signup", d.Auth.Signup)
		r.Post("/signin", d.Auth.Signin)
	})

	r.Get("/movies/{id}", d.Movies.Detail)
	r.Get("/search", d.Movies.Search)

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Gate(d.Tokens))
		r.Get("/test", auth.Whoami)
		r.Post("/favorites", d.Favorites.Create)
		r.Get("/favorites", d.Favorites.List)
	})

	return r
}

type healthStatus struct {
	Status string `json:"status"`
}

// healthHandler reports "degraded" when the database does not answer a ping.
func healthHandler(database Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := database.PingContext(ctx); err != nil {
			observability.FromContext(r.Context()).Warn("health_ping_failed", "error", err.Error())
			httpx.WriteJSON(w, http.StatusServiceUnavailable, healthStatus{Status: "degraded"})
			return
		}
		httpx.WriteJSON(w, http.StatusOK, healthStatus{Status: "ok"})
	}
}
