package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nutritrack/nutritrack-go/internal/middleware"
	"github.com/rs/zerolog"
)

// RouterConfig holds everything NewRouter wires together.
type RouterConfig struct {
	Auth     *AuthHandler
	Profile  *ProfileHandler
	Verifier middleware.TokenVerifier
	Logger   zerolog.Logger

	AllowedOrigins []string
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Only enable it behind a proxy that overwrites those headers.
	TrustProxy     bool
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter creates and configures the chi router. ctx bounds background
// work started by the middleware.
func NewRouter(ctx context.Context, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	if cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(chimw.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Backend is Connected"))
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// One limiter shared by both mounts of the credential routes.
	limit := middleware.RateLimit(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst)
	auth := middleware.JWTAuth(cfg.Verifier)

	routes := func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(limit)
			r.Post("/signup", cfg.Auth.HandleSignUp)
			r.Post("/signin", cfg.Auth.HandleSignIn)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Get("/me", cfg.Auth.HandleMe)
			r.Get("/profile", cfg.Profile.HandleGetProfile)
			r.Post("/profile", cfg.Profile.HandleSaveProfile)
		})
	}

	routes(r)
	r.Route("/api/auth", routes)

	r.Route("/users/{userID}", func(r chi.Router) {
		r.Use(auth)
		r.Get("/profile", cfg.Profile.HandleGetProfile)
		r.Post("/profile", cfg.Profile.HandleSaveProfile)
	})

	return r
}
