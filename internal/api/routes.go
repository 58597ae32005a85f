package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/mrwolf/yojeum-server/internal/config"
	"github.com/mrwolf/yojeum-server/internal/db"
	"github.com/mrwolf/yojeum-server/internal/sharecard"
	"github.com/mrwolf/yojeum-server/internal/summary"
	"github.com/mrwolf/yojeum-server/internal/vault"
)

// Deps is everything the HTTP layer talks to
type Deps struct {
	Config    *config.Config
	DB        *db.DB
	Vault     *vault.Vault
	Summaries *summary.Service
	Fonts     *sharecard.FontSet
	Sharer    sharecard.Sharer // nil when no share target is configured
	Letters   LetterGenerator  // nil disables POST /letters/{date}
	Gatherer  prometheus.Gatherer
	Log       zerolog.Logger
}

func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(LoggingMiddleware(d.Log))

	handlers := NewHandlers(d)

	// Public endpoints
	r.Get("/health", handlers.Health)
	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	limit := d.Config.RateLimit
	if limit <= 0 {
		limit = 60
	}
	limiter := NewRateLimiter(limit, time.Minute)

	// API v1 routes (authenticated)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(d.Config))
		r.Use(RateLimitMiddleware(limiter))
		r.Use(JSONContentType)

		r.Get("/records", handlers.ListRecords)
		r.Put("/records/{date}", handlers.PutRecord)
		r.Get("/records/{date}", handlers.GetRecord)
		r.Delete("/records/{date}", handlers.DeleteRecord)

		r.Get("/summary/{date}", handlers.Summary)
		r.Get("/summary/{date}/card.png", handlers.Card)
		r.Post("/summary/{date}/share", handlers.Share)

		r.Get("/shares", handlers.Shares)
		r.Post("/letters/{date}", handlers.GenerateLetter)
	})

	return r
}
