package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"sensor-dash/internal/middleware"
)

// RouterConfig holds the cross-cutting settings the router applies around
// the handlers.
type RouterConfig struct {
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
}

// NewRouter wires the dashboard routes with recovery, request IDs, rate
// limiting, and CORS. The frontend runs on a different origin, so CORS must
// admit every route here.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	if cfg.RateLimitRPS > 0 {
		r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
		}))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/latest", h.Latest)
	r.Get("/co_trend", h.COTrend)
	r.Get("/avg_metrics", h.AvgMetrics)
	r.Get("/max_metrics", h.MaxMetrics)
	r.Get("/alert_counts", h.AlertCounts)
	r.Get("/humidity_co", h.HumidityCO)
	r.Get("/temp_dist", h.TempDist)
	r.Post("/acknowledge_alert", h.AcknowledgeAlert)
	r.Post("/reset_alerts", h.ResetAlerts)
	r.Get("/health", h.Health)

	return r
}
