// Package app provides application-level wiring and dependency injection
// for the dashboard API.
package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"sensor-dash/internal/api"
	"sensor-dash/internal/config"
	"sensor-dash/internal/domain"
	"sensor-dash/internal/service/alerts"
	"sensor-dash/internal/service/query"
	"sensor-dash/internal/service/trend"
)

// Deps holds the external dependencies that main() must provide: config,
// the query backend client, and the logger.
type Deps struct {
	Cfg     *config.Config
	Backend domain.QueryBackend
	Logger  *slog.Logger
}

// App holds the fully-wired application.
type App struct {
	Query   *query.Service
	Alerts  *alerts.MemoryStore
	Trend   *trend.Generator
	Handler http.Handler
}

// New wires services and the HTTP handler from the provided deps. Every
// stateful piece (alert store, backend client, poll clock) is constructed
// here rather than living in package-level singletons, so tests and future
// persistent stores can swap them without touching handler logic.
func New(deps Deps) (*App, error) {
	cfg := deps.Cfg

	templates, err := query.LoadTemplates(cfg.TemplatesFile)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}

	querySvc := query.NewService(deps.Backend, query.Options{
		MaxWait:      cfg.QueryMaxWait,
		PollInterval: cfg.QueryPollInterval,
	}, deps.Logger.With("component", "query-proxy"))

	alertStore := alerts.NewMemoryStore()
	trendGen := trend.NewGenerator()

	handler := api.NewHandler(api.HandlerConfig{
		Query:     querySvc,
		Trend:     trendGen,
		Alerts:    alertStore,
		Templates: templates,
		DemoMode:  cfg.DemoMode,
		Logger:    deps.Logger.With("component", "api"),
	})

	router := api.NewRouter(handler, api.RouterConfig{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	return &App{
		Query:   querySvc,
		Alerts:  alertStore,
		Trend:   trendGen,
		Handler: router,
	}, nil
}
