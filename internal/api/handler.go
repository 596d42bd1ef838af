// Package api exposes the dashboard's HTTP surface: six analytics endpoints
// backed by the query proxy, the synthetic CO trend, and the alert
// acknowledgement endpoints.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"sensor-dash/internal/domain"
	"sensor-dash/internal/middleware"
	"sensor-dash/internal/service/query"
)

// QueryRunner is the slice of the query proxy the handlers need.
type QueryRunner interface {
	Run(ctx context.Context, sql string) ([]domain.ResultRow, error)
}

// TrendSource produces the synthetic CO trend series.
type TrendSource interface {
	Series() []domain.TrendPoint
}

// HandlerConfig holds the dependencies the handler set is built from.
type HandlerConfig struct {
	Query     QueryRunner
	Trend     TrendSource
	Alerts    domain.AlertStore
	Templates query.Templates
	// DemoMode injects the synthetic danger reading into /latest.
	DemoMode bool
	// Now is the clock for demo record timestamps; defaults to time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

// Handler serves the dashboard API.
type Handler struct {
	query     QueryRunner
	trend     TrendSource
	alerts    domain.AlertStore
	templates query.Templates
	demoMode  bool
	now       func() time.Time
	started   time.Time
	logger    *slog.Logger
}

// NewHandler builds the handler set.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Handler{
		query:     cfg.Query,
		trend:     cfg.Trend,
		alerts:    cfg.Alerts,
		templates: cfg.Templates,
		demoMode:  cfg.DemoMode,
		now:       cfg.Now,
		started:   time.Now(),
		logger:    cfg.Logger,
	}
}

// demoDangerRecord is the fixed synthetic reading the demo injects into
// /latest: 130.5 ppm CO on the first tent's device.
func (h *Handler) demoDangerRecord() domain.ResultRow {
	return domain.ResultRow{
		"device":    "b8:27:eb:bf:9d:51",
		"device_id": "b8:27:eb:bf:9d:51",
		"co":        0.1305,
		"smoke":     0.025,
		"temp":      28.0,
		"humidity":  40.0,
		"lpg":       0.005,
		"ts":        h.now().Unix(),
		"alert_key": "simulated_tent1_danger_130",
	}
}

// Latest serves the 20 most recent readings per device. With demo mode on,
// the synthetic danger record is always present — appended to real data, or
// served alone when the backend has nothing.
func (h *Handler) Latest(w http.ResponseWriter, r *http.Request) {
	rows, err := h.query.Run(r.Context(), h.templates.Latest)
	if err != nil || len(rows) == 0 {
		if err != nil {
			h.logQueryFailure(r.Context(), "/latest", err)
		}
		rows = []domain.ResultRow{}
	}
	if h.demoMode {
		rows = append(rows, h.demoDangerRecord())
	}
	writeJSON(w, http.StatusOK, rows)
}

// COTrend serves the synthetic trend series. No backend call.
func (h *Handler) COTrend(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.trend.Series())
}

// AvgMetrics serves per-device averages over the whole dataset.
func (h *Handler) AvgMetrics(w http.ResponseWriter, r *http.Request) {
	h.serveTemplate(w, r, "/avg_metrics", h.templates.AvgMetrics)
}

// MaxMetrics serves per-device maxima over the whole dataset.
func (h *Handler) MaxMetrics(w http.ResponseWriter, r *http.Request) {
	h.serveTemplate(w, r, "/max_metrics", h.templates.MaxMetrics)
}

// AlertCounts serves per-device counts of readings over the CO threshold.
func (h *Handler) AlertCounts(w http.ResponseWriter, r *http.Request) {
	h.serveTemplate(w, r, "/alert_counts", h.templates.AlertCounts)
}

// HumidityCO serves average CO grouped by humidity.
func (h *Handler) HumidityCO(w http.ResponseWriter, r *http.Request) {
	h.serveTemplate(w, r, "/humidity_co", h.templates.HumidityCO)
}

// TempDist serves the temperature distribution.
func (h *Handler) TempDist(w http.ResponseWriter, r *http.Request) {
	h.serveTemplate(w, r, "/temp_dist", h.templates.TempDist)
}

// serveTemplate runs one canned query and writes its rows. Proxy failures
// become an empty 200 array: the dashboard renders an empty chart rather
// than an error page, so callers cannot tell "no data" from "backend down"
// at the HTTP layer.
func (h *Handler) serveTemplate(w http.ResponseWriter, r *http.Request, route, sql string) {
	rows, err := h.query.Run(r.Context(), sql)
	if err != nil {
		h.logQueryFailure(r.Context(), route, err)
		rows = nil
	}
	if rows == nil {
		rows = []domain.ResultRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// AcknowledgeAlert records one alert key so the UI stops re-surfacing it.
func (h *Handler) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AlertKey string `json:"alert_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AlertKey == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false})
		return
	}

	if err := h.alerts.Acknowledge(r.Context(), req.AlertKey); err != nil {
		h.logger.Error("acknowledge alert failed", "alert_key", req.AlertKey, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false})
		return
	}

	h.logger.Info("alert acknowledged", "alert_key", req.AlertKey)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"acknowledged": req.AlertKey,
	})
}

// ResetAlerts clears the acknowledged set. Idempotent.
func (h *Handler) ResetAlerts(w http.ResponseWriter, r *http.Request) {
	if err := h.alerts.Reset(r.Context()); err != nil {
		h.logger.Error("reset alerts failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false})
		return
	}

	h.logger.Info("all alerts reset")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "All alerts reset",
	})
}

// Health reports liveness and uptime.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.started).Seconds()),
	})
}

func (h *Handler) logQueryFailure(ctx context.Context, route string, err error) {
	h.logger.Error("query proxy failed, serving empty result",
		"route", route,
		"request_id", middleware.RequestIDFromContext(ctx),
		"error", err,
	)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
