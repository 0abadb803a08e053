package main

import (
	"encoding/json"
	"net/http"
	"time"

	"rsi-dashboard-go/internal/analytics"
	"rsi-dashboard-go/internal/metrics"
	"rsi-dashboard-go/internal/models"
	"rsi-dashboard-go/internal/store"

	"go.uber.org/zap"
)

// recentTradesLimit is how many trades /api/trades returns.
const recentTradesLimit = 10

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log     *zap.Logger
	store   store.Store
	metrics *metrics.Metrics
	started time.Time
	now     func() time.Time
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(log *zap.Logger, s store.Store, m *metrics.Metrics) *APIHandler {
	return &APIHandler{
		log:     log,
		store:   s,
		metrics: m,
		started: time.Now(),
		now:     time.Now,
	}
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the structure for the /api/health endpoint.
type HealthResponse struct {
	Status     string  `json:"status"`
	Uptime     float64 `json:"uptime"`
	LastUpdate string  `json:"last_update"`
}

// Routes registers the API endpoints on mux.
func (h *APIHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/stats", h.StatsHandler)
	mux.HandleFunc("GET /api/trades", h.TradesHandler)
	mux.HandleFunc("GET /api/monitor", h.MonitorHandler)
	mux.HandleFunc("GET /api/sparkline", h.SparklineHandler)
	mux.HandleFunc("GET /api/trend", h.TrendHandler)
	mux.HandleFunc("GET /api/health", h.HealthHandler)
}

// snapshot reads every trade, writing a 500 response on failure.
func (h *APIHandler) snapshot(w http.ResponseWriter, r *http.Request) ([]models.Trade, bool) {
	trades, err := h.store.All(r.Context())
	if err != nil {
		h.log.Error("Failed to get trades from store", zap.String("path", r.URL.Path), zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return nil, false
	}
	if h.metrics != nil {
		h.metrics.SetTradesStored(len(trades))
	}
	return trades, true
}

// StatsHandler returns aggregate statistics over all trades.
func (h *APIHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	trades, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, analytics.ComputeStats(trades))
}

// TradesHandler returns the most recent trades, newest first.
func (h *APIHandler) TradesHandler(w http.ResponseWriter, r *http.Request) {
	trades, err := store.Latest(r.Context(), h.store, recentTradesLimit)
	if err != nil {
		h.log.Error("Failed to get recent trades from store", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, trades)
}

// MonitorHandler returns the latest-state snapshot.
func (h *APIHandler) MonitorHandler(w http.ResponseWriter, r *http.Request) {
	trades, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, analytics.ComputeMonitor(trades))
}

// SparklineHandler returns the tail of the equity curve.
func (h *APIHandler) SparklineHandler(w http.ResponseWriter, r *http.Request) {
	trades, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	curve := analytics.ComputeEquityCurve(trades).Tail(analytics.SparklinePoints)
	h.writeJSON(w, http.StatusOK, curve)
}

// TrendHandler returns the short-window trend signal.
func (h *APIHandler) TrendHandler(w http.ResponseWriter, r *http.Request) {
	trades, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, analytics.ComputeTrend(trades))
}

// HealthHandler reports process liveness. It does not touch the store.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:     "healthy",
		Uptime:     now.Sub(h.started).Seconds(),
		LastUpdate: now.UTC().Format(time.RFC3339Nano),
	})
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to write response", zap.Error(err))
	}
}
