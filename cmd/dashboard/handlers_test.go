package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rsi-dashboard-go/internal/analytics"
	"rsi-dashboard-go/internal/config"
	"rsi-dashboard-go/internal/metrics"
	"rsi-dashboard-go/internal/models"
	"rsi-dashboard-go/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockStore is a mock implementation of store.Store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) All(ctx context.Context) ([]models.Trade, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Trade), args.Error(1)
}

func (m *MockStore) Append(ctx context.Context, trade models.Trade) (models.Trade, error) {
	args := m.Called(ctx, trade)
	return args.Get(0).(models.Trade), args.Error(1)
}

func (m *MockStore) AppendBatch(ctx context.Context, trades []models.Trade) ([]models.Trade, error) {
	args := m.Called(ctx, trades)
	return args.Get(0).([]models.Trade), args.Error(1)
}

func (m *MockStore) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) Close() error {
	return m.Called().Error(0)
}

// setupServer builds the full handler stack on top of s.
func setupServer(t *testing.T, s store.Store) (http.Handler, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	cfg := config.Server{StaticDir: t.TempDir(), CORSOrigin: "*"}
	return newServer(cfg, zap.NewNop(), s, m, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})), reg
}

// seededStore returns a memory store holding trades with the given pnls.
func seededStore(t *testing.T, pnls ...float64) *store.MemoryStore {
	t.Helper()
	s := store.NewMemoryStore()
	for i, pnl := range pnls {
		_, err := s.Append(context.Background(), models.Trade{
			RSI:        30 + float64(i),
			Signal:     models.SignalBuy,
			EntryPrice: 50000,
			ExitPrice:  50000 + pnl,
			PnL:        pnl,
		})
		require.NoError(t, err)
	}
	return s
}

func get(t *testing.T, h http.Handler, path string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec
}

func TestEndToEnd_StatsAndSparkline(t *testing.T) {
	h, _ := setupServer(t, seededStore(t, 10, -3, 5))

	var stats analytics.Stats
	rec := get(t, h, "/api/stats", &stats)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, int64(3), stats.TotalTrades)
	assert.InDelta(t, 12, stats.TotalPnL, 1e-9)
	assert.InDelta(t, 66.67, stats.WinRate, 0.01)
	assert.InDelta(t, -3, stats.TotalLosses, 1e-9)
	assert.Equal(t, int64(1), stats.NumLosses)

	var curve analytics.EquityCurve
	get(t, h, "/api/sparkline", &curve)
	assert.Equal(t, []string{"#1", "#2", "#3"}, curve.Labels)
	assert.Equal(t, []float64{10, 7, 12}, curve.Data)
}

func TestSparklineHandler_KeepsRunningTotal(t *testing.T) {
	pnls := make([]float64, 25)
	for i := range pnls {
		pnls[i] = 1
	}
	h, _ := setupServer(t, seededStore(t, pnls...))

	var curve analytics.EquityCurve
	get(t, h, "/api/sparkline", &curve)
	require.Len(t, curve.Data, analytics.SparklinePoints)
	assert.Equal(t, "#6", curve.Labels[0])
	assert.Equal(t, 6.0, curve.Data[0])
	assert.Equal(t, 25.0, curve.Data[19])
}

func TestTradesHandler_NewestFirst(t *testing.T) {
	pnls := make([]float64, 15)
	for i := range pnls {
		pnls[i] = float64(i + 1)
	}
	h, _ := setupServer(t, seededStore(t, pnls...))

	var trades []models.Trade
	rec := get(t, h, "/api/trades", &trades)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, trades, 10)
	assert.Equal(t, uint(15), trades[0].ID)
	assert.Equal(t, uint(6), trades[9].ID)
	assert.True(t, trades[0].IsWin)
	assert.Equal(t, models.DefaultSymbol, trades[0].Symbol)
}

func TestEmptyStore_Defaults(t *testing.T) {
	h, _ := setupServer(t, store.NewMemoryStore())

	var stats analytics.Stats
	get(t, h, "/api/stats", &stats)
	assert.Equal(t, analytics.Stats{}, stats)

	var monitor analytics.Monitor
	get(t, h, "/api/monitor", &monitor)
	assert.Equal(t, analytics.Monitor{CurrentRSI: 50, CurrentPrice: 50000, Signal: "HOLD", Status: "Running"}, monitor)

	var trend analytics.Trend
	get(t, h, "/api/trend", &trend)
	assert.Equal(t, analytics.Trend{Trend: "Neutral", Change: "0%"}, trend)

	rec := get(t, h, "/api/trades", nil)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = get(t, h, "/api/sparkline", nil)
	assert.JSONEq(t, `{"labels":[],"data":[]}`, rec.Body.String())
}

func TestMonitorAndTrend(t *testing.T) {
	h, _ := setupServer(t, seededStore(t, 1, -1, 1, -1, 0))

	var monitor analytics.Monitor
	get(t, h, "/api/monitor", &monitor)
	assert.Equal(t, 34.0, monitor.CurrentRSI)
	assert.Equal(t, 50000.0, monitor.CurrentPrice)
	assert.Equal(t, models.SignalBuy, monitor.Signal)

	var trend analytics.Trend
	get(t, h, "/api/trend", &trend)
	assert.Equal(t, analytics.Trend{Trend: "Bearish", Change: "0.00%"}, trend)
}

func TestStoreFailure_Returns500(t *testing.T) {
	s := new(MockStore)
	s.On("All", mock.Anything).Return([]models.Trade(nil), errors.New("disk on fire"))
	h, _ := setupServer(t, s)

	for _, path := range []string{"/api/stats", "/api/trades", "/api/monitor", "/api/sparkline", "/api/trend"} {
		t.Run(path, func(t *testing.T) {
			var body ErrorResponse
			rec := get(t, h, path, &body)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Contains(t, body.Error, "disk on fire")
		})
	}
	s.AssertExpectations(t)
}

func TestHealthHandler(t *testing.T) {
	s := new(MockStore)
	handler := NewAPIHandler(zap.NewNop(), s, nil)
	handler.started = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	handler.now = func() time.Time { return handler.started.Add(90 * time.Second) }

	mux := http.NewServeMux()
	handler.Routes(mux)

	var health HealthResponse
	rec := get(t, mux, "/api/health", &health)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, 90.0, health.Uptime)
	assert.Equal(t, "2024-01-01T00:01:30Z", health.LastUpdate)
	// Health never reads the store.
	s.AssertNotCalled(t, "All", mock.Anything)
}

func TestMiddleware(t *testing.T) {
	h, reg := setupServer(t, store.NewMemoryStore())

	t.Run("RequestIDGenerated", func(t *testing.T) {
		rec := get(t, h, "/api/health", nil)
		assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("RequestIDPropagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set(requestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
	})

	t.Run("Preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/stats", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("MetricsRecorded", func(t *testing.T) {
		get(t, h, "/api/stats", nil)
		families, err := reg.Gather()
		require.NoError(t, err)
		names := make([]string, 0, len(families))
		for _, f := range families {
			names = append(names, f.GetName())
		}
		assert.Contains(t, names, "dashboard_http_requests_total")
		assert.Contains(t, names, "dashboard_trades_stored")

		rec := get(t, h, "/metrics", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `dashboard_http_requests_total{route="GET /api/stats",status="200"}`)
	})
}

// requestSeries returns the route label of every dashboard_http_requests_total
// series with the given status.
func requestSeries(t *testing.T, reg *prometheus.Registry, status string) []string {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	var routes []string
	for _, f := range families {
		if f.GetName() != "dashboard_http_requests_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			labels := make(map[string]string)
			for _, l := range metric.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["status"] == status {
				routes = append(routes, labels["route"])
			}
		}
	}
	return routes
}

func TestMiddleware_RouteLabelIsBounded(t *testing.T) {
	t.Run("StaticFallback", func(t *testing.T) {
		h, reg := setupServer(t, store.NewMemoryStore())
		for i := 0; i < 50; i++ {
			rec := get(t, h, fmt.Sprintf("/x/%d", i), nil)
			require.Equal(t, http.StatusNotFound, rec.Code)
		}
		assert.Equal(t, []string{"GET /"}, requestSeries(t, reg, "404"))
	})

	t.Run("NoStaticDir", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		h := newServer(config.Server{}, zap.NewNop(), store.NewMemoryStore(), metrics.New(reg), promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		for i := 0; i < 50; i++ {
			rec := get(t, h, fmt.Sprintf("/x/%d", i), nil)
			require.Equal(t, http.StatusNotFound, rec.Code)
		}
		assert.Equal(t, []string{unmatchedRoute}, requestSeries(t, reg, "404"))
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		h, reg := setupServer(t, store.NewMemoryStore())
		for _, path := range []string{"/api/stats", "/api/trades", "/api/trend"} {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
			require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		}
		assert.Equal(t, []string{unmatchedRoute}, requestSeries(t, reg, "405"))
	})
}
