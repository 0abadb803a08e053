package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"rsi-dashboard-go/internal/config"
	"rsi-dashboard-go/internal/generator"
	"rsi-dashboard-go/internal/logger"
	"rsi-dashboard-go/internal/metrics"
	"rsi-dashboard-go/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Open the trade store
	tradeStore, err := store.Open(cfg.Store, log)
	if err != nil {
		log.Fatal("Failed to open trade store", zap.Error(err))
	}
	defer tradeStore.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Seed the store with simulated history on first start
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	gen := generator.New(cfg.Generator, nil)
	generated, err := gen.Seed(ctx, tradeStore, log.Named("generator"))
	if err != nil {
		log.Fatal("Failed to seed trade store", zap.Error(err))
	}
	m.AddTradesGenerated(generated)

	handler := newServer(cfg.Server, log, tradeStore, m, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: handler,
	}

	go func() {
		log.Info("Starting web server", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Web server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received, gracefully shutting down...")

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Web server shutdown failed", zap.Error(err))
	}
	log.Info("Dashboard has been shut down.")
}

// newServer wires the API, the metrics endpoint and the static dashboard
// assets behind the common middleware.
func newServer(cfg config.Server, log *zap.Logger, s store.Store, m *metrics.Metrics, metricsHandler http.Handler) http.Handler {
	mux := http.NewServeMux()

	// Create a handler that has access to the logger and store
	apiHandler := NewAPIHandler(log.Named("api"), s, m)
	apiHandler.Routes(mux)

	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	// Static file serving for the dashboard page, its scripts and styles
	if cfg.StaticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	origin := cfg.CORSOrigin
	if origin == "" {
		origin = "*"
	}
	return chain(mux,
		requestIDMiddleware,
		corsMiddleware(origin),
		accessLogMiddleware(log.Named("http"), m),
	)
}
