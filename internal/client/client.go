package client

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"rsi-dashboard-go/internal/analytics"
	"rsi-dashboard-go/internal/config"
	"rsi-dashboard-go/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxRetries = 3

// DashboardClient defines the read API of a running dashboard.
type DashboardClient interface {
	Stats(ctx context.Context) (*analytics.Stats, error)
	Trades(ctx context.Context) ([]models.Trade, error)
	Monitor(ctx context.Context) (*analytics.Monitor, error)
	Sparkline(ctx context.Context) (*analytics.EquityCurve, error)
	Trend(ctx context.Context) (*analytics.Trend, error)
	Health(ctx context.Context) (*Health, error)
}

// Client is a rate-limited client for the dashboard HTTP API.
// It implements the DashboardClient.
type Client struct {
	client     *resty.Client
	logger     *zap.Logger
	limiter    *rate.Limiter
	retryDelay func(attempt int) time.Duration
}

// ensure Client implements the interface
var _ DashboardClient = (*Client)(nil)

// Health is the response of the /api/health endpoint.
type Health struct {
	Status     string  `json:"status"`
	Uptime     float64 `json:"uptime"`
	LastUpdate string  `json:"last_update"`
}

type apiError struct {
	Error string `json:"error"`
}

// New creates a new dashboard API client.
func New(cfg config.Client, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Accept", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RateLimitBurst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		client:     client,
		logger:     logger,
		limiter:    rate.NewLimiter(limit, burst),
		retryDelay: backoff,
	}
}

// backoff waits 1s, 2s, 4s between attempts.
func backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * time.Second
}

// get performs a GET with rate limiting and retry on 429 and 5xx responses.
func (c *Client) get(ctx context.Context, path string, result any) error {
	var resp *resty.Response
	var err error

	for i := 0; i < maxRetries; i++ {
		// Wait for the rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("url", c.client.BaseURL+path))
		resp, err = c.client.R().
			SetContext(ctx).
			SetResult(result).
			SetError(&apiError{}).
			Get(path)

		if err == nil && !resp.IsError() {
			return nil
		}

		shouldRetry := false
		var retryAfter time.Duration

		if err == nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				if seconds, convErr := strconv.Atoi(resp.Header().Get("Retry-After")); convErr == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 {
				shouldRetry = true
			}
			err = responseError(resp)
		} else if ctx.Err() == nil {
			// Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return err
		}

		if retryAfter == 0 {
			retryAfter = c.retryDelay(i)
		}

		c.logger.Warn("Request failed, retrying...",
			zap.String("path", path),
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}

func responseError(resp *resty.Response) error {
	if e, ok := resp.Error().(*apiError); ok && e.Error != "" {
		return fmt.Errorf("request failed with status %s: %s", resp.Status(), e.Error)
	}
	return fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
}

// Stats fetches aggregate statistics.
func (c *Client) Stats(ctx context.Context) (*analytics.Stats, error) {
	var stats analytics.Stats
	if err := c.get(ctx, "/api/stats", &stats); err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return &stats, nil
}

// Trades fetches the most recent trades, newest first.
func (c *Client) Trades(ctx context.Context) ([]models.Trade, error) {
	var trades []models.Trade
	if err := c.get(ctx, "/api/trades", &trades); err != nil {
		return nil, fmt.Errorf("failed to get trades: %w", err)
	}
	return trades, nil
}

// Monitor fetches the latest-state snapshot.
func (c *Client) Monitor(ctx context.Context) (*analytics.Monitor, error) {
	var monitor analytics.Monitor
	if err := c.get(ctx, "/api/monitor", &monitor); err != nil {
		return nil, fmt.Errorf("failed to get monitor: %w", err)
	}
	return &monitor, nil
}

// Sparkline fetches the tail of the equity curve.
func (c *Client) Sparkline(ctx context.Context) (*analytics.EquityCurve, error) {
	var curve analytics.EquityCurve
	if err := c.get(ctx, "/api/sparkline", &curve); err != nil {
		return nil, fmt.Errorf("failed to get sparkline: %w", err)
	}
	return &curve, nil
}

// Trend fetches the short-window trend signal.
func (c *Client) Trend(ctx context.Context) (*analytics.Trend, error) {
	var trend analytics.Trend
	if err := c.get(ctx, "/api/trend", &trend); err != nil {
		return nil, fmt.Errorf("failed to get trend: %w", err)
	}
	return &trend, nil
}

// Health fetches server liveness. This is a good endpoint to test connectivity.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var health Health
	if err := c.get(ctx, "/api/health", &health); err != nil {
		c.logger.Error("Failed to get health", zap.Error(err))
		return nil, fmt.Errorf("failed to get health: %w", err)
	}
	return &health, nil
}
