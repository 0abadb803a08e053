package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"rsi-dashboard-go/internal/analytics"
	"rsi-dashboard-go/internal/client"
	"rsi-dashboard-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockClient is a mock implementation of client.DashboardClient.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Stats(ctx context.Context) (*analytics.Stats, error) {
	args := m.Called()
	return args.Get(0).(*analytics.Stats), args.Error(1)
}

func (m *MockClient) Trades(ctx context.Context) ([]models.Trade, error) {
	args := m.Called()
	return args.Get(0).([]models.Trade), args.Error(1)
}

func (m *MockClient) Monitor(ctx context.Context) (*analytics.Monitor, error) {
	args := m.Called()
	return args.Get(0).(*analytics.Monitor), args.Error(1)
}

func (m *MockClient) Sparkline(ctx context.Context) (*analytics.EquityCurve, error) {
	args := m.Called()
	return args.Get(0).(*analytics.EquityCurve), args.Error(1)
}

func (m *MockClient) Trend(ctx context.Context) (*analytics.Trend, error) {
	args := m.Called()
	return args.Get(0).(*analytics.Trend), args.Error(1)
}

func (m *MockClient) Health(ctx context.Context) (*client.Health, error) {
	args := m.Called()
	return args.Get(0).(*client.Health), args.Error(1)
}

func TestPrintSummary(t *testing.T) {
	c := new(MockClient)
	c.On("Stats").Return(&analytics.Stats{TotalTrades: 3, TotalPnL: 12, WinRate: 66.666, TotalLosses: -3, NumLosses: 1}, nil)
	c.On("Monitor").Return(&analytics.Monitor{CurrentRSI: 30.5, CurrentPrice: 50100, Signal: "BUY", Status: "Running"}, nil)
	c.On("Trend").Return(&analytics.Trend{Trend: "Bullish", Change: "20.00%"}, nil)
	c.On("Sparkline").Return(&analytics.EquityCurve{Labels: []string{"#1", "#2", "#3"}, Data: []float64{10, 7, 12}}, nil)
	c.On("Trades").Return([]models.Trade{
		{ID: 3, Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), Signal: "BUY", RSI: 30.5, EntryPrice: 50000, ExitPrice: 50005, PnL: 5},
	}, nil)

	var out bytes.Buffer
	err := printSummary(context.Background(), &out, c)

	assert.NoError(t, err)
	assert.Contains(t, out.String(), "Trades: 3  P&L: $12.00  Win rate: 66.7%  Losses: $3.00 (1)")
	assert.Contains(t, out.String(), "Signal: BUY")
	assert.Contains(t, out.String(), "Trend: Bullish 20.00%")
	assert.Contains(t, out.String(), "Equity: #1 10.00 -> #3 12.00")
	assert.Contains(t, out.String(), "2024-01-01 12:00")
	c.AssertExpectations(t)
}

func TestPrintSummary_StopsOnError(t *testing.T) {
	c := new(MockClient)
	c.On("Stats").Return((*analytics.Stats)(nil), errors.New("connection refused"))

	var out bytes.Buffer
	err := printSummary(context.Background(), &out, c)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Empty(t, out.String())
	c.AssertNotCalled(t, "Monitor")
}
