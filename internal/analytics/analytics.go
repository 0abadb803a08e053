// Package analytics turns an ordered snapshot of trades into the figures
// shown on the dashboard. Every function is pure: it neither reads from nor
// writes to a store, keeps no state between calls and never fails on empty
// input.
package analytics

import (
	"fmt"
	"sort"

	"rsi-dashboard-go/internal/models"

	"github.com/shopspring/decimal"
)

const (
	// SparklinePoints is how many equity points the dashboard plots.
	SparklinePoints = 20
	// TrendWindow is how many of the latest trades feed the trend signal.
	TrendWindow = 5
	// TrendScale turns the average P&L of the trend window into the displayed percentage.
	TrendScale = 5

	TrendBullish = "Bullish"
	TrendBearish = "Bearish"
	TrendNeutral = "Neutral"

	StatusRunning = "Running"

	DefaultRSI   = 50
	DefaultPrice = 50000
)

// Stats holds aggregate figures over the whole trade history.
type Stats struct {
	TotalTrades int64   `json:"total_trades"`
	TotalPnL    float64 `json:"total_pnl"`
	WinRate     float64 `json:"winrate"`
	TotalLosses float64 `json:"total_losses"`
	NumLosses   int64   `json:"num_losses"`
}

// Monitor is the latest-state snapshot of the bot.
type Monitor struct {
	CurrentRSI   float64 `json:"current_rsi"`
	CurrentPrice float64 `json:"current_price"`
	Signal       string  `json:"signal"`
	Status       string  `json:"status"`
}

// EquityCurve is the cumulative P&L after each trade, labelled by trade id.
type EquityCurve struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

// Trend is the short-window direction of recent P&L.
type Trend struct {
	Trend  string `json:"trend"`
	Change string `json:"change"`
}

// Round rounds x half away from zero to the given number of decimal places.
func Round(x float64, places int32) float64 {
	return decimal.NewFromFloat(x).Round(places).InexactFloat64()
}

// ComputeStats aggregates P&L, win rate and losses. Sums are kept at full
// precision; rounding is left to whoever displays them.
func ComputeStats(trades []models.Trade) Stats {
	var stats Stats
	var wins int64
	for _, t := range trades {
		stats.TotalTrades++
		stats.TotalPnL += t.PnL
		if t.IsWin {
			wins++
		}
		if t.PnL < 0 {
			stats.NumLosses++
			stats.TotalLosses += t.PnL
		}
	}
	if stats.TotalTrades > 0 {
		stats.WinRate = 100 * float64(wins) / float64(stats.TotalTrades)
	}
	return stats
}

// ComputeMonitor reports the most recently appended trade, or neutral
// defaults when there is none. Status is a liveness flag and is always Running.
func ComputeMonitor(trades []models.Trade) Monitor {
	if len(trades) == 0 {
		return Monitor{
			CurrentRSI:   DefaultRSI,
			CurrentPrice: DefaultPrice,
			Signal:       models.SignalHold,
			Status:       StatusRunning,
		}
	}

	last := trades[0]
	for _, t := range trades[1:] {
		if t.ID > last.ID {
			last = t
		}
	}
	return Monitor{
		CurrentRSI:   Round(last.RSI, 2),
		CurrentPrice: Round((last.EntryPrice+last.ExitPrice)/2, 2),
		Signal:       last.Signal,
		Status:       StatusRunning,
	}
}

// ComputeEquityCurve returns the running sum of P&L over the full history
// in ascending id order. Callers that want fewer points must use Tail on
// the result so the running total is not reset.
func ComputeEquityCurve(trades []models.Trade) EquityCurve {
	ordered := byID(trades)
	curve := EquityCurve{
		Labels: make([]string, len(ordered)),
		Data:   make([]float64, len(ordered)),
	}

	var equity float64
	for i, t := range ordered {
		equity += t.PnL
		curve.Labels[i] = fmt.Sprintf("#%d", t.ID)
		curve.Data[i] = Round(equity, 2)
	}
	return curve
}

// Tail keeps the last n points of the curve.
func (c EquityCurve) Tail(n int) EquityCurve {
	if n < 0 {
		n = 0
	}
	if n >= len(c.Data) {
		return c
	}
	start := len(c.Data) - n
	return EquityCurve{
		Labels: c.Labels[start:],
		Data:   c.Data[start:],
	}
}

// ComputeTrend classifies the mean P&L of the last TrendWindow trades.
// A mean of exactly zero is Bearish.
func ComputeTrend(trades []models.Trade) Trend {
	if len(trades) == 0 {
		return Trend{Trend: TrendNeutral, Change: "0%"}
	}

	ordered := byID(trades)
	window := ordered[max(0, len(ordered)-TrendWindow):]

	var sum float64
	for _, t := range window {
		sum += t.PnL
	}
	avg := sum / float64(len(window))

	trend := TrendBearish
	if avg > 0 {
		trend = TrendBullish
	}
	return Trend{
		Trend:  trend,
		Change: decimal.NewFromFloat(avg*TrendScale).StringFixed(2) + "%",
	}
}

// byID returns the trades in ascending id order, copying only when the
// input is not already sorted.
func byID(trades []models.Trade) []models.Trade {
	if sort.SliceIsSorted(trades, func(i, j int) bool { return trades[i].ID < trades[j].ID }) {
		return trades
	}
	ordered := make([]models.Trade, len(trades))
	copy(ordered, trades)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })
	return ordered
}
