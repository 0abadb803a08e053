package generator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"rsi-dashboard-go/internal/analytics"
	"rsi-dashboard-go/internal/config"
	"rsi-dashboard-go/internal/models"
	"rsi-dashboard-go/internal/store"

	"go.uber.org/zap"
)

// RSI bands an entry is drawn from, and the threshold that maps RSI to a signal.
const (
	OversoldLow    = 25.0
	OversoldHigh   = 35.0
	OverboughtLow  = 70.0
	OverboughtHigh = 80.0
	BuyThreshold   = 35.0

	MinEntryPrice = 45000.0
	MaxEntryPrice = 55000.0

	// A uniform draw u in [0,1) becomes (u - changeBias) * changeRange,
	// i.e. a price change in [-2.4%, +3.6%).
	changeBias  = 0.4
	changeRange = 0.06
)

// ErrNegativeCount is returned by Seed when the configured count is below zero.
var ErrNegativeCount = errors.New("generator count must not be negative")

// Generator produces plausible synthetic trades for seeding an empty store.
type Generator struct {
	cfg config.Generator
	rng *rand.Rand
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() config.Generator {
	return config.Generator{
		Count:   1000,
		Spacing: time.Hour,
		Symbol:  models.DefaultSymbol,
	}
}

// New creates a generator drawing from src. A nil src is seeded from cfg.Seed,
// or from the clock when cfg.Seed is zero.
func New(cfg config.Generator, src rand.Source) *Generator {
	if src == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		src = rand.NewSource(seed)
	}
	if cfg.Symbol == "" {
		cfg.Symbol = models.DefaultSymbol
	}
	return &Generator{cfg: cfg, rng: rand.New(src)}
}

// Generate builds n trades without ids. Timestamps are spaced cfg.Spacing
// apart, oldest first, with the newest at now. A negative n yields no trades.
func (g *Generator) Generate(n int, now time.Time) []models.Trade {
	if n < 0 {
		n = 0
	}
	trades := make([]models.Trade, 0, n)
	for i := 0; i < n; i++ {
		ts := now.Add(-time.Duration(n-1-i) * g.cfg.Spacing)
		trades = append(trades, g.generateTrade(ts))
	}
	return trades
}

func (g *Generator) generateTrade(timestamp time.Time) models.Trade {
	var rsi float64
	if g.rng.Float64() < 0.5 {
		rsi = g.drawRSI(OversoldLow, OversoldHigh)
	} else {
		rsi = g.drawRSI(OverboughtLow, OverboughtHigh)
	}

	signal := models.SignalSell
	if rsi < BuyThreshold {
		signal = models.SignalBuy
	}

	entry := MinEntryPrice + g.rng.Float64()*(MaxEntryPrice-MinEntryPrice)
	changePct := (g.rng.Float64() - changeBias) * changeRange
	exit := entry * (1 + changePct)
	pnl := analytics.Round(models.DirectionalPnL(signal, entry, exit), 4)

	return models.Trade{
		Timestamp:  timestamp,
		Symbol:     g.cfg.Symbol,
		RSI:        rsi,
		Signal:     signal,
		EntryPrice: entry,
		ExitPrice:  exit,
		PnL:        pnl,
		IsWin:      pnl > 0,
	}
}

// drawRSI returns a value in [low, high) rounded to 2 places. Draws that
// would round up to high are pulled back to the last value below it.
func (g *Generator) drawRSI(low, high float64) float64 {
	rsi := analytics.Round(low+g.rng.Float64()*(high-low), 2)
	if rsi >= high {
		rsi = analytics.Round(high-0.01, 2)
	}
	return rsi
}

// Seed fills s with cfg.Count synthetic trades if, and only if, s is empty.
// It returns how many trades were written.
func (g *Generator) Seed(ctx context.Context, s store.Store, log *zap.Logger) (int, error) {
	if g.cfg.Count < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativeCount, g.cfg.Count)
	}

	count, err := s.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("could not count trades: %w", err)
	}
	if count > 0 {
		log.Info("Trade store already populated, skipping seed", zap.Int64("trades", count))
		return 0, nil
	}

	trades := g.Generate(g.cfg.Count, time.Now().UTC())
	stored, err := s.AppendBatch(ctx, trades)
	if err != nil {
		return 0, fmt.Errorf("could not store generated trades: %w", err)
	}
	log.Info("Generated simulated trades", zap.Int("count", len(stored)))
	return len(stored), nil
}
