package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	SignalBuy  = "BUY"
	SignalSell = "SELL"
	SignalHold = "HOLD"

	// DefaultSymbol is stored when a trade arrives without a symbol.
	DefaultSymbol = "BTCUSDT"
)

// ErrInvalidTrade is returned when a trade fails validation.
var ErrInvalidTrade = errors.New("invalid trade")

// Trade represents one completed round-trip trade.
// Rows are append-only: once stored, a trade is never updated or deleted.
type Trade struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Timestamp  time.Time `gorm:"index" json:"timestamp"`
	Symbol     string    `gorm:"default:BTCUSDT" json:"symbol"`
	RSI        float64   `json:"rsi"`
	Signal     string    `gorm:"size:8" json:"signal"` // "BUY" or "SELL"
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	PnL        float64   `gorm:"column:pnl" json:"pnl"`
	IsWin      bool      `json:"is_win"`
}

// TableName pins the table name regardless of gorm naming strategy.
func (Trade) TableName() string {
	return "trades"
}

// DirectionalPnL returns the signed profit of a round trip: exit-entry for a
// long (BUY) position and entry-exit for a short (SELL) one.
func DirectionalPnL(signal string, entry, exit float64) float64 {
	if signal == SignalSell {
		return entry - exit
	}
	return exit - entry
}

// Validate checks the fields a caller is responsible for.
func (t *Trade) Validate() error {
	if t.Signal != SignalBuy && t.Signal != SignalSell {
		return fmt.Errorf("%w: signal %q", ErrInvalidTrade, t.Signal)
	}
	if t.EntryPrice <= 0 || t.ExitPrice <= 0 {
		return fmt.Errorf("%w: prices must be positive (entry=%v exit=%v)", ErrInvalidTrade, t.EntryPrice, t.ExitPrice)
	}
	return nil
}

// Normalize fills in defaulted fields and re-derives IsWin from PnL.
// The ID is left to the store.
func (t *Trade) Normalize(now time.Time) {
	if t.Timestamp.IsZero() {
		t.Timestamp = now
	}
	if t.Symbol == "" {
		t.Symbol = DefaultSymbol
	}
	t.IsWin = t.PnL > 0
}

// BeforeCreate keeps SQL-backed rows consistent with the other stores.
func (t *Trade) BeforeCreate(tx *gorm.DB) error {
	if err := t.Validate(); err != nil {
		return err
	}
	t.Normalize(time.Now().UTC())
	return nil
}
