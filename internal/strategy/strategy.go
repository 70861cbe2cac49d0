package strategy

import (
	"time"

	"dca-backtest/internal/model"
)

// Context is what a policy sees on one processed date.
type Context struct {
	Index     int
	Date      time.Time
	Price     float64
	LastPrice float64 // 0 before the first processed date
	Position  model.PositionLedger
}

// Sizing decides how much to invest on each processed date.
// Implementations keep running state and must not be shared between runs.
type Sizing interface {
	Name() string
	// Prepare runs once before the loop with every price the run will see.
	Prepare(prices []float64) error
	// Next returns the amount to invest now, always >= 0.
	Next(ctx Context) float64
	// Reset restores the base amount after a liquidation.
	Reset()
}

// Liquidation decides whether to sell after the day's buy.
type Liquidation interface {
	Name() string
	Decide(ctx Context, gainPct float64) Sale
	// Record tells the policy a sale happened on date.
	Record(date time.Time)
}

// Sale is the outcome of a liquidation decision. Only Triggered sales carry
// a meaningful Tier; Decide reports a hold as Tier -1 with zero Fraction.
type Sale struct {
	Tier          int // index into the sorted ladder, -1 when no sale
	Fraction      float64
	CostFactor    float64
	InflateByGain bool
	ResetSizing   bool
}

func (s Sale) Triggered() bool { return s.Fraction > 0 }
