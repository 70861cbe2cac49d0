package backtest

import (
	"time"

	"dca-backtest/internal/model"
)

// Record is one row of per-date output, appended for every processed date.
// This is the primary artifact for "what happened" in a run.
type Record struct {
	Index int
	Date  time.Time
	Price float64

	Action       model.Action
	Invested     float64
	SoldFraction float64
	Proceeds     float64

	Units     float64
	Cash      float64
	CostBasis float64

	TotalValue        float64
	UnrealizedGainPct float64

	Contributed float64
	ReturnPct   float64

	// Benchmarks on the same date.
	CashBaseline float64
	LumpSumValue float64
}

// State is everything a run mutates. Each run owns its own State.
type State struct {
	Cash     model.CashAccount
	Baseline model.CashAccount
	Position model.PositionLedger

	Contributed        float64
	LastInvestmentDate time.Time
	LastPrice          float64
	FirstPrice         float64
}

type Result struct {
	Name         string
	InstrumentID string
	Config       model.StrategyConfig

	Records []Record
	Final   State

	ScheduledDates int
	SkippedDates   int
	Sales          int
	// RecoveryLength is set when the sizing policy computed one in its pre-pass.
	RecoveryLength int
}

// Last returns the final record, or false when nothing was processed.
func (r *Result) Last() (Record, bool) {
	if len(r.Records) == 0 {
		return Record{}, false
	}
	return r.Records[len(r.Records)-1], true
}
