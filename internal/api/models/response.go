package models

import (
	"time"

	"dca-backtest/internal/analysis"
	"dca-backtest/internal/model"
)

// BacktestResponse represents the response from a backtest run
type BacktestResponse struct {
	ID      string           `json:"id,omitempty"`
	Status  string           `json:"status"`
	Skipped int              `json:"skipped_dates"`
	Summary analysis.Summary `json:"summary"`
	Ledger  []LedgerRow      `json:"ledger,omitempty"`
}

// LedgerRow represents one processed date in the backtest ledger
type LedgerRow struct {
	Index             int       `json:"index"`
	Date              time.Time `json:"date"`
	Price             float64   `json:"price"`
	Action            string    `json:"action"` // "BUY", "HOLD", "SELL", "BUY_SELL"
	Invested          float64   `json:"invested"`
	SoldFraction      float64   `json:"sold_fraction"`
	Proceeds          float64   `json:"proceeds"`
	Units             float64   `json:"units"`
	Cash              float64   `json:"cash"`
	CostBasis         float64   `json:"cost_basis"`
	TotalValue        float64   `json:"total_value"`
	UnrealizedGainPct float64   `json:"unrealized_gain_pct"`
	Contributed       float64   `json:"contributed"`
	ReturnPct         float64   `json:"return_pct"`
	CashBaseline      float64   `json:"cash_baseline"`
	LumpSumValue      float64   `json:"lump_sum_value"`
}

// LedgerResponse is returned by the ledger lookup endpoint.
type LedgerResponse struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Count  int         `json:"count"`
	Ledger []LedgerRow `json:"ledger"`
}

// CompareBacktestResponse represents the response from a comparison
type CompareBacktestResponse struct {
	Instrument string             `json:"instrument"`
	Best       string             `json:"best"`
	Comparison []ComparisonResult `json:"comparison"`
}

// ComparisonResult contains results for one variation
type ComparisonResult struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Summary analysis.Summary `json:"summary"`
}

// RankResponse represents the response from ranking instruments
type RankResponse struct {
	By       string    `json:"by"`
	Rankings []Ranking `json:"rankings"`
	Skipped  []string  `json:"skipped,omitempty"`
}

// Ranking represents one ranked instrument
type Ranking struct {
	Rank           int       `json:"rank"`
	Instrument     string    `json:"instrument"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	Count          int       `json:"count"`
	MinNAV         float64   `json:"min_nav"`
	MaxNAV         float64   `json:"max_nav"`
	SpreadPct      float64   `json:"spread_pct"`
	TotalReturnPct float64   `json:"total_return_pct"`
	MaxDrawdownPct float64   `json:"max_drawdown_pct"`
	Volatility     float64   `json:"volatility"`
	RecoveryLength int       `json:"recovery_length"`
}

// SizingInfo describes a sizing policy
type SizingInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// LadderInfo describes a liquidation preset
type LadderInfo struct {
	Name  string           `json:"name"`
	Tiers []model.TierSpec `json:"tiers"`
}

// ParameterInfo describes a strategy parameter
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "float", "int", "string"
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
}

// InstrumentInfo represents information about an instrument
type InstrumentInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Currency string `json:"currency,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
