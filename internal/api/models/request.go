package models

import "dca-backtest/internal/config"

// BacktestRequest represents the request body for running a backtest.
// Run fields left empty inherit the server's configured defaults.
type BacktestRequest struct {
	Instrument string           `json:"instrument" binding:"required"`
	Run        config.RunConfig `json:"run"`
	Options    BacktestOptions  `json:"options,omitempty"`
}

// BacktestOptions contains optional backtest parameters
type BacktestOptions struct {
	IncludeLedger bool `json:"include_ledger,omitempty"` // default: false
	TradesOnly    bool `json:"trades_only,omitempty"`    // only rows with a buy or sale
}

// CompareBacktestRequest runs several variations against one instrument.
// Each variation is merged over Base.
type CompareBacktestRequest struct {
	Instrument string             `json:"instrument" binding:"required"`
	Base       config.RunConfig   `json:"base"`
	Variations []config.RunConfig `json:"variations" binding:"required,min=1"`
}

// RankRequest represents a request to rank instruments
type RankRequest struct {
	Instruments string `form:"instruments" binding:"required"` // comma-separated
	By          string `form:"by,omitempty"`                   // default: spread
	Limit       int    `form:"limit,omitempty"`                // default: 10
}
