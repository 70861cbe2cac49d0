package analysis

import (
	"math"
	"time"

	"dca-backtest/internal/backtest"
	"dca-backtest/internal/model"
)

// Summary condenses one run's ledger into the figures compared across strategies.
type Summary struct {
	Name         string    `json:"name"`
	InstrumentID string    `json:"instrument_id"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`

	Records int `json:"records"`
	Buys    int `json:"buys"`
	Sales   int `json:"sales"`

	Contributed float64 `json:"contributed"`
	Capital     float64 `json:"capital"`
	FinalValue  float64 `json:"final_value"`
	ReturnPct   float64 `json:"return_pct"`

	AnnualizedReturnPct float64 `json:"annualized_return_pct"`
	MaxDrawdownPct      float64 `json:"max_drawdown_pct"`
	Volatility          float64 `json:"volatility"`

	CashBaseline float64 `json:"cash_baseline"`
	LumpSumValue float64 `json:"lump_sum_value"`
	// Excess figures compare FinalValue against each benchmark, in currency.
	ExcessOverCash    float64 `json:"excess_over_cash"`
	ExcessOverLumpSum float64 `json:"excess_over_lump_sum"`

	RecoveryLength int `json:"recovery_length,omitempty"`
}

func Summarize(res *backtest.Result) Summary {
	s := Summary{
		Name:           res.Name,
		InstrumentID:   res.InstrumentID,
		Records:        len(res.Records),
		Sales:          res.Sales,
		RecoveryLength: res.RecoveryLength,
	}
	last, ok := res.Last()
	if !ok {
		return s
	}
	s.Start = res.Records[0].Date
	s.End = last.Date

	values := make([]float64, 0, len(res.Records))
	for _, r := range res.Records {
		if r.Invested > 0 {
			s.Buys++
		}
		values = append(values, r.TotalValue)
	}

	s.Contributed = last.Contributed
	s.Capital = res.Config.Capital(last.Contributed)
	s.FinalValue = last.TotalValue
	s.ReturnPct = last.ReturnPct
	s.CashBaseline = last.CashBaseline
	s.LumpSumValue = last.LumpSumValue
	s.ExcessOverCash = s.FinalValue - s.CashBaseline
	s.ExcessOverLumpSum = s.FinalValue - s.LumpSumValue
	s.MaxDrawdownPct = MaxDrawdownPct(values)
	s.Volatility = Volatility(values)
	s.AnnualizedReturnPct = Annualize(s.ReturnPct, model.ElapsedDays(s.Start, s.End))
	return s
}

// Annualize converts a total return over days calendar days into a yearly
// rate. Periods shorter than a day, a total loss, or a rate too large to
// represent yield the input unchanged.
func Annualize(returnPct float64, days int) float64 {
	growth := 1 + returnPct/100
	if days <= 0 || growth <= 0 {
		return returnPct
	}
	annual := (math.Pow(growth, 365/float64(days)) - 1) * 100
	if math.IsInf(annual, 0) || math.IsNaN(annual) {
		return returnPct
	}
	return annual
}

// SummarizeAll keeps the order of results.
func SummarizeAll(results []*backtest.Result) []Summary {
	out := make([]Summary, 0, len(results))
	for _, r := range results {
		out = append(out, Summarize(r))
	}
	return out
}
