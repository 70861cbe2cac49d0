package model

import (
	"errors"
	"fmt"
	"time"
)

// Funding decides where the money for each buy comes from.
type Funding string

const (
	// FundingBudget starts with TotalBudget in cash and debits every buy.
	FundingBudget Funding = "budget"
	// FundingContribution starts with no cash; buys are paid from outside and
	// tracked in Contributed.
	FundingContribution Funding = "contribution"
)

// SizingSpec selects a sizing variant by name with its numeric parameters.
type SizingSpec struct {
	Name   string             `json:"name" yaml:"name"`
	Params map[string]float64 `json:"params,omitempty" yaml:"params"`
}

// TierSpec is one rung of a liquidation ladder.
type TierSpec struct {
	Threshold     float64 `json:"threshold" yaml:"threshold"`
	SellFraction  float64 `json:"sell_fraction" yaml:"sell_fraction"`
	CostFactor    float64 `json:"cost_factor" yaml:"cost_factor"`
	InflateByGain bool    `json:"inflate_by_gain,omitempty" yaml:"inflate_by_gain"`
}

// LiquidationSpec selects a named ladder, or custom tiers when Tiers is set.
type LiquidationSpec struct {
	Preset       string     `json:"preset,omitempty" yaml:"preset"`
	Tiers        []TierSpec `json:"tiers,omitempty" yaml:"tiers"`
	OncePerMonth bool       `json:"once_per_month,omitempty" yaml:"once_per_month"`
	// KeepSizing disables the sizing reset that normally follows a sale.
	KeepSizing bool `json:"keep_sizing,omitempty" yaml:"keep_sizing"`
}

// StrategyConfig is immutable for the duration of one run.
type StrategyConfig struct {
	Name          string
	InstrumentID  string
	Start         time.Time
	End           time.Time
	Frequency     string
	Funding       Funding
	TotalBudget   float64
	BaseAmount    float64
	DailyCashRate float64
	Sizing        SizingSpec
	Liquidation   LiquidationSpec
}

func (c StrategyConfig) Validate() error {
	if c.Start.IsZero() || c.End.IsZero() {
		return errors.New("start and end are required")
	}
	if c.End.Before(c.Start) {
		return fmt.Errorf("end %s is before start %s", c.End.Format(time.DateOnly), c.Start.Format(time.DateOnly))
	}
	switch c.Funding {
	case FundingBudget, FundingContribution:
	default:
		return fmt.Errorf("unsupported funding %q", c.Funding)
	}
	if c.TotalBudget < 0 {
		return errors.New("total_budget must be >= 0")
	}
	if c.BaseAmount < 0 {
		return errors.New("base_amount must be >= 0")
	}
	if c.DailyCashRate < 0 {
		return errors.New("daily_cash_rate must be >= 0")
	}
	if c.Sizing.Name == "" {
		return errors.New("sizing.name is required")
	}
	for i, t := range c.Liquidation.Tiers {
		if t.SellFraction <= 0 || t.SellFraction > 1 {
			return fmt.Errorf("liquidation tier %d: sell_fraction must be in (0, 1]", i)
		}
		if t.CostFactor < 0 {
			return fmt.Errorf("liquidation tier %d: cost_factor must be >= 0", i)
		}
		// Units survive a partial sale, so they must keep some cost.
		if t.SellFraction < 1 && t.CostFactor == 0 {
			return fmt.Errorf("liquidation tier %d: cost_factor must be > 0 when sell_fraction < 1", i)
		}
	}
	return nil
}

// Capital is the amount ReturnPct is measured against.
func (c StrategyConfig) Capital(contributed float64) float64 {
	if c.Funding == FundingContribution {
		return contributed
	}
	return c.TotalBudget
}
