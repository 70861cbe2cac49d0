package strategy

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"dca-backtest/internal/model"
)

const (
	SizingFixed         = "fixed"
	SizingPriceRelative = "price_relative"
	SizingHighWaterMark = "high_water_mark"
	SizingBudgeted      = "budgeted"
)

// Fixed invests Amount on every processed date.
type Fixed struct {
	Amount float64
}

func (s *Fixed) Name() string { return SizingFixed }
func (s *Fixed) Prepare(prices []float64) error { return nil }
func (s *Fixed) Next(ctx Context) float64 { return nonNegative(s.Amount) }
func (s *Fixed) Reset() {}

// PriceRelative shrinks a running amount after a rise and grows it after a
// fall, scaled by sensitivity K:
//
//	change > 0:  amount /= 1 + K*change
//	change <= 0: amount *= 1 - K*change
//
// The running amount persists between steps until Reset.
type PriceRelative struct {
	Base float64
	K    float64

	amount float64
}

func NewPriceRelative(base, k float64) *PriceRelative {
	return &PriceRelative{Base: base, K: k, amount: base}
}

func (s *PriceRelative) Name() string { return SizingPriceRelative }
func (s *PriceRelative) Prepare(prices []float64) error { return nil }
func (s *PriceRelative) Reset() { s.amount = s.Base }

// Amount is the current running amount.
func (s *PriceRelative) Amount() float64 { return s.amount }

func (s *PriceRelative) Next(ctx Context) float64 {
	change := PriceChange(ctx.Price, ctx.LastPrice)
	if change > 0 {
		s.amount = model.SafeRatio(s.amount, 1+s.K*change)
	} else {
		s.amount *= 1 - s.K*change
	}
	s.amount = nonNegative(s.amount)
	return s.amount
}

// HighWaterMark resets the running amount to Base whenever the price sets a
// new high and otherwise behaves like PriceRelative.
type HighWaterMark struct {
	*PriceRelative

	previousHigh float64
}

func NewHighWaterMark(base, k float64) *HighWaterMark {
	return &HighWaterMark{PriceRelative: NewPriceRelative(base, k)}
}

func (s *HighWaterMark) Name() string { return SizingHighWaterMark }

// PreviousHigh is the highest price seen so far.
func (s *HighWaterMark) PreviousHigh() float64 { return s.previousHigh }

func (s *HighWaterMark) Next(ctx Context) float64 {
	if ctx.Price > s.previousHigh {
		s.previousHigh = ctx.Price
		s.PriceRelative.Reset()
		return nonNegative(s.amount)
	}
	return s.PriceRelative.Next(ctx)
}

// Budgeted spreads Budget over the longest drawdown the series shows:
// Base = Budget / MaxRecoveryLength * Scale. With K > 0 the base then follows
// the price-relative rule.
type Budgeted struct {
	*PriceRelative

	Budget float64
	Scale  float64

	recoveryLength int
}

func NewBudgeted(budget, scale, k float64) *Budgeted {
	return &Budgeted{PriceRelative: NewPriceRelative(0, k), Budget: budget, Scale: scale}
}

func (s *Budgeted) Name() string { return SizingBudgeted }

func (s *Budgeted) Prepare(prices []float64) error {
	s.recoveryLength = MaxRecoveryLength(prices)
	s.PriceRelative.Base = nonNegative(model.SafeRatio(s.Budget, float64(s.recoveryLength)) * s.Scale)
	s.PriceRelative.Reset()
	return nil
}

// RecoveryLength is the value computed by Prepare.
func (s *Budgeted) RecoveryLength() int { return s.recoveryLength }

// PriceChange is (price-last)/last, or 0 without a usable last price.
func PriceChange(price, last float64) float64 {
	if last <= 0 {
		return 0
	}
	return model.SafeRatio(price-last, last)
}

func nonNegative(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if math.IsInf(x, 1) {
		return math.MaxFloat64
	}
	return x
}

var sizingDefaults = map[string]map[string]float64{
	SizingFixed:         {},
	SizingPriceRelative: {"k": 5},
	SizingHighWaterMark: {"k": 5},
	SizingBudgeted:      {"k": 0, "scale": 1},
}

// SizingNames lists the supported variants.
func SizingNames() []string {
	names := make([]string, 0, len(sizingDefaults))
	for n := range sizingDefaults {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SizingDefaults returns the default parameters of a variant.
func SizingDefaults(name string) map[string]float64 {
	out := map[string]float64{}
	for k, v := range sizingDefaults[name] {
		out[k] = v
	}
	return out
}

// NewSizing builds a fresh sizing policy for one run.
func NewSizing(spec model.SizingSpec, baseAmount, totalBudget float64) (Sizing, error) {
	name := strings.ToLower(strings.TrimSpace(spec.Name))
	defaults, ok := sizingDefaults[name]
	if !ok {
		return nil, fmt.Errorf("unsupported sizing %q", spec.Name)
	}
	param := func(key string) float64 {
		if v, ok := spec.Params[key]; ok {
			return v
		}
		return defaults[key]
	}
	k := param("k")
	if k < 0 {
		return nil, fmt.Errorf("sizing %s: k must be >= 0", name)
	}

	switch name {
	case SizingFixed:
		return &Fixed{Amount: baseAmount}, nil
	case SizingPriceRelative:
		return NewPriceRelative(baseAmount, k), nil
	case SizingHighWaterMark:
		return NewHighWaterMark(baseAmount, k), nil
	default:
		scale := param("scale")
		if scale < 0 {
			return nil, fmt.Errorf("sizing %s: scale must be >= 0", name)
		}
		return NewBudgeted(totalBudget, scale, k), nil
	}
}
