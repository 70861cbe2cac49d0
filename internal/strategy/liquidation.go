package strategy

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"dca-backtest/internal/model"
)

const (
	LadderNone      = "none"
	LadderTakeAll10 = "take_all_10"
	Ladder10_5      = "ladder_10_5"
	Ladder10_5_4    = "ladder_10_5_4"
	LadderQuarter4  = "quarter_4"
)

// Tier sells SellFraction of the units when the unrealized gain is strictly
// greater than Threshold percent, then multiplies the cost basis by
// CostFactor and, with InflateByGain, by (1 + gain/100).
type Tier struct {
	Threshold     float64
	SellFraction  float64
	CostFactor    float64
	InflateByGain bool
}

var presets = map[string][]Tier{
	LadderNone:      nil,
	LadderTakeAll10: {{Threshold: 10, SellFraction: 1, CostFactor: 0}},
	Ladder10_5: {
		{Threshold: 10, SellFraction: 1, CostFactor: 0},
		{Threshold: 5, SellFraction: 0.5, CostFactor: 0.5},
	},
	Ladder10_5_4: {
		{Threshold: 10, SellFraction: 1, CostFactor: 0},
		{Threshold: 5, SellFraction: 0.5, CostFactor: 0.5},
		{Threshold: 4, SellFraction: 0.25, CostFactor: 0.75, InflateByGain: true},
	},
	LadderQuarter4: {
		{Threshold: 4, SellFraction: 0.25, CostFactor: 0.75, InflateByGain: true},
	},
}

// LadderNames lists the named presets.
func LadderNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// PresetTiers returns a copy of a named preset's tiers.
func PresetTiers(name string) ([]Tier, bool) {
	tiers, ok := presets[name]
	if !ok {
		return nil, false
	}
	return append([]Tier(nil), tiers...), true
}

// Ladder evaluates its tiers from the highest threshold down; only the first
// matching tier fires on a step.
type Ladder struct {
	name         string
	tiers        []Tier
	oncePerMonth bool
	resetSizing  bool

	soldYear  int
	soldMonth time.Month
	hasSold   bool
}

func NewLadder(name string, tiers []Tier, oncePerMonth, resetSizing bool) *Ladder {
	sorted := append([]Tier(nil), tiers...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Threshold > sorted[j].Threshold
	})
	return &Ladder{
		name:         name,
		tiers:        sorted,
		oncePerMonth: oncePerMonth,
		resetSizing:  resetSizing,
	}
}

func (l *Ladder) Name() string { return l.name }

// Tiers returns the tiers in evaluation order.
func (l *Ladder) Tiers() []Tier { return append([]Tier(nil), l.tiers...) }

func (l *Ladder) Decide(ctx Context, gainPct float64) Sale {
	if ctx.Position.Units <= 0 {
		return Sale{Tier: -1}
	}
	if l.oncePerMonth && l.hasSold {
		y, m, _ := ctx.Date.Date()
		if y == l.soldYear && m == l.soldMonth {
			return Sale{Tier: -1}
		}
	}
	for i, t := range l.tiers {
		if gainPct > t.Threshold {
			return Sale{
				Tier:          i,
				Fraction:      t.SellFraction,
				CostFactor:    t.CostFactor,
				InflateByGain: t.InflateByGain,
				ResetSizing:   l.resetSizing,
			}
		}
	}
	return Sale{Tier: -1}
}

func (l *Ladder) Record(date time.Time) {
	l.soldYear, l.soldMonth, _ = date.Date()
	l.hasSold = true
}

// NewLiquidation builds the ladder described by spec. Custom tiers take
// precedence over the preset; an empty preset without tiers means none.
func NewLiquidation(spec model.LiquidationSpec) (*Ladder, error) {
	if len(spec.Tiers) > 0 {
		tiers := make([]Tier, len(spec.Tiers))
		for i, t := range spec.Tiers {
			tiers[i] = Tier{
				Threshold:     t.Threshold,
				SellFraction:  t.SellFraction,
				CostFactor:    t.CostFactor,
				InflateByGain: t.InflateByGain,
			}
		}
		name := spec.Preset
		if name == "" {
			name = "custom"
		}
		return NewLadder(name, tiers, spec.OncePerMonth, !spec.KeepSizing), nil
	}

	name := strings.ToLower(strings.TrimSpace(spec.Preset))
	if name == "" {
		name = LadderNone
	}
	tiers, ok := PresetTiers(name)
	if !ok {
		return nil, fmt.Errorf("unsupported liquidation preset %q", spec.Preset)
	}
	return NewLadder(name, tiers, spec.OncePerMonth, !spec.KeepSizing), nil
}
