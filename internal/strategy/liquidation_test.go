package strategy

import (
	"testing"
	"time"

	"dca-backtest/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func holding(date time.Time) Context {
	return Context{Date: date, Price: 1, Position: model.PositionLedger{Units: 100, CostBasis: 90}}
}

var jan15 = time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC)

func TestLadder_HighestTierOnly(t *testing.T) {
	l, err := NewLiquidation(model.LiquidationSpec{Preset: Ladder10_5_4})
	require.NoError(t, err)

	sale := l.Decide(holding(jan15), 12)
	require.True(t, sale.Triggered())
	assert.Equal(t, 0, sale.Tier)
	assert.Equal(t, 1.0, sale.Fraction)
	assert.Equal(t, 0.0, sale.CostFactor)
	assert.False(t, sale.InflateByGain)

	sale = l.Decide(holding(jan15), 6)
	assert.Equal(t, 1, sale.Tier)
	assert.Equal(t, 0.5, sale.Fraction)
	assert.Equal(t, 0.5, sale.CostFactor)

	sale = l.Decide(holding(jan15), 4.5)
	assert.Equal(t, 2, sale.Tier)
	assert.Equal(t, 0.25, sale.Fraction)
	assert.Equal(t, 0.75, sale.CostFactor)
	assert.True(t, sale.InflateByGain)

	sale = l.Decide(holding(jan15), 4)
	assert.False(t, sale.Triggered())
	assert.Equal(t, -1, sale.Tier)
	assert.False(t, Sale{}.Triggered(), "zero value holds")
}

func TestLadder_StrictBoundary(t *testing.T) {
	l, err := NewLiquidation(model.LiquidationSpec{Preset: Ladder10_5_4})
	require.NoError(t, err)

	// Exactly 10% is not above the top tier, so the 5% tier fires.
	sale := l.Decide(holding(jan15), 10.0)
	assert.Equal(t, 1, sale.Tier)
	assert.Equal(t, 0.5, sale.Fraction)

	sale = l.Decide(holding(jan15), 10.0000001)
	assert.Equal(t, 0, sale.Tier)
}

func TestLadder_UnsortedCustomTiers(t *testing.T) {
	l, err := NewLiquidation(model.LiquidationSpec{Tiers: []model.TierSpec{
		{Threshold: 4, SellFraction: 0.25, CostFactor: 0.75},
		{Threshold: 10, SellFraction: 1},
	}})
	require.NoError(t, err)
	assert.Equal(t, "custom", l.Name())

	sale := l.Decide(holding(jan15), 20)
	assert.Equal(t, 1.0, sale.Fraction)
	assert.Equal(t, 10.0, l.Tiers()[0].Threshold)
}

func TestLadder_OncePerMonth(t *testing.T) {
	l, err := NewLiquidation(model.LiquidationSpec{Preset: LadderQuarter4, OncePerMonth: true})
	require.NoError(t, err)

	sale := l.Decide(holding(jan15), 5)
	require.True(t, sale.Triggered())
	l.Record(jan15)

	assert.False(t, l.Decide(holding(jan15.AddDate(0, 0, 10)), 5).Triggered())
	assert.True(t, l.Decide(holding(jan15.AddDate(0, 1, 0)), 5).Triggered())
	assert.True(t, l.Decide(holding(jan15.AddDate(1, 0, 0)), 5).Triggered(), "same month next year is a different key")
}

func TestLadder_NoUnitsNoSale(t *testing.T) {
	l, err := NewLiquidation(model.LiquidationSpec{Preset: LadderTakeAll10})
	require.NoError(t, err)
	assert.False(t, l.Decide(Context{Date: jan15}, 50).Triggered())
}

func TestNewLiquidation(t *testing.T) {
	l, err := NewLiquidation(model.LiquidationSpec{})
	require.NoError(t, err)
	assert.Equal(t, LadderNone, l.Name())
	assert.Empty(t, l.Tiers())

	l, err = NewLiquidation(model.LiquidationSpec{Preset: "quarter_4", KeepSizing: true})
	require.NoError(t, err)
	assert.False(t, l.Decide(holding(jan15), 5).ResetSizing)

	_, err = NewLiquidation(model.LiquidationSpec{Preset: "ladder_99"})
	require.Error(t, err)
}
