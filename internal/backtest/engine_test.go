package backtest

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"dca-backtest/internal/model"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func series(t *testing.T, start string, prices ...float64) *model.PriceSeries {
	t.Helper()
	d := day(start)
	points := make([]model.PricePoint, len(prices))
	for i, p := range prices {
		points[i] = model.PricePoint{Date: d.AddDate(0, 0, i), NAV: p}
	}
	s, err := model.NewPriceSeries("TEST", points)
	require.NoError(t, err)
	return s
}

func baseConfig(start, end string) model.StrategyConfig {
	return model.StrategyConfig{
		Name:         "test",
		InstrumentID: "TEST",
		Start:        day(start),
		End:          day(end),
		Frequency:    "D",
		Funding:      model.FundingContribution,
		BaseAmount:   100,
		Sizing:       model.SizingSpec{Name: "fixed"},
	}
}

func TestRun_FixedScenario(t *testing.T) {
	s := series(t, "2020-01-01", 1.0, 1.1, 1.05, 1.2)
	res, err := New(nil).Run(s, baseConfig("2020-01-01", "2020-01-04"))
	require.NoError(t, err)
	require.Len(t, res.Records, 4)

	r0 := res.Records[0]
	assert.InDelta(t, 100.0, r0.Units, 1e-9)
	assert.InDelta(t, 100.0, r0.CostBasis, 1e-9)
	assert.Equal(t, model.ActionBuy, r0.Action)

	r1 := res.Records[1]
	assert.InDelta(t, 190.909, r1.Units, 1e-3)
	assert.InDelta(t, 200.0, r1.CostBasis, 1e-9)

	r3 := res.Records[3]
	assert.Equal(t, r3.Units*1.2, r3.TotalValue)
	assert.InDelta(t, 400.0, r3.Contributed, 1e-9)
	assert.InDelta(t, (r3.TotalValue-400)/400*100, r3.ReturnPct, 1e-9)
	assert.InDelta(t, 400.0, r3.CashBaseline, 1e-9, "contributions without interest")
	assert.Zero(t, r3.LumpSumValue)
}

func TestRun_PriceRelativeScenario(t *testing.T) {
	s := series(t, "2020-01-01", 1.0, 1.1, 1.05, 1.2)
	cfg := baseConfig("2020-01-01", "2020-01-04")
	cfg.Sizing = model.SizingSpec{Name: "price_relative", Params: map[string]float64{"k": 5}}

	res, err := New(nil).Run(s, cfg)
	require.NoError(t, err)
	require.Len(t, res.Records, 4)

	assert.InDelta(t, 100.0, res.Records[0].Invested, 1e-9)
	assert.InDelta(t, 66.67, res.Records[1].Invested, 0.01)
	assert.InDelta(t, 81.8, res.Records[2].Invested, 0.05)
}

func TestRun_SkipsMissingDates(t *testing.T) {
	s, err := model.NewPriceSeries("TEST", []model.PricePoint{
		{Date: day("2020-01-01"), NAV: 1},
		{Date: day("2020-01-03"), NAV: 1},
	})
	require.NoError(t, err)

	cfg := baseConfig("2020-01-01", "2020-01-03")
	cfg.Funding = model.FundingBudget
	cfg.TotalBudget = 1000
	cfg.DailyCashRate = 0.01

	res, err := New(nil).Run(s, cfg)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, 3, res.ScheduledDates)
	assert.Equal(t, 1, res.SkippedDates)

	assert.Equal(t, day("2020-01-03"), res.Records[1].Date)
	assert.Equal(t, 1, res.Records[1].Index)
	assert.InDelta(t, 900*1.01*1.01-100, res.Records[1].Cash, 1e-9)
	assert.InDelta(t, 1000*1.01*1.01, res.Records[1].CashBaseline, 1e-9)
	assert.Equal(t, day("2020-01-03"), res.Final.LastInvestmentDate)
}

func TestRun_SkippedDateLeavesStateUntouched(t *testing.T) {
	full := series(t, "2020-01-01", 1.0, 1.2)
	cfg := baseConfig("2020-01-01", "2020-01-02")
	cfg.Funding = model.FundingBudget
	cfg.TotalBudget = 1000
	cfg.DailyCashRate = 0.001

	before, err := New(nil).Run(full, cfg)
	require.NoError(t, err)

	// Extending the schedule over dates without prices must not change anything.
	cfg.End = day("2020-01-10")
	after, err := New(nil).Run(full, cfg)
	require.NoError(t, err)

	require.Equal(t, "", cmp.Diff(before.Records, after.Records))
	require.Equal(t, "", cmp.Diff(before.Final, after.Final))
}

func TestRun_QuarterLadder(t *testing.T) {
	s := series(t, "2020-01-01", 1.0, 1.1)
	cfg := baseConfig("2020-01-01", "2020-01-02")
	cfg.Liquidation = model.LiquidationSpec{Preset: "quarter_4"}

	res, err := New(nil).Run(s, cfg)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)

	r := res.Records[1]
	unitsBefore := 100 + 100/1.1
	gain := (unitsBefore*1.1 - 200) / 200 * 100
	assert.InDelta(t, 5.0, gain, 1e-9)

	assert.Equal(t, model.ActionBuySell, r.Action)
	assert.Equal(t, 0.25, r.SoldFraction)
	assert.InDelta(t, unitsBefore*0.75, r.Units, 1e-9)
	assert.InDelta(t, unitsBefore*0.25*1.1, r.Proceeds, 1e-9)
	assert.InDelta(t, r.Proceeds, r.Cash, 1e-9)
	assert.InDelta(t, 200*0.75*1.05, r.CostBasis, 1e-9)
	assert.Equal(t, 1, res.Sales)
}

func TestRun_TakeAllResetsSizing(t *testing.T) {
	s := series(t, "2020-01-01", 1.0, 1.25, 1.0)
	cfg := baseConfig("2020-01-01", "2020-01-03")
	cfg.Sizing = model.SizingSpec{Name: "price_relative", Params: map[string]float64{"k": 5}}
	cfg.Liquidation = model.LiquidationSpec{Preset: "take_all_10"}

	res, err := New(nil).Run(s, cfg)
	require.NoError(t, err)

	r1 := res.Records[1]
	assert.Equal(t, 1.0, r1.SoldFraction)
	assert.Zero(t, r1.Units)
	assert.Zero(t, r1.CostBasis)
	assert.Zero(t, r1.UnrealizedGainPct)
	assert.InDelta(t, r1.Proceeds, r1.Cash, 1e-9)

	// After the reset the fall from 1.25 to 1.0 grows the base amount again.
	assert.InDelta(t, 100*(1+5*0.2), res.Records[2].Invested, 1e-9)
}

func TestRun_RecordAccounting(t *testing.T) {
	prices := make([]float64, 400)
	for i := range prices {
		prices[i] = 1 + 0.3*math.Sin(float64(i)/15) + float64(i)/1000
	}
	s := series(t, "2019-01-01", prices...)

	sizings := []model.SizingSpec{
		{Name: "fixed"},
		{Name: "price_relative", Params: map[string]float64{"k": 10}},
		{Name: "high_water_mark"},
		{Name: "budgeted", Params: map[string]float64{"k": 10, "scale": 0.5}},
	}
	ladders := []string{"none", "take_all_10", "ladder_10_5", "ladder_10_5_4", "quarter_4"}

	for _, sz := range sizings {
		for _, l := range ladders {
			for _, funding := range []model.Funding{model.FundingBudget, model.FundingContribution} {
				cfg := baseConfig("2019-01-01", "2020-03-01")
				cfg.Frequency = "B"
				cfg.Funding = funding
				cfg.TotalBudget = 10000
				cfg.DailyCashRate = 0.0001337
				cfg.Sizing = sz
				cfg.Liquidation = model.LiquidationSpec{Preset: l, OncePerMonth: l == "quarter_4"}

				res, err := New(nil).Run(s, cfg)
				require.NoError(t, err)
				require.NotEmpty(t, res.Records)
				for _, r := range res.Records {
					require.GreaterOrEqual(t, r.Units, 0.0)
					require.GreaterOrEqual(t, r.CostBasis, 0.0)
					if r.Units > 0 {
						require.Greater(t, r.CostBasis, 0.0, "held units keep a cost basis")
					}
					require.GreaterOrEqual(t, r.Invested, 0.0)
					require.Equal(t, float64(r.Units*r.Price)+r.Cash, r.TotalValue)
				}
			}
		}
	}
}

func TestRun_BudgetedRecordsRecoveryLength(t *testing.T) {
	s := series(t, "2020-01-01", 1, 2, 1, 1, 1, 3, 2)
	cfg := baseConfig("2020-01-01", "2020-01-07")
	cfg.Funding = model.FundingBudget
	cfg.TotalBudget = 900
	cfg.Sizing = model.SizingSpec{Name: "budgeted", Params: map[string]float64{"scale": 1}}

	res, err := New(nil).Run(s, cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, res.RecoveryLength)
	assert.InDelta(t, 300.0, res.Records[0].Invested, 1e-9)
	assert.InDelta(t, 900.0*2, res.Records[1].LumpSumValue, 1e-9)
}

func TestRun_Errors(t *testing.T) {
	_, err := New(nil).Run(nil, baseConfig("2020-01-01", "2020-01-02"))
	require.True(t, errors.Is(err, model.ErrDataUnavailable))

	s := series(t, "2020-01-01", 1)
	cfg := baseConfig("2020-01-01", "2020-01-02")
	cfg.Frequency = "fortnightly"
	_, err = New(nil).Run(s, cfg)
	require.Error(t, err)

	cfg = baseConfig("2020-01-01", "2020-01-02")
	cfg.Sizing.Name = "unknown"
	_, err = New(nil).Run(s, cfg)
	require.Error(t, err)
}

func TestRun_RejectsPartialTierThatZeroesCost(t *testing.T) {
	s := series(t, "2020-01-01", 1.0, 1.2, 1.5)
	cfg := baseConfig("2020-01-01", "2020-01-03")
	cfg.Liquidation = model.LiquidationSpec{Tiers: []model.TierSpec{{Threshold: 5, SellFraction: 0.5, CostFactor: 0}}}

	_, err := New(nil).Run(s, cfg)
	require.ErrorContains(t, err, "cost_factor")

	cfg.Liquidation.Tiers[0].CostFactor = 0.5
	res, err := New(nil).Run(s, cfg)
	require.NoError(t, err)
	for _, r := range res.Records {
		if r.Units > 0 {
			assert.Greater(t, r.CostBasis, 0.0)
		}
	}
	assert.Equal(t, model.ActionBuySell, res.Records[1].Action)
}

func TestRun_BudgetCashMatchesInvested(t *testing.T) {
	s := series(t, "2020-01-01", 1.0, 0.5, 2.0, 1.0)
	cfg := baseConfig("2020-01-01", "2020-01-04")
	cfg.Funding = model.FundingBudget
	cfg.TotalBudget = 1000

	res, err := New(nil).Run(s, cfg)
	require.NoError(t, err)
	spent, units := 0.0, 0.0
	for _, r := range res.Records {
		spent += r.Invested
		units += r.Invested / r.Price
		assert.InDelta(t, 1000-spent, r.Cash, 1e-9)
		assert.InDelta(t, units, r.Units, 1e-9)
	}
}

func TestCompare_IndependentRuns(t *testing.T) {
	s := series(t, "2020-01-01", 1.0, 1.1, 1.05, 1.2, 0.9, 1.3)

	a := baseConfig("2020-01-01", "2020-01-06")
	a.Name = "default"
	b := baseConfig("2020-01-01", "2020-01-06")
	b.Name = "custom"
	b.Sizing = model.SizingSpec{Name: "high_water_mark", Params: map[string]float64{"k": 10}}
	b.Liquidation = model.LiquidationSpec{Preset: "ladder_10_5_4"}

	e := New(nil)
	results, err := e.Compare(context.Background(), s, []model.StrategyConfig{a, b, a})
	require.NoError(t, err)
	require.Len(t, results, 3)

	soloA, err := e.Run(s, a)
	require.NoError(t, err)
	soloB, err := e.Run(s, b)
	require.NoError(t, err)

	require.Equal(t, "default", results[0].Name)
	require.Equal(t, "custom", results[1].Name)
	require.Equal(t, "", cmp.Diff(soloA.Records, results[0].Records))
	require.Equal(t, "", cmp.Diff(soloB.Records, results[1].Records))
	require.Equal(t, "", cmp.Diff(results[0].Records, results[2].Records))
}

func TestCompare_PropagatesError(t *testing.T) {
	s := series(t, "2020-01-01", 1.0)
	bad := baseConfig("2020-01-01", "2020-01-01")
	bad.Sizing.Name = "nope"
	_, err := New(nil).Compare(context.Background(), s, []model.StrategyConfig{baseConfig("2020-01-01", "2020-01-01"), bad})
	require.Error(t, err)
}
