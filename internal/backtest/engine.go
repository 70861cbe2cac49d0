package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dca-backtest/internal/calendar"
	"dca-backtest/internal/model"
	"dca-backtest/internal/strategy"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Engine struct {
	log *zap.SugaredLogger
}

// New returns an engine logging to log; nil discards logs.
func New(log *zap.SugaredLogger) *Engine {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Engine{log: log}
}

// run bundles the per-run policies with the state they mutate.
type run struct {
	cfg    model.StrategyConfig
	sizing strategy.Sizing
	ladder strategy.Liquidation
	state  State
	sales  int
}

// Run replays cfg over series, one step per schedule date that has a price.
func (e *Engine) Run(series *model.PriceSeries, cfg model.StrategyConfig) (*Result, error) {
	if series == nil || series.Len() == 0 {
		return nil, model.NewDataUnavailable(cfg.InstrumentID, errors.New("no series loaded"))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("strategy %q: %w", cfg.Name, err)
	}
	freq, err := calendar.ParseFrequency(cfg.Frequency)
	if err != nil {
		return nil, fmt.Errorf("strategy %q: %w", cfg.Name, err)
	}
	sizing, err := strategy.NewSizing(cfg.Sizing, cfg.BaseAmount, cfg.TotalBudget)
	if err != nil {
		return nil, fmt.Errorf("strategy %q: %w", cfg.Name, err)
	}
	ladder, err := strategy.NewLiquidation(cfg.Liquidation)
	if err != nil {
		return nil, fmt.Errorf("strategy %q: %w", cfg.Name, err)
	}

	dates := calendar.Dates(cfg.Start, cfg.End, freq)

	// The pre-pass needs every price the run will step over, not just the prefix.
	scheduled := make([]float64, 0, len(dates))
	for _, d := range dates {
		if p, ok := series.Lookup(d); ok {
			scheduled = append(scheduled, p)
		}
	}
	if err := sizing.Prepare(scheduled); err != nil {
		return nil, fmt.Errorf("strategy %q: prepare %s: %w", cfg.Name, sizing.Name(), err)
	}
	res := &Result{
		Name:           cfg.Name,
		InstrumentID:   series.InstrumentID(),
		Config:         cfg,
		Records:        make([]Record, 0, len(scheduled)),
		ScheduledDates: len(dates),
		SkippedDates:   len(dates) - len(scheduled),
	}
	if b, ok := sizing.(*strategy.Budgeted); ok {
		res.RecoveryLength = b.RecoveryLength()
		if res.RecoveryLength == 0 {
			e.log.Warnw("no drawdown in schedule, budgeted amount is zero", "strategy", cfg.Name)
		}
	}

	r := &run{
		cfg:    cfg,
		sizing: sizing,
		ladder: ladder,
		state:  newState(cfg),
	}
	for _, d := range dates {
		price, ok := series.Lookup(d)
		if !ok {
			continue
		}
		res.Records = append(res.Records, e.step(r, len(res.Records), d, price))
	}

	res.Final = r.state
	res.Sales = r.sales
	if last, ok := res.Last(); ok {
		e.log.Infow("run complete",
			"strategy", cfg.Name,
			"instrument", res.InstrumentID,
			"steps", len(res.Records),
			"skipped", res.SkippedDates,
			"sales", res.Sales,
			"total_value", last.TotalValue,
			"return_pct", last.ReturnPct,
		)
	} else {
		e.log.Warnw("no schedule date had a price", "strategy", cfg.Name, "instrument", res.InstrumentID)
	}
	return res, nil
}

func newState(cfg model.StrategyConfig) State {
	opening := 0.0
	if cfg.Funding == model.FundingBudget {
		opening = cfg.TotalBudget
	}
	return State{
		Cash:               model.NewCashAccount(opening, cfg.Start),
		Baseline:           model.NewCashAccount(opening, cfg.Start),
		LastInvestmentDate: model.Day(cfg.Start),
	}
}

// step applies accrual, sizing and liquidation for one processed date.
func (e *Engine) step(r *run, idx int, date time.Time, price float64) Record {
	st := &r.state
	cfg := r.cfg

	st.Cash.Accrue(date, cfg.DailyCashRate)
	st.Baseline.Accrue(date, cfg.DailyCashRate)
	if st.FirstPrice == 0 {
		st.FirstPrice = price
	}

	sctx := strategy.Context{
		Index:     idx,
		Date:      date,
		Price:     price,
		LastPrice: st.LastPrice,
		Position:  st.Position,
	}
	amount := r.sizing.Next(sctx)
	if !st.Position.Buy(amount, price) {
		amount = 0
	}
	if amount > 0 {
		switch cfg.Funding {
		case model.FundingContribution:
			st.Contributed += amount
			st.Baseline.Credit(amount)
		default:
			st.Cash.Debit(amount)
		}
	}

	gain := st.Position.GainPct(price)
	sctx.Position = st.Position
	sale := r.ladder.Decide(sctx, gain)
	proceeds := 0.0
	if sale.Triggered() {
		proceeds = st.Position.Sell(sale.Fraction, price)
		st.Cash.Credit(proceeds)
		if sale.Fraction < 1 {
			st.Position.Rescale(sale.CostFactor)
			if sale.InflateByGain {
				st.Position.Rescale(1 + gain/100)
			}
		}
		r.ladder.Record(date)
		if sale.ResetSizing {
			r.sizing.Reset()
		}
		r.sales++
		e.log.Debugw("liquidation",
			"strategy", cfg.Name,
			"date", date.Format(time.DateOnly),
			"gain_pct", gain,
			"tier", sale.Tier,
			"fraction", sale.Fraction,
			"proceeds", proceeds,
		)
	}

	st.LastInvestmentDate = date
	st.LastPrice = price

	// The explicit conversion keeps the product from being fused into the sum.
	total := float64(st.Position.Units*price) + st.Cash.Balance
	lump := 0.0
	if cfg.Funding == model.FundingBudget {
		lump = cfg.TotalBudget * model.SafeRatio(price, st.FirstPrice)
	}
	return Record{
		Index:             idx,
		Date:              date,
		Price:             price,
		Action:            model.ActionFromTrade(amount, sale.Fraction),
		Invested:          amount,
		SoldFraction:      sale.Fraction,
		Proceeds:          proceeds,
		Units:             st.Position.Units,
		Cash:              st.Cash.Balance,
		CostBasis:         st.Position.CostBasis,
		TotalValue:        total,
		UnrealizedGainPct: st.Position.GainPct(price),
		Contributed:       st.Contributed,
		ReturnPct:         model.SafeRatio(total-cfg.Capital(st.Contributed), cfg.Capital(st.Contributed)) * 100,
		CashBaseline:      st.Baseline.Balance,
		LumpSumValue:      lump,
	}
}

// Compare runs every config over the same series concurrently. Each run owns
// its state; only the read-only series is shared. Results keep input order.
func (e *Engine) Compare(ctx context.Context, series *model.PriceSeries, cfgs []model.StrategyConfig) ([]*Result, error) {
	results := make([]*Result, len(cfgs))
	g, ctx := errgroup.WithContext(ctx)
	for i, cfg := range cfgs {
		i, cfg := i, cfg
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := e.Run(series, cfg)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
