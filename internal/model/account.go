package model

import (
	"math"
	"time"
)

// epsilon is the threshold below which a denominator is treated as zero.
const epsilon = 1e-12

// CashAccount holds idle cash that compounds at a fixed daily rate between
// trades.
type CashAccount struct {
	Balance     float64
	LastAccrual time.Time
}

// NewCashAccount opens an account with balance as of start.
func NewCashAccount(balance float64, start time.Time) CashAccount {
	return CashAccount{Balance: balance, LastAccrual: Day(start)}
}

// Accrue compounds the balance by (1+dailyRate)^days for the whole calendar
// days between LastAccrual and date, then moves LastAccrual to date.
// Dates at or before LastAccrual leave the balance untouched.
func (c *CashAccount) Accrue(date time.Time, dailyRate float64) {
	date = Day(date)
	days := ElapsedDays(c.LastAccrual, date)
	if days <= 0 {
		return
	}
	c.Balance *= GrowthFactor(dailyRate, days)
	c.LastAccrual = date
}

func (c *CashAccount) Debit(amount float64) { c.Balance -= amount }
func (c *CashAccount) Credit(amount float64) { c.Balance += amount }

// GrowthFactor is (1+dailyRate)^days.
func GrowthFactor(dailyRate float64, days int) float64 {
	if days <= 0 {
		return 1
	}
	return math.Pow(1+dailyRate, float64(days))
}

// ElapsedDays counts whole calendar days from -> to.
func ElapsedDays(from, to time.Time) int {
	return int(math.Round(Day(to).Sub(Day(from)).Hours() / 24))
}

// PositionLedger tracks fund units and the cost attributed to them.
// Units and CostBasis are never negative.
type PositionLedger struct {
	Units     float64
	CostBasis float64
}

// Buy spends amount at price and reports whether units were bought.
// Non-positive inputs are a no-op.
func (p *PositionLedger) Buy(amount, price float64) bool {
	if amount <= 0 || price <= 0 {
		return false
	}
	p.Units += amount / price
	p.CostBasis += amount
	return true
}

// Sell removes fraction of the units at price and returns the proceeds.
// The cost basis is left for the caller's policy to rescale, except that a
// full sale zeroes it.
func (p *PositionLedger) Sell(fraction, price float64) float64 {
	if fraction <= 0 || p.Units <= 0 {
		return 0
	}
	if fraction >= 1 {
		proceeds := p.Units * price
		p.Units = 0
		p.CostBasis = 0
		return proceeds
	}
	sold := p.Units * fraction
	p.Units -= sold
	return sold * price
}

// Rescale multiplies the cost basis by factor, clamped at zero.
func (p *PositionLedger) Rescale(factor float64) {
	p.CostBasis = math.Max(0, p.CostBasis*factor)
	if p.Units <= 0 {
		p.CostBasis = 0
	}
}

// MarketValue is units*price.
func (p PositionLedger) MarketValue(price float64) float64 {
	return p.Units * price
}

// GainPct is the unrealized gain in percent, or 0 when there is no cost basis.
func (p PositionLedger) GainPct(price float64) float64 {
	return SafeRatio(p.MarketValue(price)-p.CostBasis, p.CostBasis) * 100
}

// SafeRatio divides num by den, substituting 0 for a zero, near-zero or
// non-finite denominator.
func SafeRatio(num, den float64) float64 {
	if math.Abs(den) < epsilon || math.IsNaN(den) || math.IsInf(den, 0) {
		return 0
	}
	r := num / den
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}
