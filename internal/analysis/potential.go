package analysis

import (
	"math"
	"time"

	"dca-backtest/internal/model"
	"dca-backtest/internal/strategy"

	"github.com/montanaflynn/stats"
)

// Potential is an instrument-level summary used for ranking. It does not
// depend on any strategy: raw NAV statistics plus the swing measures a
// dollar-cost averaging plan feeds on.
type Potential struct {
	InstrumentID string

	Start time.Time
	End   time.Time

	Count int

	MinNAV  float64
	MaxNAV  float64
	MeanNAV float64
	P05NAV  float64
	P95NAV  float64

	// SpreadPct is (P95 - P05) relative to the mean, in percent.
	SpreadPct float64

	TotalReturnPct float64
	MaxDrawdownPct float64
	// Volatility is the sample standard deviation of point-to-point returns, in percent.
	Volatility float64

	RecoveryLength int
}

func ComputePotential(series *model.PriceSeries) Potential {
	p := Potential{}
	if series == nil || series.Len() == 0 {
		return p
	}
	p.InstrumentID = series.InstrumentID()
	p.Count = series.Len()
	p.Start = series.First().Date
	p.End = series.Last().Date

	navs := stats.Float64Data(series.Prices())
	p.MinNAV, _ = navs.Min()
	p.MaxNAV, _ = navs.Max()
	p.MeanNAV, _ = navs.Mean()
	p.P05NAV, _ = stats.PercentileNearestRank(navs, 5)
	p.P95NAV, _ = stats.PercentileNearestRank(navs, 95)
	p.SpreadPct = model.SafeRatio(p.P95NAV-p.P05NAV, p.MeanNAV) * 100

	p.TotalReturnPct = (model.SafeRatio(navs[len(navs)-1], navs[0]) - 1) * 100
	if navs[0] <= 0 {
		p.TotalReturnPct = 0
	}
	p.MaxDrawdownPct = MaxDrawdownPct(navs)
	p.Volatility = Volatility(navs)
	p.RecoveryLength = strategy.MaxRecoveryLength(navs)
	return p
}

// MaxDrawdownPct is the largest peak-to-trough fall of values, in percent (>= 0).
func MaxDrawdownPct(values []float64) float64 {
	peak := math.Inf(-1)
	worst := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if dd := model.SafeRatio(peak-v, peak) * 100; dd > worst {
			worst = dd
		}
	}
	return worst
}

// Volatility is the sample standard deviation of successive returns in
// percent. Fewer than two returns yield 0.
func Volatility(values []float64) float64 {
	if len(values) < 3 {
		return 0
	}
	returns := make(stats.Float64Data, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		returns = append(returns, model.SafeRatio(values[i]-values[i-1], values[i-1])*100)
	}
	sd, err := stats.StandardDeviationSample(returns)
	if err != nil || math.IsNaN(sd) {
		return 0
	}
	return sd
}
