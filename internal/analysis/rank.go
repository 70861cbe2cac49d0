package analysis

import (
	"fmt"
	"sort"

	"dca-backtest/internal/model"
)

// Ranking criteria for instruments.
const (
	BySpread     = "spread"
	ByDrawdown   = "drawdown"
	ByVolatility = "volatility"
	ByRecovery   = "recovery"
	ByReturn     = "return"
)

type RankedPotential struct {
	Rank int `json:"rank"`
	Potential
}

func metric(p Potential, by string) (float64, error) {
	switch by {
	case BySpread, "":
		return p.SpreadPct, nil
	case ByDrawdown:
		return p.MaxDrawdownPct, nil
	case ByVolatility:
		return p.Volatility, nil
	case ByRecovery:
		return float64(p.RecoveryLength), nil
	case ByReturn:
		return p.TotalReturnPct, nil
	}
	return 0, fmt.Errorf("unknown ranking %q (want spread, drawdown, volatility, recovery or return)", by)
}

// RankPotential computes potentials per instrument and sorts them descending
// by the chosen criterion. Ties keep instrument id order.
func RankPotential(series []*model.PriceSeries, by string) ([]RankedPotential, error) {
	if _, err := metric(Potential{}, by); err != nil {
		return nil, err
	}
	out := make([]RankedPotential, 0, len(series))
	for _, s := range series {
		out = append(out, RankedPotential{Potential: ComputePotential(s)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		mi, _ := metric(out[i].Potential, by)
		mj, _ := metric(out[j].Potential, by)
		if mi != mj {
			return mi > mj
		}
		return out[i].InstrumentID < out[j].InstrumentID
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

// RankSummaries orders run summaries by final return, best first.
func RankSummaries(summaries []Summary) []Summary {
	out := append([]Summary(nil), summaries...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ReturnPct > out[j].ReturnPct
	})
	return out
}
