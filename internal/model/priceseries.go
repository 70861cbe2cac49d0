package model

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// PricePoint is one net-asset-value observation.
type PricePoint struct {
	Date time.Time `json:"date"`
	NAV  float64   `json:"netvalue"`
}

// PriceSeries is an immutable, date-indexed table of net-asset-values.
// It is safe to share between concurrent runs.
type PriceSeries struct {
	instrumentID string
	points       []PricePoint
	byDay        map[time.Time]float64
}

// Day truncates t to its calendar day at UTC midnight. All series and
// schedule dates are keyed this way.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewPriceSeries sorts points by date and indexes them. A duplicate date keeps
// the first value seen. An empty input is ErrDataUnavailable; a non-positive
// nav is rejected.
func NewPriceSeries(instrumentID string, points []PricePoint) (*PriceSeries, error) {
	if len(points) == 0 {
		return nil, NewDataUnavailable(instrumentID, errors.New("empty series"))
	}

	sorted := make([]PricePoint, 0, len(points))
	byDay := make(map[time.Time]float64, len(points))
	for _, p := range points {
		if math.IsNaN(p.NAV) || math.IsInf(p.NAV, 0) || p.NAV <= 0 {
			return nil, fmt.Errorf("instrument %q: invalid nav %v on %s", instrumentID, p.NAV, p.Date.Format(time.DateOnly))
		}
		d := Day(p.Date)
		if _, dup := byDay[d]; dup {
			continue
		}
		byDay[d] = p.NAV
		sorted = append(sorted, PricePoint{Date: d, NAV: p.NAV})
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	return &PriceSeries{
		instrumentID: instrumentID,
		points:       sorted,
		byDay:        byDay,
	}, nil
}

func (s *PriceSeries) InstrumentID() string { return s.instrumentID }

func (s *PriceSeries) Len() int { return len(s.points) }

// Lookup returns the recorded value for date's calendar day. It never
// interpolates: a non-trading date reports false.
func (s *PriceSeries) Lookup(date time.Time) (float64, bool) {
	v, ok := s.byDay[Day(date)]
	return v, ok
}

// Points returns a copy of the ordered observations.
func (s *PriceSeries) Points() []PricePoint {
	out := make([]PricePoint, len(s.points))
	copy(out, s.points)
	return out
}

// Prices returns the nav values in date order.
func (s *PriceSeries) Prices() []float64 {
	out := make([]float64, len(s.points))
	for i, p := range s.points {
		out[i] = p.NAV
	}
	return out
}

func (s *PriceSeries) First() PricePoint { return s.points[0] }

func (s *PriceSeries) Last() PricePoint { return s.points[len(s.points)-1] }
