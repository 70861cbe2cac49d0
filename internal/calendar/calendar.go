// Package calendar generates the schedule of candidate investment dates.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"dca-backtest/internal/model"
)

// Unit is the base step of a Frequency.
type Unit string

const (
	Daily      Unit = "D"
	Business   Unit = "B"
	Weekly     Unit = "W"
	MonthStart Unit = "MS"
	MonthEnd   Unit = "ME"
)

// Units lists the supported schedule units.
func Units() []Unit {
	return []Unit{Daily, Business, Weekly, MonthStart, MonthEnd}
}

// Frequency is a parsed schedule step such as "D", "B", "2W" or "MS".
type Frequency struct {
	Every int
	Unit  Unit
}

func (f Frequency) String() string {
	if f.Every == 1 {
		return string(f.Unit)
	}
	return strconv.Itoa(f.Every) + string(f.Unit)
}

// ParseFrequency accepts an optional positive multiplier followed by one of
// D, B, W, MS or ME (case-insensitive). An empty string means daily.
func ParseFrequency(s string) (Frequency, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Frequency{Every: 1, Unit: Daily}, nil
	}
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	every := 1
	if i > 0 {
		n, err := strconv.Atoi(s[:i])
		if err != nil || n <= 0 {
			return Frequency{}, fmt.Errorf("invalid frequency multiplier in %q", s)
		}
		every = n
	}
	switch u := Unit(s[i:]); u {
	case Daily, Business, Weekly, MonthStart, MonthEnd:
		return Frequency{Every: every, Unit: u}, nil
	case "M":
		return Frequency{Every: every, Unit: MonthEnd}, nil
	default:
		return Frequency{}, fmt.Errorf("invalid frequency %q, expected [N]D|B|W|MS|ME", s)
	}
}

// Dates lists schedule dates between start and end inclusive.
// Monthly units are anchored to month boundaries, the others to start.
func Dates(start, end time.Time, freq Frequency) []time.Time {
	start, end = model.Day(start), model.Day(end)
	if end.Before(start) || freq.Every <= 0 {
		return nil
	}

	var out []time.Time
	switch freq.Unit {
	case Daily:
		for d := start; !d.After(end); d = d.AddDate(0, 0, freq.Every) {
			out = append(out, d)
		}
	case Weekly:
		for d := start; !d.After(end); d = d.AddDate(0, 0, 7*freq.Every) {
			out = append(out, d)
		}
	case Business:
		n := 0
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if !isWeekday(d) {
				continue
			}
			if n%freq.Every == 0 {
				out = append(out, d)
			}
			n++
		}
	case MonthStart:
		first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
		if first.Before(start) {
			first = first.AddDate(0, 1, 0)
		}
		for d := first; !d.After(end); d = d.AddDate(0, freq.Every, 0) {
			out = append(out, d)
		}
	case MonthEnd:
		for m := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC); ; m = m.AddDate(0, freq.Every, 0) {
			last := m.AddDate(0, 1, -1)
			if last.After(end) {
				break
			}
			if !last.Before(start) {
				out = append(out, last)
			}
		}
	}
	return out
}

func isWeekday(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}
