package data

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"dca-backtest/internal/model"

	"github.com/shopspring/decimal"
)

// Required column names after normalisation.
const (
	ColumnDate     = "date"
	ColumnNetValue = "netvalue"
)

// Provider delivers the raw price history of one instrument.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, instrumentID string) (*Table, error)
}

// Cell is a table value. JSON numbers and strings both decode into it.
type Cell string

func (c *Cell) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Cell(s)
		return nil
	}
	*c = Cell(b)
	return nil
}

// Table is the provider-side representation: named columns and string rows.
type Table struct {
	InstrumentID string   `json:"instrument,omitempty"`
	Columns      []string `json:"columns"`
	Rows         [][]Cell `json:"rows"`
}

// NormalizeColumn trims and lower-cases a column name.
func NormalizeColumn(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ColumnIndex returns the position of a column by normalised name.
func (t *Table) ColumnIndex(name string) int {
	want := NormalizeColumn(name)
	for i, c := range t.Columns {
		if NormalizeColumn(c) == want {
			return i
		}
	}
	return -1
}

var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	"2006/01/02",
	"20060102",
	"2006-01-02 15:04:05",
}

// ParseDate accepts the date layouts seen from providers.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// ToPoints validates the schema once and converts rows to price points.
// Rows with an empty nav are dropped.
func (t *Table) ToPoints() ([]model.PricePoint, error) {
	di, ni := t.ColumnIndex(ColumnDate), t.ColumnIndex(ColumnNetValue)
	if di < 0 || ni < 0 {
		return nil, fmt.Errorf("missing required columns %q and %q in %v", ColumnDate, ColumnNetValue, t.Columns)
	}

	points := make([]model.PricePoint, 0, len(t.Rows))
	for i, row := range t.Rows {
		if di >= len(row) || ni >= len(row) {
			return nil, fmt.Errorf("row %d: expected %d columns, got %d", i, len(t.Columns), len(row))
		}
		raw := strings.TrimSpace(string(row[ni]))
		if raw == "" {
			continue
		}
		date, err := ParseDate(string(row[di]))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		nav, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid %s %q: %w", i, ColumnNetValue, raw, err)
		}
		points = append(points, model.PricePoint{Date: date, NAV: nav.InexactFloat64()})
	}
	return points, nil
}

// LoadSeries fetches instrumentID from p and builds an immutable series.
// Any failure here is a DataUnavailable error naming the instrument.
func LoadSeries(ctx context.Context, p Provider, instrumentID string) (*model.PriceSeries, error) {
	if strings.TrimSpace(instrumentID) == "" {
		return nil, model.NewDataUnavailable(instrumentID, errors.New("instrument id is required"))
	}
	table, err := p.Fetch(ctx, instrumentID)
	if err != nil {
		return nil, model.NewDataUnavailable(instrumentID, fmt.Errorf("%s: %w", p.Name(), err))
	}
	if table == nil || len(table.Rows) == 0 {
		return nil, model.NewDataUnavailable(instrumentID, fmt.Errorf("%s returned an empty table", p.Name()))
	}
	points, err := table.ToPoints()
	if err != nil {
		return nil, model.NewDataUnavailable(instrumentID, fmt.Errorf("%s: %w", p.Name(), err))
	}
	return model.NewPriceSeries(instrumentID, points)
}
