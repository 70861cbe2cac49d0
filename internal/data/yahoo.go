package data

import (
	"context"
	"fmt"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
)

// YahooProvider reads daily bars from the Yahoo chart API and uses the
// adjusted close as the net-asset-value.
type YahooProvider struct {
	Start time.Time
	End   time.Time
}

func (p *YahooProvider) Name() string { return "yahoo" }

func (p *YahooProvider) Fetch(ctx context.Context, instrumentID string) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start, end := p.Start, p.End
	if end.IsZero() {
		end = time.Now()
	}
	params := &chart.Params{
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Symbol:   instrumentID,
		Interval: datetime.OneDay,
	}
	iter := chart.Get(params)

	t := &Table{InstrumentID: instrumentID, Columns: []string{ColumnDate, ColumnNetValue}}
	for iter.Next() {
		bar := iter.Bar()
		t.Rows = append(t.Rows, []Cell{
			Cell(time.Unix(int64(bar.Timestamp), 0).UTC().Format(time.DateOnly)),
			Cell(bar.AdjClose.String()),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to get prices for %s: %w", instrumentID, err)
	}
	return t, nil
}
