package report

import (
	"context"
	"fmt"
	"io"

	"dca-backtest/internal/analysis"
	"dca-backtest/internal/backtest"

	"github.com/Rhymond/go-money"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
)

// TableSink renders the ledger as a console table. Trades only keeps rows
// with a buy or a sale. Amounts carry the symbol of Currency when it is a
// known ISO code.
type TableSink struct {
	Out      io.Writer
	Trades   bool
	Currency string
}

func number(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// amount formats v in currency, or as a plain two-decimal number.
func amount(v float64, currency string) string {
	cur := money.GetCurrency(currency)
	if currency == "" || cur == nil {
		return number(v)
	}
	factor := decimal.New(1, int32(cur.Fraction))
	minor := decimal.NewFromFloat(v).Mul(factor).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}

func (s *TableSink) Write(ctx context.Context, run string, records []backtest.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fmt.Fprintf(s.Out, "\n=== %s (%d records) ===\n", run, len(records))

	tbl := tablewriter.NewWriter(s.Out)
	tbl.Header("#", "Date", "Price", "Action", "Invested", "Sold", "Units", "Cash", "Value", "Gain%", "Return%")
	for _, r := range records {
		if s.Trades && r.Invested == 0 && r.SoldFraction == 0 {
			continue
		}
		if err := tbl.Append(
			fmt.Sprintf("%d", r.Index),
			r.Date.Format("2006-01-02"),
			decimal.NewFromFloat(r.Price).StringFixed(4),
			string(r.Action),
			amount(r.Invested, s.Currency),
			fmt.Sprintf("%.0f%%", r.SoldFraction*100),
			decimal.NewFromFloat(r.Units).StringFixed(4),
			amount(r.Cash, s.Currency),
			amount(r.TotalValue, s.Currency),
			number(r.UnrealizedGainPct),
			number(r.ReturnPct),
		); err != nil {
			return fmt.Errorf("append row: %w", err)
		}
	}
	return tbl.Render()
}

// WriteSummaries renders one line per run, in the given order.
func WriteSummaries(out io.Writer, currency string, summaries []analysis.Summary) error {
	tbl := tablewriter.NewWriter(out)
	tbl.Header("Run", "Instrument", "Records", "Buys", "Sales", "Capital", "Final", "Return%", "Ann%", "MaxDD%", "Cash base", "Lump sum")
	for _, s := range summaries {
		if err := tbl.Append(
			s.Name,
			s.InstrumentID,
			fmt.Sprintf("%d", s.Records),
			fmt.Sprintf("%d", s.Buys),
			fmt.Sprintf("%d", s.Sales),
			amount(s.Capital, currency),
			amount(s.FinalValue, currency),
			number(s.ReturnPct),
			number(s.AnnualizedReturnPct),
			number(s.MaxDrawdownPct),
			amount(s.CashBaseline, currency),
			amount(s.LumpSumValue, currency),
		); err != nil {
			return fmt.Errorf("append row: %w", err)
		}
	}
	return tbl.Render()
}
