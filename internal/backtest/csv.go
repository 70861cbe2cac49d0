package backtest

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gocarina/gocsv"
)

// csvRow is the on-disk shape of a Record. Column names are stable.
type csvRow struct {
	Index             int     `csv:"index"`
	Date              string  `csv:"date"`
	Price             float64 `csv:"price"`
	Action            string  `csv:"action"`
	Invested          float64 `csv:"invested"`
	SoldFraction      float64 `csv:"sold_fraction"`
	Proceeds          float64 `csv:"proceeds"`
	Units             float64 `csv:"units"`
	Cash              float64 `csv:"cash"`
	CostBasis         float64 `csv:"cost_basis"`
	TotalValue        float64 `csv:"total_value"`
	UnrealizedGainPct float64 `csv:"unrealized_gain_pct"`
	Contributed       float64 `csv:"contributed"`
	ReturnPct         float64 `csv:"return_pct"`
	CashBaseline      float64 `csv:"cash_baseline"`
	LumpSumValue      float64 `csv:"lump_sum_value"`
}

func toCSVRows(records []Record) []*csvRow {
	rows := make([]*csvRow, len(records))
	for i, r := range records {
		rows[i] = &csvRow{
			Index:             r.Index,
			Date:              r.Date.Format(time.DateOnly),
			Price:             r.Price,
			Action:            string(r.Action),
			Invested:          r.Invested,
			SoldFraction:      r.SoldFraction,
			Proceeds:          r.Proceeds,
			Units:             r.Units,
			Cash:              r.Cash,
			CostBasis:         r.CostBasis,
			TotalValue:        r.TotalValue,
			UnrealizedGainPct: r.UnrealizedGainPct,
			Contributed:       r.Contributed,
			ReturnPct:         r.ReturnPct,
			CashBaseline:      r.CashBaseline,
			LumpSumValue:      r.LumpSumValue,
		}
	}
	return rows
}

// WriteRecordsCSV writes records with a header row to w. The header is
// written even when records is empty.
func WriteRecordsCSV(w io.Writer, records []Record) error {
	return gocsv.Marshal(toCSVRows(records), w)
}

// WriteRecordsCSVFile creates path and writes records to it.
func WriteRecordsCSVFile(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WriteRecordsCSV(f, records); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
