package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ValidateInstrumentID rejects ids that cannot name a single file or URL
// path segment: empty ids, separators and dot segments.
func ValidateInstrumentID(instrumentID string) error {
	if !filepath.IsLocal(instrumentID) || strings.ContainsAny(instrumentID, `/\`) || instrumentID == "." {
		return fmt.Errorf("invalid instrument id %q", instrumentID)
	}
	return nil
}

// instrumentFile is <dir>/<instrumentID><ext>, never outside dir.
func instrumentFile(dir, instrumentID, ext string) (string, error) {
	if err := ValidateInstrumentID(instrumentID); err != nil {
		return "", err
	}
	return filepath.Join(dir, instrumentID+ext), nil
}

// CSVFileProvider serves <Dir>/<instrument>.csv files with a header row.
// Header names are kept verbatim; LoadSeries normalises them.
type CSVFileProvider struct {
	Dir string
}

func (p *CSVFileProvider) Name() string { return "csv" }

func (p *CSVFileProvider) Fetch(ctx context.Context, instrumentID string) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := instrumentFile(p.Dir, instrumentID, ".csv")
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := ReadTableCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s.csv: %w", instrumentID, err)
	}
	t.InstrumentID = instrumentID
	return t, nil
}

// ReadTableCSV reads a header row followed by data rows.
func ReadTableCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return &Table{}, nil
	}
	if err != nil {
		return nil, err
	}
	t := &Table{Columns: header}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make([]Cell, len(rec))
		for i, v := range rec {
			row[i] = Cell(v)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
