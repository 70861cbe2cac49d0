// Package report delivers backtest ledgers to their destinations.
package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"dca-backtest/internal/backtest"
)

// Sink receives the output time series of one run.
type Sink interface {
	Write(ctx context.Context, run string, records []backtest.Record) error
}

// Multi fans records out to several sinks, collecting every failure.
type Multi []Sink

func (m Multi) Write(ctx context.Context, run string, records []backtest.Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, run, records); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName turns a run name into a safe file stem.
func FileName(run string) string {
	name := unsafeName.ReplaceAllString(run, "_")
	if name == "" {
		return "run"
	}
	return name
}

// CSVSink writes <Dir>/<run>.csv per run.
type CSVSink struct {
	Dir string
}

func (s *CSVSink) Write(ctx context.Context, run string, records []backtest.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return backtest.WriteRecordsCSVFile(filepath.Join(s.Dir, FileName(run)+".csv"), records)
}
