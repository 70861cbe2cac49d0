package report

import (
	"context"
	"database/sql"
	"fmt"

	"dca-backtest/internal/backtest"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
    run                 TEXT    NOT NULL,
    idx                 INTEGER NOT NULL,
    date                TEXT    NOT NULL,
    price               REAL    NOT NULL,
    action              TEXT    NOT NULL,
    invested            REAL    NOT NULL DEFAULT 0,
    sold_fraction       REAL    NOT NULL DEFAULT 0,
    proceeds            REAL    NOT NULL DEFAULT 0,
    units               REAL    NOT NULL DEFAULT 0,
    cash                REAL    NOT NULL DEFAULT 0,
    cost_basis          REAL    NOT NULL DEFAULT 0,
    total_value         REAL    NOT NULL DEFAULT 0,
    unrealized_gain_pct REAL    NOT NULL DEFAULT 0,
    contributed         REAL    NOT NULL DEFAULT 0,
    return_pct          REAL    NOT NULL DEFAULT 0,
    cash_baseline       REAL    NOT NULL DEFAULT 0,
    lump_sum_value      REAL    NOT NULL DEFAULT 0,
    PRIMARY KEY (run, idx)
);

CREATE INDEX IF NOT EXISTS idx_records_date ON records(run, date);
`

// SQLiteSink stores ledgers in a SQLite database. Rewriting a run replaces
// its previous rows.
type SQLiteSink struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at dsn and applies the schema.
func OpenSQLite(dsn string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("report.OpenSQLite: open %q: %w", dsn, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("report.OpenSQLite: apply schema: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Close() error { return s.db.Close() }

func (s *SQLiteSink) Write(ctx context.Context, run string, records []backtest.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("report.SQLiteSink: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE run = ?`, run); err != nil {
		return fmt.Errorf("report.SQLiteSink: clear run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records
			(run, idx, date, price, action, invested, sold_fraction, proceeds, units,
			 cash, cost_basis, total_value, unrealized_gain_pct, contributed,
			 return_pct, cash_baseline, lump_sum_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("report.SQLiteSink: prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			run, r.Index, r.Date.Format("2006-01-02"), r.Price, string(r.Action),
			r.Invested, r.SoldFraction, r.Proceeds, r.Units,
			r.Cash, r.CostBasis, r.TotalValue, r.UnrealizedGainPct, r.Contributed,
			r.ReturnPct, r.CashBaseline, r.LumpSumValue,
		); err != nil {
			return fmt.Errorf("report.SQLiteSink: insert %s/%d: %w", run, r.Index, err)
		}
	}
	return tx.Commit()
}

// Count returns the number of stored rows for run.
func (s *SQLiteSink) Count(ctx context.Context, run string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE run = ?`, run).Scan(&n)
	return n, err
}

// FinalValue returns the total value of the last stored record of run.
func (s *SQLiteSink) FinalValue(ctx context.Context, run string) (float64, error) {
	var v float64
	err := s.db.QueryRowContext(ctx,
		`SELECT total_value FROM records WHERE run = ? ORDER BY idx DESC LIMIT 1`, run).Scan(&v)
	return v, err
}
