package config

import (
	"fmt"
	"io"
	"time"

	"dca-backtest/internal/data"
	"dca-backtest/internal/report"

	"go.uber.org/zap"
)

// NewProvider builds the configured price provider, wrapped in a cache when
// data.cache_ttl (or ENABLE_NAV_CACHE) asks for one. The returned func
// releases the cache and is never nil.
func (c *Config) NewProvider(log *zap.SugaredLogger) (data.Provider, func(), error) {
	var p data.Provider
	switch c.Data.Provider {
	case "csv":
		p = &data.CSVFileProvider{Dir: c.Data.Dir}
	case "json":
		p = &data.JSONFileProvider{Dir: c.Data.Dir}
	case "nav":
		p = data.NewNAVClient(c.Data.APIKey, c.Data.BaseURL, c.Data.RateLimit, log)
	case "yahoo":
		start, end := c.dateRange()
		p = &data.YahooProvider{Start: start, End: end.AddDate(0, 0, 1)}
	default:
		return nil, func() {}, fmt.Errorf("unknown data provider %q", c.Data.Provider)
	}

	ttl, err := c.Data.TTL()
	if err != nil {
		return nil, func() {}, err
	}
	if ttl == 0 {
		if envTTL, ok := data.CacheTTLFromEnv(); ok {
			ttl = envTTL
		}
	}
	if ttl == 0 {
		return p, func() {}, nil
	}
	cached := data.NewCachedProvider(p, ttl)
	return cached, cached.Close, nil
}

// dateRange spans every configured run.
func (c *Config) dateRange() (time.Time, time.Time) {
	var start, end time.Time
	cfgs, err := c.StrategyConfigs()
	if err != nil {
		return start, end
	}
	for _, sc := range cfgs {
		if start.IsZero() || sc.Start.Before(start) {
			start = sc.Start
		}
		if sc.End.After(end) {
			end = sc.End
		}
	}
	return start, end
}

// NewSink builds the configured output sinks. Table output goes to out.
// The returned func closes any database handle and is never nil.
func (o OutputConfig) NewSink(out io.Writer) (report.Sink, func() error, error) {
	var sinks report.Multi
	closer := func() error { return nil }
	if o.CSVDir != "" {
		sinks = append(sinks, &report.CSVSink{Dir: o.CSVDir})
	}
	if o.Table {
		sinks = append(sinks, &report.TableSink{Out: out, Trades: o.TradesOnly, Currency: o.Currency})
	}
	if o.SQLite != "" {
		db, err := report.OpenSQLite(o.SQLite)
		if err != nil {
			return nil, closer, err
		}
		sinks = append(sinks, db)
		closer = db.Close
	}
	return sinks, closer, nil
}
