package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"dca-backtest/internal/analysis"
	"dca-backtest/internal/backtest"
	"dca-backtest/internal/config"
	"dca-backtest/internal/data"
	"dca-backtest/internal/logger"
	"dca-backtest/internal/model"
	"dca-backtest/internal/report"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootFlags struct {
	configPath string
	logLevel   string
}

func main() {
	config.LoadEnv()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "dca",
		Short:         "Backtest dollar-cost averaging plans against fund NAV history",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "config.yaml", "Path to YAML config")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Override log.level")

	root.AddCommand(newRunCmd(flags), newCompareCmd(flags), newRankCmd(flags))
	return root
}

// setup loads config and builds the logger and provider shared by every command.
func setup(flags *rootFlags) (*config.Config, *zap.SugaredLogger, data.Provider, func(), error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("load config %s: %w", flags.configPath, err)
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	provider, release, err := cfg.NewProvider(log)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	cleanup := func() {
		release()
		_ = log.Sync()
	}
	return cfg, log, provider, cleanup, nil
}

func newRunCmd(flags *rootFlags) *cobra.Command {
	var (
		runName string
		outDir  string
		table   bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one configured strategy and write its ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, provider, cleanup, err := setup(flags)
			if err != nil {
				return err
			}
			defer cleanup()

			if runName == "" {
				runName = cfg.RunList()[0].Name
			}
			sc, err := cfg.StrategyConfig(runName)
			if err != nil {
				return err
			}
			if outDir != "" {
				cfg.Output.CSVDir = outDir
			}
			if table {
				cfg.Output.Table = true
			}

			ctx := cmd.Context()
			series, err := data.LoadSeries(ctx, provider, sc.InstrumentID)
			if err != nil {
				return err
			}
			res, err := backtest.New(log).Run(series, sc)
			if err != nil {
				return err
			}
			if err := emit(ctx, cfg, cmd, []*backtest.Result{res}); err != nil {
				return err
			}
			return report.WriteSummaries(cmd.OutOrStdout(), cfg.Output.Currency, []analysis.Summary{analysis.Summarize(res)})
		},
	}
	cmd.Flags().StringVar(&runName, "run", "", "Name of the run to execute (default: first run)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Override output.csv_dir")
	cmd.Flags().BoolVar(&table, "table", false, "Print the ledger as a table")
	return cmd
}

func newCompareCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Run every configured strategy and compare their outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, provider, cleanup, err := setup(flags)
			if err != nil {
				return err
			}
			defer cleanup()

			cfgs, err := cfg.StrategyConfigs()
			if err != nil {
				return err
			}

			// Runs sharing an instrument are compared against one series load.
			var order []string
			byInstrument := map[string][]model.StrategyConfig{}
			for _, sc := range cfgs {
				if _, ok := byInstrument[sc.InstrumentID]; !ok {
					order = append(order, sc.InstrumentID)
				}
				byInstrument[sc.InstrumentID] = append(byInstrument[sc.InstrumentID], sc)
			}

			ctx := cmd.Context()
			engine := backtest.New(log)
			var results []*backtest.Result
			for _, id := range order {
				series, err := data.LoadSeries(ctx, provider, id)
				if err != nil {
					return err
				}
				rs, err := engine.Compare(ctx, series, byInstrument[id])
				if err != nil {
					return err
				}
				results = append(results, rs...)
			}

			if err := emit(ctx, cfg, cmd, results); err != nil {
				return err
			}
			summaries := analysis.RankSummaries(analysis.SummarizeAll(results))
			return report.WriteSummaries(cmd.OutOrStdout(), cfg.Output.Currency, summaries)
		},
	}
	return cmd
}

func newRankCmd(flags *rootFlags) *cobra.Command {
	var (
		instruments string
		by          string
	)
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank instruments by how much a DCA plan could exploit their swings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, provider, cleanup, err := setup(flags)
			if err != nil {
				return err
			}
			defer cleanup()

			ids := splitList(instruments)
			if len(ids) == 0 && cfg.Instrument != "" {
				ids = []string{cfg.Instrument}
			}
			if len(ids) == 0 {
				return fmt.Errorf("--instruments is required")
			}

			var series []*model.PriceSeries
			for _, id := range ids {
				s, err := data.LoadSeries(cmd.Context(), provider, id)
				if err != nil {
					log.Warnw("skipping instrument", "instrument", id, "error", err)
					continue
				}
				series = append(series, s)
			}
			ranked, err := analysis.RankPotential(series, by)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-4s %-14s %-6s %-10s %-10s %-10s %-10s %-8s\n", "rank", "instrument", "count", "spread%", "return%", "maxdd%", "vol%", "recovery")
			for _, r := range ranked {
				fmt.Fprintf(out, "%-4d %-14s %-6d %-10.2f %-10.2f %-10.2f %-10.2f %-8d\n",
					r.Rank, r.InstrumentID, r.Count, r.SpreadPct, r.TotalReturnPct, r.MaxDrawdownPct, r.Volatility, r.RecoveryLength)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&instruments, "instruments", "", "Comma-separated instrument ids")
	cmd.Flags().StringVar(&by, "by", analysis.BySpread, "spread, drawdown, volatility, recovery or return")
	return cmd
}

func emit(ctx context.Context, cfg *config.Config, cmd *cobra.Command, results []*backtest.Result) error {
	sink, closeSink, err := cfg.Output.NewSink(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeSink()
	for _, res := range results {
		if err := sink.Write(ctx, res.Name, res.Records); err != nil {
			return fmt.Errorf("write %s: %w", res.Name, err)
		}
	}
	if cfg.Output.CSVDir != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d run(s) to %s\n", len(results), cfg.Output.CSVDir)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
