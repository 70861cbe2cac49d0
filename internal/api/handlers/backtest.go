package handlers

import (
	"fmt"
	"net/http"

	"dca-backtest/internal/analysis"
	"dca-backtest/internal/api/models"
	"dca-backtest/internal/backtest"
	"dca-backtest/internal/config"
	"dca-backtest/internal/data"
	"dca-backtest/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BacktestHandler handles backtest-related requests
type BacktestHandler struct {
	cfg      *config.Config
	provider data.Provider
	engine   *backtest.Engine
	store    *ResultStore
	log      *zap.SugaredLogger
}

// NewBacktestHandler creates a new backtest handler. cfg supplies the
// defaults every request is merged over.
func NewBacktestHandler(cfg *config.Config, provider data.Provider, store *ResultStore, log *zap.SugaredLogger) *BacktestHandler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &BacktestHandler{
		cfg:      cfg,
		provider: provider,
		engine:   backtest.New(log),
		store:    store,
		log:      log,
	}
}

// RunBacktest handles POST /api/v1/backtest
func (h *BacktestHandler) RunBacktest(c *gin.Context) {
	var req models.BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}

	run := req.Run
	run.Instrument = req.Instrument
	if run.Name == "" {
		run.Name = "default"
	}
	cfg, err := h.cfg.Resolve(run)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error(), nil)
		return
	}

	series, err := data.LoadSeries(c.Request.Context(), h.provider, req.Instrument)
	if err != nil {
		writeDataError(c, err)
		return
	}

	result, err := h.engine.Run(series, cfg)
	if err != nil {
		writeError(c, http.StatusBadRequest, "BACKTEST_ERROR", err.Error(), nil)
		return
	}

	id := h.store.Put(result)
	h.log.Infow("backtest completed", "id", id, "run", result.Name, "instrument", result.InstrumentID, "records", len(result.Records))

	response := models.BacktestResponse{
		ID:      id,
		Status:  "completed",
		Skipped: result.SkippedDates,
		Summary: analysis.Summarize(result),
	}
	if req.Options.IncludeLedger {
		response.Ledger = convertLedger(result.Records, req.Options.TradesOnly)
	}
	c.JSON(http.StatusOK, response)
}

// GetLedger handles GET /api/v1/backtest/:id/ledger
func (h *BacktestHandler) GetLedger(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_ID", "id must be a UUID", nil)
		return
	}
	result, ok := h.store.Get(id)
	if !ok {
		writeError(c, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("no backtest with id %s", id), nil)
		return
	}
	ledger := convertLedger(result.Records, c.Query("trades_only") == "true")
	c.JSON(http.StatusOK, models.LedgerResponse{
		ID:     id,
		Name:   result.Name,
		Count:  len(ledger),
		Ledger: ledger,
	})
}

// CompareBacktests handles POST /api/v1/backtest/compare
func (h *BacktestHandler) CompareBacktests(c *gin.Context) {
	var req models.CompareBacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}

	cfgs := make([]model.StrategyConfig, 0, len(req.Variations))
	seen := map[string]bool{}
	for i, variation := range req.Variations {
		merged := config.MergeRun(req.Base, variation)
		merged.Instrument = req.Instrument
		if merged.Name == "" {
			merged.Name = fmt.Sprintf("variation_%d", i+1)
		}
		if seen[merged.Name] {
			writeError(c, http.StatusBadRequest, "INVALID_CONFIG", fmt.Sprintf("duplicate variation name %q", merged.Name), nil)
			return
		}
		seen[merged.Name] = true

		cfg, err := h.cfg.Resolve(merged)
		if err != nil {
			writeError(c, http.StatusBadRequest, "INVALID_CONFIG", fmt.Sprintf("variation %s: %v", merged.Name, err), nil)
			return
		}
		cfgs = append(cfgs, cfg)
	}

	// Fetch data once
	series, err := data.LoadSeries(c.Request.Context(), h.provider, req.Instrument)
	if err != nil {
		writeDataError(c, err)
		return
	}

	results, err := h.engine.Compare(c.Request.Context(), series, cfgs)
	if err != nil {
		writeError(c, http.StatusBadRequest, "BACKTEST_ERROR", err.Error(), nil)
		return
	}

	response := models.CompareBacktestResponse{
		Instrument: req.Instrument,
		Comparison: make([]models.ComparisonResult, 0, len(results)),
	}
	summaries := analysis.SummarizeAll(results)
	for i, result := range results {
		response.Comparison = append(response.Comparison, models.ComparisonResult{
			ID:      h.store.Put(result),
			Name:    result.Name,
			Summary: summaries[i],
		})
	}
	if ranked := analysis.RankSummaries(summaries); len(ranked) > 0 {
		response.Best = ranked[0].Name
	}
	c.JSON(http.StatusOK, response)
}

func convertLedger(records []backtest.Record, tradesOnly bool) []models.LedgerRow {
	rows := make([]models.LedgerRow, 0, len(records))
	for _, r := range records {
		if tradesOnly && r.Invested == 0 && r.SoldFraction == 0 {
			continue
		}
		rows = append(rows, models.LedgerRow{
			Index:             r.Index,
			Date:              r.Date,
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
		})
	}
	return rows
}
