package handlers

import (
	"errors"
	"net/http"
	"strings"

	"dca-backtest/internal/analysis"
	"dca-backtest/internal/api/models"
	"dca-backtest/internal/data"
	"dca-backtest/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RankHandler handles ranking-related requests
type RankHandler struct {
	provider data.Provider
	log      *zap.SugaredLogger
}

// NewRankHandler creates a new rank handler
func NewRankHandler(provider data.Provider, log *zap.SugaredLogger) *RankHandler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &RankHandler{provider: provider, log: log}
}

// RankInstruments handles GET /api/v1/rank
func (h *RankHandler) RankInstruments(c *gin.Context) {
	var req models.RankRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	by := req.By
	if by == "" {
		by = analysis.BySpread
	}

	var ids []string
	for _, id := range strings.Split(req.Instruments, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		writeError(c, http.StatusBadRequest, "INSTRUMENTS_REQUIRED", "Please specify instruments query parameter (comma-separated)", nil)
		return
	}

	var (
		series  []*model.PriceSeries
		skipped []string
	)
	for _, id := range ids {
		s, err := data.LoadSeries(c.Request.Context(), h.provider, id)
		if err != nil {
			// Auth and rate-limit failures abort the whole request; a single
			// unavailable instrument is skipped.
			var navErr *data.NAVError
			if errors.As(err, &navErr) && navErr.StatusCode != http.StatusNotFound {
				writeDataError(c, err)
				return
			}
			h.log.Warnw("skipping instrument", "instrument", id, "error", err)
			skipped = append(skipped, id)
			continue
		}
		series = append(series, s)
	}
	if len(series) == 0 {
		writeError(c, http.StatusNotFound, "DATA_UNAVAILABLE", "no price data for any requested instrument", map[string]interface{}{
			"skipped": skipped,
		})
		return
	}

	ranked, err := analysis.RankPotential(series, by)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}

	// Apply limit
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > len(ranked) {
		limit = len(ranked)
	}
	ranked = ranked[:limit]

	rankings := make([]models.Ranking, len(ranked))
	for i, r := range ranked {
		rankings[i] = models.Ranking{
			Rank:           r.Rank,
			Instrument:     r.InstrumentID,
			Start:          r.Start,
			End:            r.End,
			Count:          r.Count,
			MinNAV:         r.MinNAV,
			MaxNAV:         r.MaxNAV,
			SpreadPct:      r.SpreadPct,
			TotalReturnPct: r.TotalReturnPct,
			MaxDrawdownPct: r.MaxDrawdownPct,
			Volatility:     r.Volatility,
			RecoveryLength: r.RecoveryLength,
		}
	}

	c.JSON(http.StatusOK, models.RankResponse{By: by, Rankings: rankings, Skipped: skipped})
}
