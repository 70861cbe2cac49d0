package handlers

import (
	"net/http"

	"dca-backtest/internal/api/models"
	"dca-backtest/internal/calendar"
	"dca-backtest/internal/model"
	"dca-backtest/internal/strategy"

	"github.com/gin-gonic/gin"
)

// StrategyHandler handles strategy-related requests
type StrategyHandler struct{}

// NewStrategyHandler creates a new strategy handler
func NewStrategyHandler() *StrategyHandler {
	return &StrategyHandler{}
}

var sizingDescriptions = map[string]string{
	strategy.SizingFixed:         "Invests base_amount on every scheduled date.",
	strategy.SizingPriceRelative: "Scales the previous amount down after a rise and up after a fall, by k times the price change.",
	strategy.SizingHighWaterMark: "Like price_relative, but resets to base_amount whenever the price sets a new high.",
	strategy.SizingBudgeted:      "Price-relative sizing whose base is total_budget divided by the longest recovery in the window, times scale.",
}

var paramDescriptions = map[string]string{
	"k":     "Sensitivity to the relative price change",
	"scale": "Multiplier applied to the budget-derived base amount",
}

// ListStrategies handles GET /api/v1/strategies
func (h *StrategyHandler) ListStrategies(c *gin.Context) {
	sizings := make([]models.SizingInfo, 0)
	for _, name := range strategy.SizingNames() {
		info := models.SizingInfo{
			Name:        name,
			Description: sizingDescriptions[name],
			Parameters:  []models.ParameterInfo{},
		}
		for key, def := range strategy.SizingDefaults(name) {
			info.Parameters = append(info.Parameters, models.ParameterInfo{
				Name:        key,
				Type:        "float",
				Description: paramDescriptions[key],
				Default:     def,
			})
		}
		sizings = append(sizings, info)
	}

	ladders := make([]models.LadderInfo, 0)
	for _, name := range strategy.LadderNames() {
		tiers, _ := strategy.PresetTiers(name)
		specs := make([]model.TierSpec, 0, len(tiers))
		for _, t := range tiers {
			specs = append(specs, model.TierSpec{
				Threshold:     t.Threshold,
				SellFraction:  t.SellFraction,
				CostFactor:    t.CostFactor,
				InflateByGain: t.InflateByGain,
			})
		}
		ladders = append(ladders, models.LadderInfo{Name: name, Tiers: specs})
	}

	c.JSON(http.StatusOK, gin.H{
		"sizing":      sizings,
		"liquidation": ladders,
		"funding":     []model.Funding{model.FundingBudget, model.FundingContribution},
		"frequencies": calendar.Units(),
	})
}
