package api

import (
	"net/http"
	"strings"

	"dca-backtest/internal/api/handlers"
	"dca-backtest/internal/api/middleware"
	"dca-backtest/internal/config"
	"dca-backtest/internal/data"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Options wires the router to its dependencies.
type Options struct {
	Config         *config.Config
	Provider       data.Provider
	Log            *zap.SugaredLogger
	AllowedOrigins []string
	// StoreCapacity bounds how many results are kept for ledger lookups.
	StoreCapacity int
}

// NewRouter builds the HTTP surface.
func NewRouter(opts Options) *gin.Engine {
	log := opts.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	router := gin.New()
	router.Use(middleware.CORS(opts.AllowedOrigins...))
	router.Use(middleware.Logger(log))
	router.Use(middleware.ErrorHandler())

	store := handlers.NewResultStore(opts.StoreCapacity)
	backtestHandler := handlers.NewBacktestHandler(opts.Config, opts.Provider, store, log)
	strategyHandler := handlers.NewStrategyHandler()
	rankHandler := handlers.NewRankHandler(opts.Provider, log)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "provider": opts.Provider.Name()})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/backtest", backtestHandler.RunBacktest)
		api.GET("/backtest/:id/ledger", backtestHandler.GetLedger)
		api.POST("/backtest/compare", backtestHandler.CompareBacktests)

		api.GET("/strategies", strategyHandler.ListStrategies)
		api.GET("/instruments", handlers.ListInstruments)
		api.GET("/rank", rankHandler.RankInstruments)
	}

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
			return
		}
		c.Status(http.StatusNotFound)
	})
	return router
}
