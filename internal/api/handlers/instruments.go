package handlers

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"

	"dca-backtest/internal/api/models"
	"dca-backtest/internal/data"

	"github.com/gin-gonic/gin"
)

// ListInstruments handles GET /api/v1/instruments
func ListInstruments(c *gin.Context) {
	list, err := loadInstruments()
	if err != nil {
		writeError(c, http.StatusInternalServerError, "INSTRUMENTS_LOAD_ERROR", fmt.Sprintf("Failed to load instruments: %v", err), nil)
		return
	}

	typ := strings.ToLower(c.Query("type"))
	instruments := make([]models.InstrumentInfo, 0, len(list.Instruments))
	for _, in := range list.Instruments {
		if typ != "" && strings.ToLower(in.Type) != typ {
			continue
		}
		instruments = append(instruments, models.InstrumentInfo{
			ID:       in.ID,
			Name:     in.Name,
			Type:     in.Type,
			Currency: in.Currency,
			Provider: in.Provider,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"instruments": instruments,
		"updated_at":  list.UpdatedAt,
		"count":       len(instruments),
	})
}

// loadInstruments reads the catalog; a missing file is an empty catalog.
func loadInstruments() (*data.InstrumentList, error) {
	list, err := data.LoadInstruments(data.DefaultInstrumentsPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &data.InstrumentList{Instruments: []data.Instrument{}}, nil
		}
		return nil, err
	}
	return list, nil
}
