package handlers

import (
	"errors"
	"net/http"

	"dca-backtest/internal/api/models"
	"dca-backtest/internal/data"
	"dca-backtest/internal/model"

	"github.com/gin-gonic/gin"
)

func writeError(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// writeDataError maps a price loading failure to a response. NAV service
// auth and rate-limit failures keep their status; anything else is a 404.
func writeDataError(c *gin.Context, err error) {
	var navErr *data.NAVError
	if errors.As(err, &navErr) {
		switch navErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			writeError(c, http.StatusUnauthorized, navErr.Code, navErr.Message, nil)
			return
		case http.StatusTooManyRequests:
			writeError(c, http.StatusTooManyRequests, navErr.Code, navErr.Message, map[string]interface{}{
				"retry_after": navErr.RetryAfter,
			})
			return
		}
	}
	var du *model.DataUnavailableError
	if errors.As(err, &du) {
		writeError(c, http.StatusNotFound, "DATA_UNAVAILABLE", err.Error(), map[string]interface{}{
			"instrument": du.InstrumentID,
		})
		return
	}
	writeError(c, http.StatusBadGateway, "DATA_FETCH_ERROR", err.Error(), nil)
}
