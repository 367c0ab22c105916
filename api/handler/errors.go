package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/oddscout/models"
)

// respondError maps err to an HTTP status and writes the JSON error body.
func respondError(c *gin.Context, err error) {
	se := models.AsScrapeError(err)
	c.JSON(mapErrorToStatus(se), models.ErrorResponse{
		Success: false,
		Error:   se.ToDetail(),
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Success: false,
		Error:   &models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: msg},
	})
}

func busy(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
		Success: false,
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeBusy,
			Message: "a browser session is already running, retry later",
		},
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation, models.ErrCodeChallenge, models.ErrCodeUpstream:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeBusy:
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}
