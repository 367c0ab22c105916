package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/oddscout/models"
	"github.com/use-agent/oddscout/scraper"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Health returns a handler for GET /api/v1/health.
func Health(s *Sessions, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		busy := s.Busy()
		status := "healthy"
		if busy {
			status = "busy"
		}
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Busy:    busy,
			Sports:  scraper.Sports(),
			Version: Version,
		})
	}
}
