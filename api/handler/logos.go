package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/oddscout/logos"
	"github.com/use-agent/oddscout/models"
)

// Logo returns a handler for GET /api/v1/logos?team=.
func Logo(svc *logos.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q models.LogoQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			badRequest(c, "team query parameter is required")
			return
		}
		logo, err := svc.Lookup(c.Request.Context(), q.Team)
		if err != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeTimeout, "logo lookup cancelled", err))
			return
		}
		c.JSON(http.StatusOK, logo)
	}
}
