package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/oddscout/models"
	"github.com/use-agent/oddscout/webhook"
)

// Votes returns a handler for POST /api/v1/votes. Like the command line, a
// pipeline failure is still a 200 whose body carries success=false and the
// error message.
func Votes(s *Sessions, n *webhook.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.VotesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		if !s.tryAcquire() {
			busy(c)
			return
		}
		defer s.release()

		res, err := s.voteReader().FanVotes(c.Request.Context(), req.URL)
		if err != nil {
			slog.Warn("vote pipeline failed", "url", req.URL, "error", err)
		}
		n.Notify(webhook.NewEvent(webhook.VotesCompleted, res))
		c.JSON(http.StatusOK, res)
	}
}
