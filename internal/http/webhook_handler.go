package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/rentals/internal/line"
)

// lineWebhook verifies the channel signature over the raw body before any
// event is looked at. Verification is skipped only for a development setup
// without a channel secret.
func (h *Handler) lineWebhook(c *gin.Context) {
	var (
		events []line.Event
		err    error
	)
	switch {
	case h.cfg.LineSecret != "":
		events, err = line.ParseRequest(h.cfg.LineSecret, c.Request)
		if errors.Is(err, line.ErrInvalidSignature) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
	case !h.cfg.Development:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "line channel secret is not configured"})
		return
	default:
		h.log.Warn().Msg("line signature check skipped: no channel secret")
		body, readErr := c.GetRawData()
		if readErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read body"})
			return
		}
		events, err = line.DecodeEvents(body)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook payload"})
		return
	}

	if h.cfg.Bot != nil {
		h.cfg.Bot.HandleEvents(c.Request.Context(), events)
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
