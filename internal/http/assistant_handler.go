package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) aiSummary(c *gin.Context) {
	year, month, ok := h.queryPeriod(c)
	if !ok {
		return
	}
	resp, err := h.svc.Assistant.MonthlySummary(c.Request.Context(), year, month)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) aiAnomaly(c *gin.Context) {
	resp, err := h.svc.Assistant.DetectAnomalies(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) aiExpiry(c *gin.Context) {
	resp, err := h.svc.Assistant.ExpiryReminder(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) aiRentAdvice(c *gin.Context) {
	id, ok := pathID(c, "contractId")
	if !ok {
		return
	}
	resp, err := h.svc.Assistant.RentAdvice(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
