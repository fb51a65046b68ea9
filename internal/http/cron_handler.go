package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func (h *Handler) cronGeneratePayments(c *gin.Context) {
	year, month, ok := h.queryPeriod(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	result, err := h.svc.Payments.GenerateMonthlyPayments(ctx, year, month)
	if err != nil {
		h.handleError(c, err)
		return
	}
	overdue, err := h.svc.Payments.AutoMarkOverdue(ctx)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.svc.Analytics.InvalidateSnapshots(ctx)

	c.JSON(http.StatusOK, gin.H{
		"generated":           result.Created,
		"skipped":             result.Skipped,
		"auto_marked_overdue": overdue,
		"period":              fmt.Sprintf("%04d-%02d", year, month),
	})
}

func (h *Handler) cronReminders(c *gin.Context) {
	ctx := c.Request.Context()
	expiring, err := h.svc.Notifications.NotifyExpiringContracts(ctx)
	if err != nil {
		h.handleError(c, err)
		return
	}
	overdue, err := h.svc.Notifications.NotifyOverduePayments(ctx)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expiring_sent": expiring, "overdue_sent": overdue})
}

func (h *Handler) cronMarkExpiring(c *gin.Context) {
	days := h.cfg.ExpiryDays
	if raw := strings.TrimSpace(c.Query("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days"})
			return
		}
		days = parsed
	}
	moved, err := h.svc.Contracts.MarkExpiring(c.Request.Context(), days)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": moved, "days": days})
}
