package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/rentals/internal/service"
)

const defaultTrendMonths = 6

type upsertInflationRequest struct {
	Year    int     `json:"year" binding:"required"`
	Month   int     `json:"month" binding:"required"`
	RatePct float64 `json:"rate_pct"`
	Source  string  `json:"source"`
}

func (h *Handler) snapshot(c *gin.Context) {
	year, month, ok := h.queryPeriod(c)
	if !ok {
		return
	}
	snapshot, err := h.svc.Analytics.Snapshot(c.Request.Context(), year, month)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) monthlyIncome(c *gin.Context) {
	year, month, ok := h.queryPeriod(c)
	if !ok {
		return
	}
	income, err := h.svc.Analytics.MonthlyIncome(c.Request.Context(), year, month)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, income)
}

func (h *Handler) incomeTrend(c *gin.Context) {
	months := defaultTrendMonths
	if raw := strings.TrimSpace(c.Query("months")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid months"})
			return
		}
		months = parsed
	}
	points, err := h.svc.Analytics.IncomeTrend(c.Request.Context(), months)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, points)
}

func (h *Handler) incomeByRoom(c *gin.Context) {
	year, month, ok := h.queryPeriod(c)
	if !ok {
		return
	}
	rows, err := h.svc.Analytics.IncomeByRoom(c.Request.Context(), year, month)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) occupancy(c *gin.Context) {
	report, err := h.svc.Analytics.Occupancy(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) collection(c *gin.Context) {
	year, month, ok := h.queryPeriod(c)
	if !ok {
		return
	}
	report, err := h.svc.Analytics.CollectionRate(c.Request.Context(), year, month)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) overdueItems(c *gin.Context) {
	items, err := h.svc.Analytics.OverdueItems(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) rentAdjustments(c *gin.Context) {
	items, err := h.svc.Inflation.GetAllRentAdjustments(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) rentAdjustment(c *gin.Context) {
	id, ok := pathID(c, "contractId")
	if !ok {
		return
	}
	adjustment, err := h.svc.Inflation.CalculateRentAdjustment(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, adjustment)
}

// listInflation returns every record, or the record of one period when both
// year and month are given.
func (h *Handler) listInflation(c *gin.Context) {
	ctx := c.Request.Context()
	if c.Query("year") != "" && c.Query("month") != "" {
		year, month, ok := h.queryPeriod(c)
		if !ok {
			return
		}
		idx, err := h.svc.Inflation.GetInflation(ctx, year, month)
		if err != nil {
			h.handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, idx)
		return
	}

	rows, err := h.svc.Inflation.GetAllInflation(ctx)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) upsertInflation(c *gin.Context) {
	var req upsertInflationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	idx, err := h.svc.Inflation.UpsertInflation(ctx, service.UpsertInflationInput{
		Year:    req.Year,
		Month:   req.Month,
		RatePct: req.RatePct,
		Source:  req.Source,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.svc.Analytics.InvalidateSnapshots(ctx)
	c.JSON(http.StatusOK, idx)
}

func (h *Handler) cumulativeInflation(c *gin.Context) {
	names := []string{"start_year", "start_month", "end_year", "end_month"}
	values := make([]int, len(names))
	for i, name := range names {
		v, err := queryInt(c, name)
		if err != nil || v == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
			return
		}
		values[i] = *v
	}
	result, err := h.svc.Inflation.CumulativeInflation(c.Request.Context(), values[0], values[1], values[2], values[3])
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
