package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/rentals/internal/model"
	"github.com/nurpe/rentals/internal/repository"
	"github.com/nurpe/rentals/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type createPaymentRequest struct {
	ContractID  string  `json:"contract_id" binding:"required"`
	PeriodYear  int     `json:"period_year" binding:"required"`
	PeriodMonth int     `json:"period_month" binding:"required"`
	AmountTHB   float64 `json:"amount_thb"`
	DueDate     *string `json:"due_date"`
	Notes       *string `json:"notes"`
}

type recordPaymentRequest struct {
	Amount   float64 `json:"amount" binding:"required"`
	PaidDate *string `json:"paid_date"`
	Notes    *string `json:"notes"`
}

func (h *Handler) listPayments(c *gin.Context) {
	var (
		filter repository.PaymentFilter
		err    error
	)
	if filter.ContractID, err = queryUUID(c, "contract_id"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract_id"})
		return
	}
	if filter.Year, err = queryInt(c, "year"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
		return
	}
	if filter.Month, err = queryInt(c, "month"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
		return
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := model.PaymentStatus(strings.ToUpper(raw))
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		filter.Status = &status
	}

	payments, err := h.svc.Payments.FindAll(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

func (h *Handler) createPayment(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	contractID, err := parseUUID(req.ContractID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract_id"})
		return
	}
	dueDate, err := parseOptionalDate(req.DueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid due_date"})
		return
	}

	ctx := c.Request.Context()
	payment, err := h.svc.Payments.Create(ctx, service.CreatePaymentInput{
		ContractID:  contractID,
		PeriodYear:  req.PeriodYear,
		PeriodMonth: req.PeriodMonth,
		AmountTHB:   req.AmountTHB,
		DueDate:     dueDate,
		Notes:       req.Notes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.svc.Analytics.InvalidateSnapshots(ctx)
	c.JSON(http.StatusCreated, payment)
}

func (h *Handler) getPayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	payment, err := h.svc.Payments.FindByID(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (h *Handler) recordPayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	paidDate, err := parseOptionalDate(req.PaidDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid paid_date"})
		return
	}

	ctx := c.Request.Context()
	payment, err := h.svc.Payments.RecordPayment(ctx, id, service.RecordPaymentInput{
		Amount:   req.Amount,
		PaidDate: paidDate,
		Notes:    req.Notes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.svc.Analytics.InvalidateSnapshots(ctx)
	c.JSON(http.StatusOK, payment)
}

func (h *Handler) markPaymentOverdue(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	payment, err := h.svc.Payments.MarkOverdue(ctx, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.svc.Analytics.InvalidateSnapshots(ctx)
	c.JSON(http.StatusOK, payment)
}

func (h *Handler) cancelPayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	payment, err := h.svc.Payments.Cancel(ctx, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.svc.Analytics.InvalidateSnapshots(ctx)
	c.JSON(http.StatusOK, payment)
}

func (h *Handler) exportPayments(c *gin.Context) {
	year, month, ok := h.queryPeriod(c)
	if !ok {
		return
	}
	result, err := h.svc.Reports.ExportLedger(c.Request.Context(), year, month)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, xlsxContentType, result.Content)
}
