package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/rentals/internal/model"
	"github.com/nurpe/rentals/internal/repository"
	"github.com/nurpe/rentals/internal/service"
)

type createContractRequest struct {
	RoomID        string  `json:"room_id" binding:"required"`
	TenantID      string  `json:"tenant_id" binding:"required"`
	StartDate     string  `json:"start_date" binding:"required"`
	EndDate       string  `json:"end_date" binding:"required"`
	RentAmountTHB float64 `json:"rent_amount_thb"`
	DepositTHB    float64 `json:"deposit_thb"`
	Notes         *string `json:"notes"`
}

type updateContractRequest struct {
	StartDate     *string  `json:"start_date"`
	EndDate       *string  `json:"end_date"`
	RentAmountTHB *float64 `json:"rent_amount_thb"`
	DepositTHB    *float64 `json:"deposit_thb"`
	Notes         *string  `json:"notes"`
}

type renewContractRequest struct {
	StartDate     string  `json:"start_date" binding:"required"`
	EndDate       string  `json:"end_date" binding:"required"`
	RentAmountTHB float64 `json:"rent_amount_thb"`
	DepositTHB    float64 `json:"deposit_thb"`
	Notes         *string `json:"notes"`
}

type transitionRequest struct {
	Status      string `json:"status" binding:"required"`
	Reason      string `json:"reason"`
	TriggeredBy string `json:"triggered_by"`
}

func (h *Handler) listContracts(c *gin.Context) {
	var filter repository.ContractFilter
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := model.ContractStatus(strings.ToUpper(raw))
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		filter.Status = &status
	}
	var err error
	if filter.RoomID, err = queryUUID(c, "room_id"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room_id"})
		return
	}
	if filter.TenantID, err = queryUUID(c, "tenant_id"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tenant_id"})
		return
	}

	contracts, err := h.svc.Contracts.FindAll(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contracts)
}

func (h *Handler) listExpiringContracts(c *gin.Context) {
	days := h.cfg.ExpiryDays
	if raw := strings.TrimSpace(c.Query("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days"})
			return
		}
		days = parsed
	}
	contracts, err := h.svc.Contracts.FindExpiring(c.Request.Context(), days)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contracts)
}

func (h *Handler) createContract(c *gin.Context) {
	var req createContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	roomID, err := parseUUID(req.RoomID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room_id"})
		return
	}
	tenantID, err := parseUUID(req.TenantID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tenant_id"})
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date"})
		return
	}

	contract, err := h.svc.Contracts.Create(c.Request.Context(), service.CreateContractInput{
		RoomID:        roomID,
		TenantID:      tenantID,
		StartDate:     start,
		EndDate:       end,
		RentAmountTHB: req.RentAmountTHB,
		DepositTHB:    req.DepositTHB,
		Notes:         req.Notes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contract)
}

func (h *Handler) getContract(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	contract, err := h.svc.Contracts.FindByID(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (h *Handler) updateContract(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := parseOptionalDate(req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
		return
	}
	end, err := parseOptionalDate(req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date"})
		return
	}

	contract, err := h.svc.Contracts.Update(c.Request.Context(), id, service.UpdateContractInput{
		StartDate:     start,
		EndDate:       end,
		RentAmountTHB: req.RentAmountTHB,
		DepositTHB:    req.DepositTHB,
		Notes:         req.Notes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (h *Handler) deleteContract(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Contracts.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) transitionContract(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	triggeredBy := strings.TrimSpace(req.TriggeredBy)
	if triggeredBy == "" {
		triggeredBy = "api"
	}

	contract, err := h.svc.Contracts.TransitionStatus(c.Request.Context(), service.TransitionInput{
		ContractID:  id,
		Target:      model.ContractStatus(strings.ToUpper(strings.TrimSpace(req.Status))),
		Reason:      req.Reason,
		TriggeredBy: triggeredBy,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (h *Handler) renewContract(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req renewContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date"})
		return
	}

	contract, err := h.svc.Contracts.Renew(c.Request.Context(), id, service.RenewContractInput{
		StartDate:     start,
		EndDate:       end,
		RentAmountTHB: req.RentAmountTHB,
		DepositTHB:    req.DepositTHB,
		Notes:         req.Notes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contract)
}

func (h *Handler) generateDocument(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.svc.Documents.GenerateDocument(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) issueSigningLinks(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	links, err := h.svc.Signatures.IssueSigningLinks(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"links": links})
}

func (h *Handler) sendRentReminder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	sent, err := h.svc.Notifications.SendRentDueReminder(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": sent})
}
