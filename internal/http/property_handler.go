package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/rentals/internal/model"
	"github.com/nurpe/rentals/internal/repository"
	"github.com/nurpe/rentals/internal/service"
)

type buildingRequest struct {
	Name    string  `json:"name" binding:"required"`
	Address *string `json:"address"`
}

func (h *Handler) listBuildings(c *gin.Context) {
	buildings, err := h.svc.Properties.ListBuildings(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildings)
}

func (h *Handler) createBuilding(c *gin.Context) {
	var req buildingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	building, err := h.svc.Properties.CreateBuilding(c.Request.Context(), service.BuildingInput{
		Name:    req.Name,
		Address: req.Address,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, building)
}

func (h *Handler) getBuilding(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	building, err := h.svc.Properties.GetBuilding(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, building)
}

func (h *Handler) updateBuilding(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req buildingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	building, err := h.svc.Properties.UpdateBuilding(c.Request.Context(), id, service.BuildingInput{
		Name:    req.Name,
		Address: req.Address,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, building)
}

func (h *Handler) deleteBuilding(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Properties.DeleteBuilding(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type roomRequest struct {
	BuildingID  string   `json:"building_id" binding:"required"`
	RoomNumber  string   `json:"room_number" binding:"required"`
	Floor       *int     `json:"floor"`
	SizeSqm     *float64 `json:"size_sqm"`
	BaseRentTHB float64  `json:"base_rent_thb"`
	Status      string   `json:"status"`
	Description *string  `json:"description"`
}

type roomUpdateRequest struct {
	RoomNumber  *string  `json:"room_number"`
	Floor       *int     `json:"floor"`
	SizeSqm     *float64 `json:"size_sqm"`
	BaseRentTHB *float64 `json:"base_rent_thb"`
	Description *string  `json:"description"`
}

type roomStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) listRooms(c *gin.Context) {
	buildingID, err := queryUUID(c, "building_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid building_id"})
		return
	}
	filter := repository.RoomFilter{BuildingID: buildingID}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := model.RoomStatus(strings.ToUpper(raw))
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		filter.Status = &status
	}
	rooms, err := h.svc.Properties.ListRooms(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

func (h *Handler) listVacantRooms(c *gin.Context) {
	rooms, err := h.svc.Properties.ListVacantRooms(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

func (h *Handler) createRoom(c *gin.Context) {
	var req roomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	buildingID, err := parseUUID(req.BuildingID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid building_id"})
		return
	}
	room, err := h.svc.Properties.CreateRoom(c.Request.Context(), service.RoomInput{
		BuildingID:  buildingID,
		RoomNumber:  req.RoomNumber,
		Floor:       req.Floor,
		SizeSqm:     req.SizeSqm,
		BaseRentTHB: req.BaseRentTHB,
		Status:      model.RoomStatus(strings.ToUpper(strings.TrimSpace(req.Status))),
		Description: req.Description,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

func (h *Handler) getRoom(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	room, err := h.svc.Properties.GetRoom(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *Handler) updateRoom(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req roomUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	room, err := h.svc.Properties.UpdateRoom(c.Request.Context(), id, service.RoomUpdateInput{
		RoomNumber:  req.RoomNumber,
		Floor:       req.Floor,
		SizeSqm:     req.SizeSqm,
		BaseRentTHB: req.BaseRentTHB,
		Description: req.Description,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *Handler) updateRoomStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req roomStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status := model.RoomStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	room, err := h.svc.Properties.UpdateRoomStatus(c.Request.Context(), id, status)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *Handler) deleteRoom(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Properties.DeleteRoom(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type tenantRequest struct {
	Name       string  `json:"name" binding:"required"`
	Phone      string  `json:"phone" binding:"required"`
	Email      *string `json:"email"`
	IDCard     *string `json:"id_card"`
	LineUserID *string `json:"line_user_id"`
	Address    *string `json:"address"`
}

type lineLinkRequest struct {
	LineUserID string `json:"line_user_id" binding:"required"`
}

func (r tenantRequest) input() service.TenantInput {
	return service.TenantInput{
		Name:       r.Name,
		Phone:      r.Phone,
		Email:      r.Email,
		IDCard:     r.IDCard,
		LineUserID: r.LineUserID,
		Address:    r.Address,
	}
}

// listTenants also answers lookups by phone or LINE user id.
func (h *Handler) listTenants(c *gin.Context) {
	ctx := c.Request.Context()
	if phone := strings.TrimSpace(c.Query("phone")); phone != "" {
		tenant, err := h.svc.Properties.FindTenantByPhone(ctx, phone)
		if err != nil {
			h.handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, []*model.Tenant{tenant})
		return
	}
	if lineID := strings.TrimSpace(c.Query("line_user_id")); lineID != "" {
		tenant, err := h.svc.Properties.FindTenantByLineUserID(ctx, lineID)
		if err != nil {
			h.handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, []*model.Tenant{tenant})
		return
	}

	tenants, err := h.svc.Properties.ListTenants(ctx)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenants)
}

func (h *Handler) createTenant(c *gin.Context) {
	var req tenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tenant, err := h.svc.Properties.CreateTenant(c.Request.Context(), req.input())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tenant)
}

func (h *Handler) getTenant(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tenant, err := h.svc.Properties.GetTenant(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

func (h *Handler) updateTenant(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req tenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tenant, err := h.svc.Properties.UpdateTenant(c.Request.Context(), id, req.input())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

func (h *Handler) linkTenantLine(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req lineLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tenant, err := h.svc.Properties.LinkLineUser(c.Request.Context(), id, req.LineUserID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

func (h *Handler) deleteTenant(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Properties.DeleteTenant(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
