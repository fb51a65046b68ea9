package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/rentals/internal/auth"
	"github.com/nurpe/rentals/internal/bot"
	"github.com/nurpe/rentals/internal/http/middleware"
	"github.com/nurpe/rentals/internal/service"
)

type Services struct {
	Properties    *service.PropertyService
	Contracts     *service.ContractService
	Signatures    *service.SignatureService
	Documents     *service.DocumentService
	Payments      *service.PaymentService
	Inflation     *service.InflationService
	Analytics     *service.AnalyticsService
	Reports       *service.ReportService
	Assistant     *service.AssistantService
	Notifications *service.NotificationService
}

type Config struct {
	Tokens      *auth.SigningTokens
	Bot         *bot.Bot
	LineSecret  string
	Development bool
	CronSecret  string
	ExpiryDays  int
	// Health reports storage reachability for /healthz. Nil means always healthy.
	Health func(ctx context.Context) error
}

type Handler struct {
	svc Services
	cfg Config
	log zerolog.Logger
}

func NewHandler(svc Services, cfg Config, log zerolog.Logger) *Handler {
	if cfg.ExpiryDays <= 0 {
		cfg.ExpiryDays = 30
	}
	return &Handler{svc: svc, cfg: cfg, log: log}
}

func (h *Handler) Register(router *gin.Engine) {
	router.GET("/healthz", h.healthz)
	router.POST("/webhooks/line", h.lineWebhook)

	cron := router.Group("/cron")
	cron.Use(middleware.CronAuth(h.cfg.CronSecret))
	cron.POST("/generate-payments", h.cronGeneratePayments)
	cron.POST("/reminders", h.cronReminders)
	cron.POST("/mark-expiring", h.cronMarkExpiring)

	api := router.Group("/api/v1")

	buildings := api.Group("/buildings")
	buildings.GET("", h.listBuildings)
	buildings.POST("", h.createBuilding)
	buildings.GET("/:id", h.getBuilding)
	buildings.PUT("/:id", h.updateBuilding)
	buildings.DELETE("/:id", h.deleteBuilding)

	rooms := api.Group("/rooms")
	rooms.GET("", h.listRooms)
	rooms.GET("/vacant", h.listVacantRooms)
	rooms.POST("", h.createRoom)
	rooms.GET("/:id", h.getRoom)
	rooms.PUT("/:id", h.updateRoom)
	rooms.PATCH("/:id/status", h.updateRoomStatus)
	rooms.DELETE("/:id", h.deleteRoom)

	tenants := api.Group("/tenants")
	tenants.GET("", h.listTenants)
	tenants.POST("", h.createTenant)
	tenants.GET("/:id", h.getTenant)
	tenants.PUT("/:id", h.updateTenant)
	tenants.PUT("/:id/line", h.linkTenantLine)
	tenants.DELETE("/:id", h.deleteTenant)

	contracts := api.Group("/contracts")
	contracts.GET("", h.listContracts)
	contracts.POST("", h.createContract)
	contracts.GET("/expiring", h.listExpiringContracts)
	contracts.GET("/:id", h.getContract)
	contracts.PUT("/:id", h.updateContract)
	contracts.DELETE("/:id", h.deleteContract)
	contracts.POST("/:id/transition", h.transitionContract)
	contracts.POST("/:id/renew", h.renewContract)
	contracts.POST("/:id/generate", h.generateDocument)
	contracts.POST("/:id/signing-links", h.issueSigningLinks)
	contracts.GET("/:id/signatures", h.listSignatures)
	contracts.POST("/:id/signatures", h.signContract)
	contracts.POST("/:id/remind", h.sendRentReminder)

	signatures := api.Group("/signatures")
	signatures.DELETE("/:id", h.deleteSignature)
	signatures.GET("/:id/verify", h.verifySignature)

	payments := api.Group("/payments")
	payments.GET("", h.listPayments)
	payments.POST("", h.createPayment)
	payments.GET("/export", h.exportPayments)
	payments.GET("/:id", h.getPayment)
	payments.POST("/:id/record", h.recordPayment)
	payments.POST("/:id/overdue", h.markPaymentOverdue)
	payments.POST("/:id/cancel", h.cancelPayment)

	analytics := api.Group("/analytics")
	analytics.GET("/snapshot", h.snapshot)
	analytics.GET("/income", h.monthlyIncome)
	analytics.GET("/income-trend", h.incomeTrend)
	analytics.GET("/income-by-room", h.incomeByRoom)
	analytics.GET("/occupancy", h.occupancy)
	analytics.GET("/collection", h.collection)
	analytics.GET("/overdue", h.overdueItems)
	analytics.GET("/rent-adjustments", h.rentAdjustments)
	analytics.GET("/rent-adjustments/:contractId", h.rentAdjustment)
	analytics.GET("/inflation", h.listInflation)
	analytics.POST("/inflation", h.upsertInflation)
	analytics.GET("/inflation/cumulative", h.cumulativeInflation)

	ai := api.Group("/ai")
	ai.GET("/summary", h.aiSummary)
	ai.GET("/anomaly", h.aiAnomaly)
	ai.GET("/expiry", h.aiExpiry)
	ai.GET("/rent-advice/:contractId", h.aiRentAdvice)
}

func (h *Handler) healthz(c *gin.Context) {
	if h.cfg.Health != nil {
		if err := h.cfg.Health(c.Request.Context()); err != nil {
			h.log.Warn().Err(err).Msg("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// pathID parses a uuid path parameter, writing a 400 when it is malformed.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func parseUUID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, service.ErrInvalidInput
	}
	return id, nil
}

func queryUUID(c *gin.Context, name string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, service.ErrInvalidInput
	}
	return &id, nil
}

func queryInt(c *gin.Context, name string) (*int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, service.ErrInvalidInput
	}
	return &v, nil
}

// queryPeriod reads year and month from the query string. Missing values
// fall back to the current period.
func (h *Handler) queryPeriod(c *gin.Context) (int, int, bool) {
	year, err := queryInt(c, "year")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
		return 0, 0, false
	}
	month, err := queryInt(c, "month")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
		return 0, 0, false
	}
	curYear, curMonth := h.svc.Analytics.CurrentPeriod()
	if year == nil {
		year = &curYear
	}
	if month == nil {
		month = &curMonth
	}
	return *year, *month, true
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}

func parseOptionalDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := parseDate(*raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
