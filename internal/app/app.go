// Package app wires configuration, storage and services into the pieces the
// binaries run.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/rentals/internal/ai"
	"github.com/nurpe/rentals/internal/auth"
	"github.com/nurpe/rentals/internal/bot"
	"github.com/nurpe/rentals/internal/cache"
	"github.com/nurpe/rentals/internal/config"
	"github.com/nurpe/rentals/internal/db"
	"github.com/nurpe/rentals/internal/excel"
	httphandler "github.com/nurpe/rentals/internal/http"
	"github.com/nurpe/rentals/internal/line"
	"github.com/nurpe/rentals/internal/model"
	"github.com/nurpe/rentals/internal/pdf"
	"github.com/nurpe/rentals/internal/queue"
	"github.com/nurpe/rentals/internal/repository"
	"github.com/nurpe/rentals/internal/service"
)

const lineTimeout = 10 * time.Second

type App struct {
	Config   *config.Config
	Log      zerolog.Logger
	DB       *gorm.DB
	Services httphandler.Services
	Tokens   *auth.SigningTokens
	Bot      *bot.Bot

	redis     *redis.Client
	publisher *queue.Publisher
}

// New connects to the database and builds every service. Redis and RabbitMQ
// are optional: without them snapshots are not cached and contract events
// are not published.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	database, err := db.New(cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	a := &App{Config: cfg, Log: log, DB: database}

	store := repository.NewStore(database)
	opts := []service.Option{service.WithLocation(cfg.Location), service.WithLogger(log)}

	var snapshots service.SnapshotCache
	a.redis, err = cache.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, snapshot cache disabled")
	}
	if rc := cache.New(a.redis); rc != nil {
		snapshots = rc
	}

	var events service.EventPublisher
	if cfg.Events.AMQPURL != "" {
		a.publisher = queue.NewPublisher(cfg.Events.AMQPURL, cfg.Events.Queue, log)
		events = a.publisher
	}

	renderer, err := pdf.NewGenerator(cfg.Rentals.PDFFontPath)
	if err != nil {
		return nil, fmt.Errorf("init pdf generator: %w", err)
	}

	lineClient, err := line.NewClient(cfg.Line.APIBase, cfg.Line.ChannelAccessToken, lineTimeout)
	if err != nil {
		return nil, err
	}
	var messenger service.Messenger
	if lineClient.Enabled() {
		messenger = lineClient
	} else {
		log.Warn().Msg("line access token not set, notifications disabled")
	}

	a.Tokens = auth.NewSigningTokens(cfg.Signing.Secret, cfg.Signing.TokenTTL)
	owner := model.Party{Name: cfg.Owner.Name, Address: cfg.Owner.Address, IDCard: cfg.Owner.IDCard}
	dueDay := cfg.Rentals.PaymentDueDay

	analytics := service.NewAnalyticsService(store, snapshots, cfg.Redis.TTL, cfg.Rentals.ExpiryWindowDays, opts...)
	contracts := service.NewContractService(store, events, opts...)
	inflation := service.NewInflationService(store, opts...)
	assistant := service.NewAssistantService(analytics, inflation, contracts, ai.NewClient(cfg.AI), opts...)

	a.Services = httphandler.Services{
		Properties:    service.NewPropertyService(store, opts...),
		Contracts:     contracts,
		Signatures:    service.NewSignatureService(store, a.Tokens, events, cfg.AppURL, opts...),
		Documents:     service.NewDocumentService(store, renderer, events, cfg.Rentals.DocumentsDir, owner, dueDay, opts...),
		Payments:      service.NewPaymentService(store, dueDay, opts...),
		Inflation:     inflation,
		Analytics:     analytics,
		Reports:       service.NewReportService(store, analytics, excel.NewGenerator(), opts...),
		Assistant:     assistant,
		Notifications: service.NewNotificationService(store, analytics, messenger, cfg.Line.OwnerUserIDs, dueDay, opts...),
	}
	a.Bot = bot.New(analytics, assistant, lineClient, cfg.Line.OwnerUserIDs, log)
	return a, nil
}

func (a *App) Router() *gin.Engine {
	handler := httphandler.NewHandler(a.Services, httphandler.Config{
		Tokens:      a.Tokens,
		Bot:         a.Bot,
		LineSecret:  a.Config.Line.ChannelSecret,
		Development: a.Config.IsDevelopment(),
		CronSecret:  a.Config.Rentals.CronSecret,
		ExpiryDays:  a.Config.Rentals.ExpiryWindowDays,
		Health:      a.ping,
	}, a.Log)

	return httphandler.NewRouter(handler, httphandler.RouterConfig{
		Environment:    a.Config.Environment,
		AllowedOrigins: a.Config.HTTP.CORSAllowedOrigins,
		DocumentsDir:   a.Config.Rentals.DocumentsDir,
	}, a.Log)
}

// Consumer reads contract events and hands them to the notification
// service. It returns nil when no broker is configured.
func (a *App) Consumer() *queue.Consumer {
	if a.Config.Events.AMQPURL == "" {
		return nil
	}
	return queue.NewConsumer(a.Config.Events.AMQPURL, a.Config.Events.Queue, a.Services.Notifications.HandleContractEvent, a.Log)
}

func (a *App) ping(ctx context.Context) error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (a *App) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.Log.Warn().Err(err).Msg("close event publisher")
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
