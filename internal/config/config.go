package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host               string
	Port               int
	CORSAllowedOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type SigningConfig struct {
	Secret   string
	TokenTTL time.Duration
}

type LineConfig struct {
	ChannelSecret      string
	ChannelAccessToken string
	APIBase            string
	OwnerUserIDs       []string
}

type AIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type EventsConfig struct {
	AMQPURL string
	Queue   string
}

type OwnerConfig struct {
	Name    string
	Address string
	IDCard  string
}

type RentalsConfig struct {
	PaymentDueDay    int
	ExpiryWindowDays int
	DocumentsDir     string
	PDFFontPath      string
	CronSecret       string
}

type Config struct {
	Environment string
	AppURL      string
	Location    *time.Location
	HTTP        HTTPConfig
	DB          DBConfig
	Signing     SigningConfig
	Line        LineConfig
	AI          AIConfig
	Redis       RedisConfig
	Events      EventsConfig
	Owner       OwnerConfig
	Rentals     RentalsConfig
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		AppURL:      v.GetString("APP_URL"),
		HTTP: HTTPConfig{
			Host:               v.GetString("HTTP_HOST"),
			Port:               v.GetInt("HTTP_PORT"),
			CORSAllowedOrigins: parseList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Signing: SigningConfig{
			Secret:   v.GetString("SIGNING_SECRET"),
			TokenTTL: v.GetDuration("SIGNING_TOKEN_TTL"),
		},
		Line: LineConfig{
			ChannelSecret:      v.GetString("LINE_CHANNEL_SECRET"),
			ChannelAccessToken: v.GetString("LINE_CHANNEL_ACCESS_TOKEN"),
			APIBase:            v.GetString("LINE_API_BASE"),
			OwnerUserIDs:       parseList(v.GetString("OWNER_LINE_IDS")),
		},
		AI: AIConfig{
			APIKey:  v.GetString("OPENAI_API_KEY"),
			Model:   v.GetString("OPENAI_MODEL"),
			BaseURL: v.GetString("OPENAI_BASE_URL"),
			Timeout: v.GetDuration("AI_TIMEOUT"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			TTL:      v.GetDuration("CACHE_TTL"),
		},
		Events: EventsConfig{
			AMQPURL: v.GetString("AMQP_URL"),
			Queue:   v.GetString("EVENTS_QUEUE"),
		},
		Owner: OwnerConfig{
			Name:    v.GetString("OWNER_NAME"),
			Address: v.GetString("OWNER_ADDRESS"),
			IDCard:  v.GetString("OWNER_ID_CARD"),
		},
		Rentals: RentalsConfig{
			PaymentDueDay:    v.GetInt("PAYMENT_DUE_DAY"),
			ExpiryWindowDays: v.GetInt("EXPIRY_WINDOW_DAYS"),
			DocumentsDir:     v.GetString("DOCUMENTS_DIR"),
			PDFFontPath:      v.GetString("PDF_FONT_PATH"),
			CronSecret:       v.GetString("CRON_SECRET"),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if cfg.AppURL == "" {
		cfg.AppURL = fmt.Sprintf("http://localhost:%d", cfg.HTTP.Port)
	}
	cfg.AppURL = strings.TrimRight(cfg.AppURL, "/")
	if cfg.Signing.TokenTTL == 0 {
		cfg.Signing.TokenTTL = 72 * time.Hour
	}
	if cfg.Line.APIBase == "" {
		cfg.Line.APIBase = "https://api.line.me"
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "gpt-4o-mini"
	}
	if cfg.AI.BaseURL == "" {
		cfg.AI.BaseURL = "https://api.openai.com"
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 15 * time.Second
	}
	if cfg.Redis.TTL == 0 {
		cfg.Redis.TTL = 5 * time.Minute
	}
	if cfg.Events.Queue == "" {
		cfg.Events.Queue = "contract.events"
	}
	if cfg.Owner.Name == "" {
		cfg.Owner.Name = "Property Owner"
	}
	if cfg.Rentals.PaymentDueDay == 0 {
		cfg.Rentals.PaymentDueDay = 5
	}
	if cfg.Rentals.ExpiryWindowDays == 0 {
		cfg.Rentals.ExpiryWindowDays = 30
	}
	if cfg.Rentals.DocumentsDir == "" {
		cfg.Rentals.DocumentsDir = "./data/contracts"
	}

	tz := v.GetString("TIMEZONE")
	if tz == "" {
		tz = "Asia/Bangkok"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}
	cfg.Location = loc

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Signing.Secret == "" {
		return fmt.Errorf("SIGNING_SECRET is required")
	}
	if cfg.Rentals.PaymentDueDay < 1 || cfg.Rentals.PaymentDueDay > 28 {
		return fmt.Errorf("PAYMENT_DUE_DAY must be between 1 and 28")
	}
	return nil
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
