package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. POSBRIDGE_CRM_API_KEY
const EnvPrefix = "POSBRIDGE"

// Background executors for the webhook tail
const (
	ExecutorInProcess = "inprocess"
	ExecutorAsynq     = "asynq"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Redis     RedisConfig
	CRM       CRMConfig
	POS       POSConfig
	Catalog   CatalogConfig
	Order     OrderConfig
	Webhook   WebhookConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	TrustedProxies    []string
}

// RedisConfig holds Redis connection settings. Redis backs the receipt
// idempotency store and the asynq executor; it is optional.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// CRMConfig holds the CRM API client settings
type CRMConfig struct {
	BaseURL           string `validate:"required,url"`
	APIKey            string `validate:"required"`
	RequestsPerMinute int    `validate:"gte=1"`
	PageSize          int    `validate:"gte=1,lte=500"`
	PageDelay         time.Duration
	Timeout           time.Duration
}

// POSConfig holds the POS API client settings
type POSConfig struct {
	BaseURL    string `validate:"required,url"`
	Login      string `validate:"required"`
	Password   string `validate:"required"`
	LicenseKey string
	PageSize   int `validate:"gte=1,lte=1000"`
	PageDelay  time.Duration
	Timeout    time.Duration
}

// CatalogConfig holds catalog reconciliation settings
type CatalogConfig struct {
	// TaxCodes is a comma separated list applied to every good
	TaxCodes string
	// SyncSecret guards the manual sync trigger and the diagnostics endpoint
	SyncSecret string
	// SyncInterval enables periodic sync when positive
	SyncInterval   time.Duration
	SyncRunTimeout time.Duration
}

// OrderConfig holds the static parts of CRM orders created from receipts
type OrderConfig struct {
	BuyerName        string
	BuyerPhone       string
	BuyerEmail       string `validate:"omitempty,email"`
	SourceID         int64
	PaymentMethodID  int64
	FollowUpStatusID int64
	FollowUpClientID int64
	FollowUpDelay    time.Duration
}

// WebhookConfig holds POS webhook ingestion settings
type WebhookConfig struct {
	Secret           string
	RecentBufferSize int
	ReceiptTTL       time.Duration
	Executor         string `validate:"oneof=inprocess asynq"`
	Workers          int
	QueueSize        int
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	ExportInterval    time.Duration
}

// Load loads configuration from the environment, config.toml and .env.
// Priority (highest to lowest):
//  1. Environment variables with POSBRIDGE_ prefix (e.g., POSBRIDGE_CRM_API_KEY)
//  2. config.toml
//  3. .env in the working directory, when present
//  4. Built-in defaults
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		CRM: CRMConfig{
			BaseURL:           v.GetString("crm.base_url"),
			APIKey:            v.GetString("crm.api_key"),
			RequestsPerMinute: v.GetInt("crm.requests_per_minute"),
			PageSize:          v.GetInt("crm.page_size"),
			PageDelay:         v.GetDuration("crm.page_delay"),
			Timeout:           v.GetDuration("crm.timeout"),
		},
		POS: POSConfig{
			BaseURL:    v.GetString("pos.base_url"),
			Login:      v.GetString("pos.login"),
			Password:   v.GetString("pos.password"),
			LicenseKey: v.GetString("pos.license_key"),
			PageSize:   v.GetInt("pos.page_size"),
			PageDelay:  v.GetDuration("pos.page_delay"),
			Timeout:    v.GetDuration("pos.timeout"),
		},
		Catalog: CatalogConfig{
			TaxCodes:       v.GetString("catalog.tax_codes"),
			SyncSecret:     v.GetString("catalog.sync_secret"),
			SyncInterval:   v.GetDuration("catalog.sync_interval"),
			SyncRunTimeout: v.GetDuration("catalog.sync_run_timeout"),
		},
		Order: OrderConfig{
			BuyerName:        v.GetString("order.buyer_name"),
			BuyerPhone:       v.GetString("order.buyer_phone"),
			BuyerEmail:       v.GetString("order.buyer_email"),
			SourceID:         v.GetInt64("order.source_id"),
			PaymentMethodID:  v.GetInt64("order.payment_method_id"),
			FollowUpStatusID: v.GetInt64("order.followup_status_id"),
			FollowUpClientID: v.GetInt64("order.followup_client_id"),
			FollowUpDelay:    v.GetDuration("order.followup_delay"),
		},
		Webhook: WebhookConfig{
			Secret:           v.GetString("webhook.secret"),
			RecentBufferSize: v.GetInt("webhook.recent_buffer_size"),
			ReceiptTTL:       v.GetDuration("webhook.receipt_ttl"),
			Executor:         v.GetString("webhook.executor"),
			Workers:          v.GetInt("webhook.workers"),
			QueueSize:        v.GetInt("webhook.queue_size"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			ExportInterval:    v.GetDuration("telemetry.export_interval"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadDotEnv exports the variables of path into the process environment
// without overriding ones already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("error reading %s: %w", path, err)
	}
	return nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "posbridge"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// a manual catalog sync answers only when the run is over
		cfg.HTTP.WriteTimeout = 30 * time.Minute
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 64 << 10 // 64KB
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 300
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.CRM.RequestsPerMinute == 0 {
		cfg.CRM.RequestsPerMinute = 60
	}
	if cfg.CRM.PageSize == 0 {
		cfg.CRM.PageSize = 50
	}
	if cfg.CRM.PageDelay == 0 {
		cfg.CRM.PageDelay = time.Second
	}
	if cfg.CRM.Timeout == 0 {
		cfg.CRM.Timeout = 30 * time.Second
	}
	if cfg.POS.PageSize == 0 {
		cfg.POS.PageSize = 100
	}
	if cfg.POS.PageDelay == 0 {
		cfg.POS.PageDelay = 200 * time.Millisecond
	}
	if cfg.POS.Timeout == 0 {
		cfg.POS.Timeout = 30 * time.Second
	}
	if cfg.Catalog.SyncRunTimeout == 0 {
		cfg.Catalog.SyncRunTimeout = 30 * time.Minute
	}
	if cfg.Order.BuyerName == "" {
		cfg.Order.BuyerName = "POS customer"
	}
	if cfg.Order.FollowUpDelay == 0 {
		cfg.Order.FollowUpDelay = 5 * time.Second
	}
	if cfg.Webhook.RecentBufferSize == 0 {
		cfg.Webhook.RecentBufferSize = 50
	}
	if cfg.Webhook.ReceiptTTL == 0 {
		cfg.Webhook.ReceiptTTL = 72 * time.Hour
	}
	if cfg.Webhook.Executor == "" {
		cfg.Webhook.Executor = ExecutorInProcess
	}
	if cfg.Webhook.Workers == 0 {
		cfg.Webhook.Workers = 4
	}
	if cfg.Webhook.QueueSize == 0 {
		cfg.Webhook.QueueSize = 256
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "posbridge"
	}
	if cfg.Telemetry.ExportInterval == 0 {
		cfg.Telemetry.ExportInterval = 60 * time.Second
	}
}

// IsProduction reports whether the app runs in production
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Catalog.SyncInterval < 0 {
		return fmt.Errorf("catalog.sync_interval cannot be negative")
	}
	if c.Webhook.Executor == ExecutorAsynq && !c.Redis.Enabled {
		return fmt.Errorf("webhook.executor=asynq requires redis.enabled=true")
	}
	if c.Webhook.Workers < 0 || c.Webhook.QueueSize < 0 {
		return fmt.Errorf("webhook.workers and webhook.queue_size cannot be negative")
	}
	if c.Order.FollowUpDelay < 0 {
		return fmt.Errorf("order.followup_delay cannot be negative")
	}

	if c.IsProduction() {
		if c.Catalog.SyncSecret == "" {
			return fmt.Errorf("catalog.sync_secret is required in production")
		}
		if len(c.Catalog.SyncSecret) < 16 {
			return fmt.Errorf("catalog.sync_secret must be at least 16 characters in production")
		}
		if c.Webhook.Secret == "" {
			return fmt.Errorf("webhook.secret is required in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}
