package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/irfndi/exohunter-go/pkg/agents"
	"github.com/irfndi/exohunter-go/pkg/nasa"
)

type Config struct {
	Environment string           `mapstructure:"environment"`
	LogLevel    string           `mapstructure:"log_level"`
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Redis       RedisConfig      `mapstructure:"redis"`
	NASA        NASAConfig       `mapstructure:"nasa"`
	Agents      AgentsConfig     `mapstructure:"agents"`
	Telegram    TelegramConfig   `mapstructure:"telegram"`
	Security    SecurityConfig   `mapstructure:"security"`
	Telemetry   TelemetryConfig  `mapstructure:"telemetry"`
	LightCurve  LightCurveConfig `mapstructure:"lightcurve"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	ReadTimeout    string   `mapstructure:"read_timeout"`
	WriteTimeout   string   `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	DatabaseURL     string `mapstructure:"database_url"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime string `mapstructure:"conn_max_idle_time"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// NASAConfig points at the Exoplanet Archive TAP service.
type NASAConfig struct {
	TAPURL            string  `mapstructure:"tap_url"`
	Timeout           int     `mapstructure:"timeout"`
	MaxRetries        int     `mapstructure:"max_retries"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
	CacheTTL          string  `mapstructure:"cache_ttl"`
	UserAgent         string  `mapstructure:"user_agent"`
}

// AgentsConfig points at the external AI analysis backend.
type AgentsConfig struct {
	ServiceURL string `mapstructure:"service_url"`
	Timeout    int    `mapstructure:"timeout"`
	MaxRetries int    `mapstructure:"max_retries"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

type SecurityConfig struct {
	JWTSecret       string `mapstructure:"jwt_secret" json:"-" yaml:"-"`
	JWTExpiry       string `mapstructure:"jwt_expiry"`
	BcryptCost      int    `mapstructure:"bcrypt_cost"`
	AdminAPIKeyHash string `mapstructure:"admin_api_key_hash" json:"-" yaml:"-"`
}

type TelemetryConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	Exporter       string  `mapstructure:"exporter"`
	OTLPEndpoint   string  `mapstructure:"otlp_endpoint"`
	ServiceName    string  `mapstructure:"service_name"`
	ServiceVersion string  `mapstructure:"service_version"`
	SampleRate     float64 `mapstructure:"sample_rate"`
	LogLevel       string  `mapstructure:"log_level"`
}

// LightCurveConfig bounds the synthesizer and upload endpoints.
type LightCurveConfig struct {
	MaxUploadMB        int     `mapstructure:"max_upload_mb"`
	MaxSamples         int     `mapstructure:"max_samples"`
	SmoothWindow       int     `mapstructure:"smooth_window"`
	NotifySignificance float64 `mapstructure:"notify_significance"`
}

func (c NASAConfig) GetTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

func (c NASAConfig) GetCacheTTL() time.Duration {
	ttl, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 24 * time.Hour
	}
	return ttl
}

func (c AgentsConfig) GetTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// ClientOptions converts the section into agents client options.
func (c AgentsConfig) ClientOptions() agents.ClientOptions {
	return agents.ClientOptions{
		ServiceURL: c.ServiceURL,
		Timeout:    c.GetTimeout(),
		MaxRetries: c.MaxRetries,
	}
}

// ClientOptions converts the section into archive client options.
func (c NASAConfig) ClientOptions() nasa.ClientOptions {
	return nasa.ClientOptions{
		TAPURL:            c.TAPURL,
		Timeout:           c.GetTimeout(),
		MaxRetries:        c.MaxRetries,
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
		UserAgent:         c.UserAgent,
	}
}

func (c SecurityConfig) GetJWTExpiry() time.Duration {
	d, err := time.ParseDuration(c.JWTExpiry)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// MaxUploadBytes returns the upload limit in bytes.
func (c LightCurveConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set default values
	setDefaults(v)

	// Enable environment variable support
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind secrets to their conventional names
	bindings := map[string]string{
		"security.jwt_secret":         "JWT_SECRET",
		"security.admin_api_key_hash": "ADMIN_API_KEY_HASH",
		"telegram.bot_token":          "TELEGRAM_BOT_TOKEN",
		"telegram.chat_id":            "TELEGRAM_CHAT_ID",
		"agents.service_url":          "AGENTS_SERVICE_URL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s environment variable: %w", env, err)
		}
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks cross-field constraints that defaults cannot guarantee.
func (c *Config) Validate() error {
	if c.Environment != "development" && c.Environment != "test" && c.Security.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required in non-development environments")
	}

	if c.Security.JWTExpiry != "" {
		if _, err := time.ParseDuration(c.Security.JWTExpiry); err != nil {
			return fmt.Errorf("invalid JWT expiry duration: %w", err)
		}
	}

	if c.Security.BcryptCost < bcrypt.MinCost || c.Security.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost must be between %d and %d, got %d",
			bcrypt.MinCost, bcrypt.MaxCost, c.Security.BcryptCost)
	}

	if c.Security.AdminAPIKeyHash != "" {
		if _, err := bcrypt.Cost([]byte(c.Security.AdminAPIKeyHash)); err != nil {
			return fmt.Errorf("admin API key hash is not a bcrypt hash: %w", err)
		}
	}

	if c.NASA.CacheTTL != "" {
		if _, err := time.ParseDuration(c.NASA.CacheTTL); err != nil {
			return fmt.Errorf("invalid NASA cache TTL: %w", err)
		}
	}
	if c.NASA.RequestsPerSecond <= 0 || c.NASA.Burst < 1 {
		return fmt.Errorf("NASA rate limit must be positive, got %v/s burst %d", c.NASA.RequestsPerSecond, c.NASA.Burst)
	}

	if c.LightCurve.MaxUploadMB <= 0 {
		return fmt.Errorf("lightcurve.max_upload_mb must be positive, got %d", c.LightCurve.MaxUploadMB)
	}
	if c.LightCurve.MaxSamples <= 0 {
		return fmt.Errorf("lightcurve.max_samples must be positive, got %d", c.LightCurve.MaxSamples)
	}

	switch c.Telemetry.Exporter {
	case "otlp", "stdout":
	default:
		return fmt.Errorf("unknown telemetry exporter %q", c.Telemetry.Exporter)
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	// Environment
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")

	// Server
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.read_timeout", "60s")
	v.SetDefault("server.write_timeout", "60s")

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "exohunter")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.database_url", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "300s")
	v.SetDefault("database.conn_max_idle_time", "60s")

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// NASA Exoplanet Archive
	v.SetDefault("nasa.tap_url", "https://exoplanetarchive.ipac.caltech.edu/TAP/sync")
	v.SetDefault("nasa.timeout", 30)
	v.SetDefault("nasa.max_retries", 3)
	v.SetDefault("nasa.requests_per_second", 2.0)
	v.SetDefault("nasa.burst", 4)
	v.SetDefault("nasa.cache_ttl", "24h")
	v.SetDefault("nasa.user_agent", "ExoplanetsHunter/1.0")

	// AI agents backend
	v.SetDefault("agents.service_url", "http://localhost:8000")
	v.SetDefault("agents.timeout", 120)
	v.SetDefault("agents.max_retries", 1)

	// Telegram
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", 0)

	// Security
	v.SetDefault("security.jwt_secret", "")
	v.SetDefault("security.jwt_expiry", "24h")
	v.SetDefault("security.bcrypt_cost", 12)
	v.SetDefault("security.admin_api_key_hash", "")

	// Telemetry
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.exporter", "otlp")
	v.SetDefault("telemetry.otlp_endpoint", "http://localhost:4318")
	v.SetDefault("telemetry.service_name", "exohunter-go")
	v.SetDefault("telemetry.service_version", "1.0.0")
	v.SetDefault("telemetry.sample_rate", 1.0)
	v.SetDefault("telemetry.log_level", "info")

	// Light curves
	v.SetDefault("lightcurve.max_upload_mb", 50)
	v.SetDefault("lightcurve.max_samples", 200000)
	v.SetDefault("lightcurve.smooth_window", 5)
	v.SetDefault("lightcurve.notify_significance", 7.0)
}
