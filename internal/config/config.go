package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the main config struct
type Config struct {
	Environment string           `yaml:"environment" env:"ENVIRONMENT" env-default:"production" env-description:"Environment name"`
	Secret      string           `yaml:"secret" env:"SECRET" env-default:"" env-description:"Secret key for JWT token signing and validation"`
	Verbose     string           `yaml:"verbose" env:"VERBOSE" env-default:"info" env-description:"Verbose mode for debug output"`
	Database    DatabaseConfig   `yaml:"database"`
	API         APIConfig        `yaml:"api"`
	Auth        AuthConfig       `yaml:"auth"`
	Captcha     CaptchaConfig    `yaml:"captcha"`
	Moderation  ModerationConfig `yaml:"moderation"`
	Stats       StatsConfig      `yaml:"stats"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	Telegram    TelegramConfig   `yaml:"telegram"`
	Proxy       ProxyConfig      `yaml:"proxy"`
}

// API config
type APIConfig struct {
	Host           string        `yaml:"host" env:"API_HOST" env-default:"localhost" env-description:"API host address to bind to"`
	Port           int           `yaml:"port" env:"API_PORT" env-default:"8080" env-description:"API port to bind to"`
	Timeout        time.Duration `yaml:"timeout" env:"API_TIMEOUT" env-default:"15s" env-description:"Request handling timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout" env:"API_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"API_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env:"API_IDLE_TIMEOUT" env-default:"15s"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"API_ALLOWED_ORIGINS" env-default:"*" env-description:"CORS allowed origins"`
	RateLimit      float64       `yaml:"rate_limit" env:"API_RATE_LIMIT" env-default:"20" env-description:"Requests per second per caller, 0 disables limiting"`
	RateBurst      int           `yaml:"rate_burst" env:"API_RATE_BURST" env-default:"40"`
}

// SQLite, PostgreSQL or MySQL config
type DatabaseConfig struct {
	// Driver is the database driver to use. Supported drivers are "sqlite3", "postgres" and "mysql".
	Driver     string `yaml:"driver" env:"DATABASE_DRIVER" env-default:"sqlite3" env-description:"Database driver to use"`
	Connection string `yaml:"connection" env:"DATABASE_CONNECTION" env-default:":memory:" env-description:"Database connection string"`
}

// Identity provider config
type AuthConfig struct {
	TokenTTL time.Duration `yaml:"token_ttl" env:"AUTH_TOKEN_TTL" env-default:"24h" env-description:"Lifetime of issued access tokens"`
}

// Captcha config
type CaptchaConfig struct {
	// Provider is either "local" (digits image served by this API) or "recaptcha".
	Provider        string        `yaml:"provider" env:"CAPTCHA_PROVIDER" env-default:"local"`
	Length          int           `yaml:"length" env:"CAPTCHA_LENGTH" env-default:"5"`
	Width           int           `yaml:"width" env:"CAPTCHA_WIDTH" env-default:"240"`
	Height          int           `yaml:"height" env:"CAPTCHA_HEIGHT" env-default:"80"`
	Expiration      time.Duration `yaml:"expiration" env:"CAPTCHA_EXPIRATION" env-default:"10m"`
	RecaptchaSecret string        `yaml:"recaptcha_secret" env:"CAPTCHA_RECAPTCHA_SECRET" env-default:""`
}

// Moderation config
type ModerationConfig struct {
	WarningThreshold int    `yaml:"warning_threshold" env:"MODERATION_WARNING_THRESHOLD" env-default:"3" env-description:"Warnings after which a user is banned"`
	BanReason        string `yaml:"ban_reason" env:"MODERATION_BAN_REASON" env-default:"automatic: 3 violations"`
	MaxMessageLength int    `yaml:"max_message_length" env:"MODERATION_MAX_MESSAGE_LENGTH" env-default:"1000"`
}

// Statistics config
type StatsConfig struct {
	CacheTTL            time.Duration `yaml:"cache_ttl" env:"STATS_CACHE_TTL" env-default:"30s"`
	TopLimit            int           `yaml:"top_limit" env:"STATS_TOP_LIMIT" env-default:"10"`
	DefaultResponseTime int           `yaml:"default_response_time" env:"STATS_DEFAULT_RESPONSE_TIME" env-default:"45" env-description:"Reported average response time (minutes) when no data exists"`
}

// InfluxDB metrics config, metrics are disabled when the URL is empty
type MetricsConfig struct {
	InfluxURL    string `yaml:"influx_url" env:"METRICS_INFLUX_URL" env-default:""`
	InfluxToken  string `yaml:"influx_token" env:"METRICS_INFLUX_TOKEN" env-default:""`
	InfluxOrg    string `yaml:"influx_org" env:"METRICS_INFLUX_ORG" env-default:""`
	InfluxBucket string `yaml:"influx_bucket" env:"METRICS_INFLUX_BUCKET" env-default:"helpdesk"`
}

// Telegram config, used to notify moderators about automatic bans
type TelegramConfig struct {
	Token  string `yaml:"token" env:"TELEGRAM_TOKEN" env-default:"" env-description:"Telegram bot token"`
	ChatID int64  `yaml:"chat_id" env:"TELEGRAM_CHAT_ID" env-default:"0" env-description:"Moderators chat"`
}

// SOCKS5 proxy for outgoing requests
type ProxyConfig struct {
	Address  string `yaml:"address" env:"PROXY_ADDRESS" env-default:""`
	Port     int    `yaml:"port" env:"PROXY_PORT" env-default:"0"`
	Username string `yaml:"username" env:"PROXY_USERNAME" env-default:""`
	Password string `yaml:"password" env:"PROXY_PASSWORD" env-default:""`
}

// ConfigError - config loading error
type ConfigError struct {
	Message string
}

// Error - implementation of the error interface
func (e *ConfigError) Error() string {
	return e.Message
}

// MustLoadConfig reads the yaml file at CONFIG_PATH (config.yml by default),
// environment variables override the file.
func MustLoadConfig() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yml"
	}

	// Without a config file fall back to the environment only
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if os.Getenv("CONFIG_PATH") != "" {
			return nil, &ConfigError{
				Message: fmt.Sprintf("Config file does not exist: %s", configPath),
			}
		}
		return LoadFromEnv()
	}

	var config Config

	if err := cleanenv.ReadConfig(configPath, &config); err != nil {
		return nil, &ConfigError{
			Message: fmt.Sprintf("Cannot read config file: %s", err),
		}
	}

	return &config, nil
}

// LoadFromEnv builds the config from environment variables and defaults.
func LoadFromEnv() (*Config, error) {
	var config Config

	if err := cleanenv.ReadEnv(&config); err != nil {
		return nil, &ConfigError{
			Message: fmt.Sprintf("Cannot read environment: %s", err),
		}
	}

	return &config, nil
}
