package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Environment   string              `mapstructure:"environment"`
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security" validate:"required"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Payment       PaymentConfig       `mapstructure:"payment"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	TrustProxy        bool          `mapstructure:"trust_proxy"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"required,min=1m"`
	Source          string        `mapstructure:"source"`
}

type SecurityConfig struct {
	SessionSecret           string        `mapstructure:"session_secret" validate:"required,min=32"`
	SessionTTL              time.Duration `mapstructure:"session_ttl"`
	PlatformTokenTTL        time.Duration `mapstructure:"platform_token_ttl"`
	BCryptCost              int           `mapstructure:"bcrypt_cost" validate:"required,min=10,max=15"`
	CookieName              string        `mapstructure:"cookie_name"`
	SecureCookie            bool          `mapstructure:"secure_cookie"`
	VerificationCodeTTL     time.Duration `mapstructure:"verification_code_ttl"`
	VerificationMaxAttempts int           `mapstructure:"verification_max_attempts"`
}

type RateLimitConfig struct {
	Burst     int `mapstructure:"burst"`
	PerSecond int `mapstructure:"per_second"`
}

type PaymentConfig struct {
	Modes []PaymentModeConfig `mapstructure:"modes"`
}

type PaymentModeConfig struct {
	Name       string  `mapstructure:"name"`
	FeePercent float64 `mapstructure:"fee_percent"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

const (
	DefaultSessionTTL          = 7 * 24 * time.Hour
	DefaultPlatformTokenTTL    = time.Hour
	DefaultVerificationCodeTTL = 10 * time.Minute
	DefaultCookieName          = "gym_session"
)

// LoadConfigFromEnv builds the config from environment variables, reading an
// optional .env file first.
func LoadConfigFromEnv() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("APP_ENV", "production"),
		Server: ServerConfig{
			Port:              getEnvAsInt("HTTP_PORT", 8080),
			BaseURL:           getEnv("HTTP_BASE_URL", ""),
			AllowedOrigins:    getEnv("HTTP_ALLOWED_ORIGINS", "*"),
			TrustProxy:        getEnvAsBool("HTTP_TRUST_PROXY", false),
			ReadHeaderTimeout: getEnvAsDuration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvAsDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Source:          getEnv("DATABASE_URL", ""),
		},
		Security: SecurityConfig{
			SessionSecret:           getEnv("SESSION_SECRET", ""),
			SessionTTL:              getEnvAsDuration("SESSION_TTL", DefaultSessionTTL),
			PlatformTokenTTL:        getEnvAsDuration("PLATFORM_TOKEN_TTL", DefaultPlatformTokenTTL),
			BCryptCost:              getEnvAsInt("BCRYPT_COST", 12),
			CookieName:              getEnv("SESSION_COOKIE_NAME", DefaultCookieName),
			SecureCookie:            getEnvAsBool("SESSION_SECURE_COOKIE", true),
			VerificationCodeTTL:     getEnvAsDuration("VERIFICATION_CODE_TTL", DefaultVerificationCodeTTL),
			VerificationMaxAttempts: getEnvAsInt("VERIFICATION_MAX_ATTEMPTS", 5),
		},
		RateLimit: RateLimitConfig{
			Burst:     getEnvAsInt("RATE_LIMIT_BURST", 10),
			PerSecond: getEnvAsInt("RATE_LIMIT_PER_SECOND", 2),
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: getEnvAsBool("METRICS_ENABLED", true),
				Path:    getEnv("METRICS_PATH", "/metrics"),
			},
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
		Payment: PaymentConfig{
			Modes: parsePaymentModes(getEnv("PAYMENT_MODES", "cash:0,card:2.5,upi:0")),
		},
	}
	return cfg
}

// ApplyDefaults fills in zero values that have a sensible default.
func (c *Config) ApplyDefaults() {
	if c.Security.SessionTTL == 0 {
		c.Security.SessionTTL = DefaultSessionTTL
	}
	if c.Security.PlatformTokenTTL == 0 {
		c.Security.PlatformTokenTTL = DefaultPlatformTokenTTL
	}
	if c.Security.VerificationCodeTTL == 0 {
		c.Security.VerificationCodeTTL = DefaultVerificationCodeTTL
	}
	if c.Security.VerificationMaxAttempts == 0 {
		c.Security.VerificationMaxAttempts = 5
	}
	if c.Security.CookieName == "" {
		c.Security.CookieName = DefaultCookieName
	}
	if c.Security.BCryptCost == 0 {
		c.Security.BCryptCost = 12
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 10
	}
	if c.RateLimit.PerSecond == 0 {
		c.RateLimit.PerSecond = 2
	}
	if c.Observability.Metrics.Path == "" {
		c.Observability.Metrics.Path = "/metrics"
	}
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// parsePaymentModes reads "name:fee,name:fee".
func parsePaymentModes(raw string) []PaymentModeConfig {
	var modes []PaymentModeConfig
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, fee, _ := strings.Cut(part, ":")
		pct, err := strconv.ParseFloat(strings.TrimSpace(fee), 64)
		if err != nil {
			pct = 0
		}
		modes = append(modes, PaymentModeConfig{Name: strings.TrimSpace(name), FeePercent: pct})
	}
	return modes
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Payment.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("payment config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if len(c.SessionSecret) < 32 {
		return errors.New("session secret must be at least 32 characters")
	}
	if c.BCryptCost != 0 && (c.BCryptCost < 10 || c.BCryptCost > 15) {
		return errors.New("bcrypt_cost must be between 10 and 15")
	}
	if c.SessionTTL < 0 || c.VerificationCodeTTL < 0 {
		return errors.New("ttl values cannot be negative")
	}
	return nil
}

func (c *PaymentConfig) Validate() error {
	seen := make(map[string]bool, len(c.Modes))
	for _, m := range c.Modes {
		if m.Name == "" {
			return errors.New("payment mode name is required")
		}
		if seen[m.Name] {
			return fmt.Errorf("duplicate payment mode %s", m.Name)
		}
		seen[m.Name] = true
		if m.FeePercent < 0 || m.FeePercent > 100 {
			return fmt.Errorf("fee_percent for %s must be between 0 and 100", m.Name)
		}
	}
	return nil
}

// FeePercents returns the configured processing fee per payment mode.
func (c *PaymentConfig) FeePercents() map[string]decimal.Decimal {
	fees := make(map[string]decimal.Decimal, len(c.Modes))
	for _, m := range c.Modes {
		fees[m.Name] = decimal.NewFromFloat(m.FeePercent)
	}
	return fees
}
