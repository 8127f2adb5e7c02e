package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Calendar CalendarConfig
	SLA      SLAConfig
	Events   EventsConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN             string
	ApplicationName string
	MaxConns        int32
	MinConns        int32
	RunMigrations   bool
	ConnMaxIdleSec  int32
	ConnMaxLifeSec  int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	URL      string
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	RefreshTokenTTLHours  int
	BcryptCost            int
}

// CalendarConfig configures the Microsoft Graph calendar integration.
type CalendarConfig struct {
	TenantID       string
	ClientID       string
	ClientSecret   string
	TokenURL       string
	GraphBaseURL   string
	Mailbox        string
	SupportAddress string
	TimeZone       string
	TimeoutSeconds int
}

// SLAConfig configures business hours and the overdue sweeper.
type SLAConfig struct {
	SweepSchedule      string
	SweepBatchSize     int
	BusinessHoursStart int
	BusinessHoursEnd   int
	BusinessTimeZone   string
	Holidays           []string
}

// EventsConfig controls where domain events are forwarded.
type EventsConfig struct {
	RedisStream  string
	StreamMaxLen int64
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	tenant := os.Getenv("MS_TENANT_ID")
	appName := getEnv("APP_NAME", "helpdesk-service")
	cfg := &Config{
		App: AppConfig{
			Name:                  appName,
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:             os.Getenv("POSTGRES_DSN"),
			ApplicationName: appName,
			MaxConns:        int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:        int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:   getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec:  int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec:  int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			URL:      os.Getenv("REDIS_URL"),
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
			PoolSize: getEnvAsInt("REDIS_POOL_SIZE", 10),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			RefreshTokenTTLHours:  getEnvAsInt("AUTH_REFRESH_TOKEN_TTL_HOURS", 168),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Calendar: CalendarConfig{
			TenantID:       tenant,
			ClientID:       os.Getenv("MS_CLIENT_ID"),
			ClientSecret:   os.Getenv("MS_CLIENT_SECRET"),
			TokenURL:       getEnv("MS_TOKEN_URL", fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", tenant)),
			GraphBaseURL:   getEnv("MS_GRAPH_BASE_URL", "https://graph.microsoft.com/v1.0"),
			Mailbox:        os.Getenv("CALENDAR_MAILBOX"),
			SupportAddress: getEnv("CALENDAR_SUPPORT_ADDRESS", "soporte@example.com"),
			TimeZone:       getEnv("CALENDAR_TIMEZONE", "America/Santiago"),
			TimeoutSeconds: getEnvAsInt("CALENDAR_TIMEOUT_SECONDS", 15),
		},
		SLA: SLAConfig{
			SweepSchedule:      getEnv("SLA_SWEEP_SCHEDULE", "@every 5m"),
			SweepBatchSize:     getEnvAsInt("SLA_SWEEP_BATCH_SIZE", 100),
			BusinessHoursStart: getEnvAsInt("SLA_BUSINESS_HOURS_START", 9),
			BusinessHoursEnd:   getEnvAsInt("SLA_BUSINESS_HOURS_END", 18),
			BusinessTimeZone:   getEnv("SLA_BUSINESS_TIMEZONE", "America/Santiago"),
			Holidays:           getEnvAsList("SLA_HOLIDAYS"),
		},
		Events: EventsConfig{
			RedisStream:  getEnv("EVENTS_REDIS_STREAM", "helpdesk:events"),
			StreamMaxLen: int64(getEnvAsInt("EVENTS_REDIS_STREAM_MAXLEN", 10000)),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field rules.
func (c *Config) Validate() error {
	var errs []error
	if c.SLA.BusinessHoursStart < 0 || c.SLA.BusinessHoursEnd > 24 || c.SLA.BusinessHoursStart >= c.SLA.BusinessHoursEnd {
		errs = append(errs, fmt.Errorf("invalid business hours %d-%d", c.SLA.BusinessHoursStart, c.SLA.BusinessHoursEnd))
	}
	if strings.TrimSpace(c.SLA.SweepSchedule) == "" {
		errs = append(errs, errors.New("SLA_SWEEP_SCHEDULE must not be empty"))
	}
	if c.Calendar.TimeoutSeconds <= 0 {
		errs = append(errs, errors.New("CALENDAR_TIMEOUT_SECONDS must be positive"))
	}
	if _, err := time.LoadLocation(c.Calendar.TimeZone); err != nil {
		errs = append(errs, fmt.Errorf("invalid CALENDAR_TIMEZONE: %w", err))
	}
	if _, err := time.LoadLocation(c.SLA.BusinessTimeZone); err != nil {
		errs = append(errs, fmt.Errorf("invalid SLA_BUSINESS_TIMEZONE: %w", err))
	}
	return errors.Join(errs...)
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Enabled reports whether enough credentials are present to call Microsoft Graph.
func (c CalendarConfig) Enabled() bool {
	return c.TenantID != "" && c.ClientID != "" && c.ClientSecret != "" && c.Mailbox != ""
}

// Timeout returns the per-request calendar timeout.
func (c CalendarConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
