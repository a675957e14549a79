package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// APIConfig holds the runtime configuration of the credits API.
type APIConfig struct {
	App      AppSettings
	HTTP     HTTPSettings
	Log      LogSettings
	Database DatabaseSettings
	Events   EventSettings
}

// ConsultaConfig holds the runtime configuration of the consultation web app.
type ConsultaConfig struct {
	App        AppSettings
	HTTP       HTTPSettings
	Log        LogSettings
	CreditsAPI CreditsAPISettings
	Query      QuerySettings
	Session    SessionSettings
	RateLimit  RateLimitSettings
}

type AppSettings struct {
	Name        string
	Version     string
	Environment string
}

type HTTPSettings struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type LogSettings struct {
	Level string
}

type DatabaseSettings struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	RunMigrations   bool
}

type EventSettings struct {
	Enabled    bool
	RedisURL   string
	Stream     string
	MaxLen     int64
	AuditTrail bool
}

type CreditsAPISettings struct {
	BaseURL         string
	LogBodies       bool
	MaxBodySize     int
	MaxConnsPerHost int
}

type QuerySettings struct {
	Timeout        time.Duration
	OrderingPolicy string
	PageSize       int
}

type SessionSettings struct {
	Secret     string
	TTL        time.Duration
	CookieName string
	Secure     bool
}

type RateLimitSettings struct {
	RPS             float64
	Burst           int
	CleanupInterval time.Duration
}

// LoadAPI resolves the credits API configuration from the environment,
// reading a .env file first when one exists. Process variables win.
func LoadAPI() (APIConfig, error) {
	_ = godotenv.Load()

	cfg := APIConfig{
		App:  loadApp("creditos-api"),
		HTTP: loadHTTP(8080),
		Log:  LogSettings{Level: getEnv("LOG_LEVEL", "info")},
		Database: DatabaseSettings{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Database:        getEnv("DB_NAME", "creditos"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			RunMigrations:   getEnvAsBool("DB_RUN_MIGRATIONS", true),
		},
		Events: EventSettings{
			Enabled:    getEnvAsBool("EVENTS_ENABLED", true),
			RedisURL:   strings.TrimSpace(getEnv("REDIS_URL", "redis://localhost:6379/0")),
			Stream:     getEnv("EVENTS_STREAM", "consulta-creditos"),
			MaxLen:     int64(getEnvAsInt("EVENTS_MAX_LEN", 100000)),
			AuditTrail: getEnvAsBool("EVENTS_AUDIT_TRAIL", true),
		},
	}

	if cfg.Events.Enabled && cfg.Events.RedisURL == "" {
		return cfg, errors.New("invalid config: REDIS_URL is required when EVENTS_ENABLED=true")
	}
	if cfg.Database.Port <= 0 {
		return cfg, errors.New("invalid config: DB_PORT must be greater than 0")
	}

	return cfg, nil
}

// LoadConsulta resolves the consultation web app configuration.
func LoadConsulta() (ConsultaConfig, error) {
	_ = godotenv.Load()

	cfg := ConsultaConfig{
		App:  loadApp("consulta-creditos"),
		HTTP: loadHTTP(4200),
		Log:  LogSettings{Level: getEnv("LOG_LEVEL", "info")},
		CreditsAPI: CreditsAPISettings{
			BaseURL:         strings.TrimSpace(getEnv("CREDITOS_API_BASE_URL", "http://localhost:8080/api")),
			LogBodies:       getEnvAsBool("HTTP_LOG_BODIES", false),
			MaxBodySize:     getEnvAsInt("HTTP_LOG_MAX_BODY_SIZE", 16384),
			MaxConnsPerHost: getEnvAsInt("HTTP_MAX_CONNS_PER_HOST", 50),
		},
		Query: QuerySettings{
			Timeout:        getEnvAsDuration("QUERY_TIMEOUT", 30*time.Second),
			OrderingPolicy: strings.ToLower(strings.TrimSpace(getEnv("QUERY_ORDERING_POLICY", "sequence"))),
			PageSize:       getEnvAsInt("PAGE_SIZE", 10),
		},
		Session: SessionSettings{
			Secret:     strings.TrimSpace(os.Getenv("SESSION_SECRET")),
			TTL:        getEnvAsDuration("SESSION_TTL", 30*time.Minute),
			CookieName: getEnv("SESSION_COOKIE_NAME", "consulta_sessao"),
		},
		RateLimit: RateLimitSettings{
			RPS:             getEnvAsFloat("RATE_LIMIT_RPS", 2),
			Burst:           getEnvAsInt("RATE_LIMIT_BURST", 5),
			CleanupInterval: getEnvAsDuration("RATE_LIMIT_CLEANUP_INTERVAL", time.Minute),
		},
	}
	cfg.Session.Secure = getEnvAsBool("SESSION_COOKIE_SECURE", !cfg.App.IsLocal())

	if cfg.CreditsAPI.BaseURL == "" {
		return cfg, errors.New("invalid config: CREDITOS_API_BASE_URL must not be empty")
	}
	if cfg.Query.Timeout <= 0 {
		return cfg, errors.New("invalid config: QUERY_TIMEOUT must be greater than 0")
	}
	switch cfg.Query.OrderingPolicy {
	case "sequence", "last-arrival":
	default:
		return cfg, fmt.Errorf("invalid config: QUERY_ORDERING_POLICY must be 'sequence' or 'last-arrival', got %q", cfg.Query.OrderingPolicy)
	}
	if cfg.Query.PageSize <= 0 {
		return cfg, errors.New("invalid config: PAGE_SIZE must be greater than 0")
	}
	if cfg.Session.TTL <= 0 {
		return cfg, errors.New("invalid config: SESSION_TTL must be greater than 0")
	}
	if cfg.Session.Secret == "" {
		if !cfg.App.IsLocal() {
			return cfg, errors.New("invalid config: SESSION_SECRET is required outside local environments")
		}
		// Sessions do not survive a restart in local runs.
		cfg.Session.Secret = uuid.NewString()
	}

	return cfg, nil
}

// IsLocal reports whether the environment is a developer machine or a test run.
func (a AppSettings) IsLocal() bool {
	switch strings.ToLower(strings.TrimSpace(a.Environment)) {
	case "local", "dev", "development", "test":
		return true
	default:
		return false
	}
}

// Address returns the HTTP listen address in host:port form.
func (h HTTPSettings) Address() string {
	return fmt.Sprintf(":%d", h.Port)
}

func loadApp(defaultName string) AppSettings {
	return AppSettings{
		Name:        getEnv("APP_NAME", defaultName),
		Version:     getEnv("APP_VERSION", "1.0.0"),
		Environment: getEnv("APP_ENV", "local"),
	}
}

func loadHTTP(defaultPort int) HTTPSettings {
	return HTTPSettings{
		Port:            getEnvAsInt("APP_PORT", defaultPort),
		ReadTimeout:     getEnvAsDuration("HTTP_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", 40*time.Second),
		RequestTimeout:  getEnvAsDuration("HTTP_REQUEST_TIMEOUT", 35*time.Second),
		IdleTimeout:     getEnvAsDuration("HTTP_IDLE_TIMEOUT", 120*time.Second),
		ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
