package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	Port     string
	LogLevel string

	// Persistence port
	StorageBackend string
	DatabaseDSN    string
	RunMigrations  bool
	RedisAddr      string
	RedisNamespace string

	// Empty disables event publishing.
	RabbitMQURL string

	// Newsletter and blog REST API
	BackendURL      string
	BackendToken    string
	UpstreamTimeout time.Duration

	CORSAllowOrigins []string
	AdminToken       string
	LoginPath        string
	PaymentDelay     time.Duration

	// Carts and checkout wizards held in memory
	MaxSessions    int
	SessionIdleTTL time.Duration
}

func Load() Config {
	adminToken := getenv("ADMIN_TOKEN", "")
	return Config{
		Port:     getenv("PORT", "8080"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		StorageBackend: strings.ToLower(getenv("STORAGE_BACKEND", BackendMemory)),
		DatabaseDSN:    getenv("DATABASE_DSN", ""),
		RunMigrations:  envBool("RUN_MIGRATIONS", true),
		RedisAddr:      getenv("REDIS_ADDR", ""),
		RedisNamespace: getenv("REDIS_NAMESPACE", "storefront"),

		RabbitMQURL: getenv("RABBITMQ_URL", ""),

		BackendURL:      getenv("BACKEND_URL", ""),
		BackendToken:    getenv("BACKEND_TOKEN", adminToken),
		UpstreamTimeout: parseDuration(getenv("UPSTREAM_TIMEOUT", "10s"), 10*time.Second),

		CORSAllowOrigins: splitCSV(getenv("CORS_ALLOW_ORIGINS", "*")),
		AdminToken:       adminToken,
		LoginPath:        getenv("LOGIN_PATH", "/login"),
		PaymentDelay:     parseDuration(getenv("PAYMENT_DELAY", "1500ms"), 1500*time.Millisecond),

		MaxSessions:    envInt("MAX_SESSIONS", 10000),
		SessionIdleTTL: parseDuration(getenv("SESSION_IDLE_TTL", "30m"), 30*time.Minute),
	}
}

// Validate reports every inconsistent setting at once.
func (c Config) Validate() error {
	var errs []error
	switch c.StorageBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseDSN == "" {
			errs = append(errs, errors.New("DATABASE_DSN is required for the postgres storage backend"))
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis storage backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend))
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("invalid PORT %q", c.Port))
	}
	if c.PaymentDelay < 0 {
		errs = append(errs, errors.New("PAYMENT_DELAY must not be negative"))
	}
	if c.UpstreamTimeout <= 0 {
		errs = append(errs, errors.New("UPSTREAM_TIMEOUT must be positive"))
	}
	if c.MaxSessions <= 0 {
		errs = append(errs, errors.New("MAX_SESSIONS must be positive"))
	}
	if c.SessionIdleTTL <= 0 {
		errs = append(errs, errors.New("SESSION_IDLE_TTL must be positive"))
	}
	if !strings.HasPrefix(c.LoginPath, "/") {
		errs = append(errs, fmt.Errorf("LOGIN_PATH %q must start with /", c.LoginPath))
	}
	return errors.Join(errs...)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func envInt(k string, def int) int {
	n, err := strconv.Atoi(getenv(k, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return n
}

func envBool(k string, def bool) bool {
	v, err := strconv.ParseBool(getenv(k, strconv.FormatBool(def)))
	if err != nil {
		return def
	}
	return v
}
