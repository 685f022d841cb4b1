package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration
	DatabaseURL             string
	DBMaxConns              int32
	DBMinConns              int32
	JWTSecret               string
	JWTAccessTTL            time.Duration
	JWTRefreshTTL           time.Duration
	UsersFile               string
	CORSOrigins             []string
	RateLimitRPM            int
	AuthRateLimitRPM        int
	BlobRoot                string
	RetentionDefault        time.Duration
	RetentionOverrides      map[string]time.Duration
	SweepInterval           time.Duration
	SweepBatchSize          int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	overrides, err := parseRetentionOverrides(os.Getenv("RETENTION_OVERRIDES"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerPort:              getEnv("SERVER_PORT", "8080"),
		ServerReadHeaderTimeout: getDuration("SERVER_READ_HEADER_TIMEOUT", 15*time.Second),
		ServerWriteTimeout:      getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 30*time.Second),
		DatabaseURL:             strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:              int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:              int32(getInt("DB_MIN_CONNS", 2)),
		JWTSecret:               strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTAccessTTL:            getDuration("JWT_ACCESS_TTL", 15*time.Minute),
		JWTRefreshTTL:           getDuration("JWT_REFRESH_TTL", 168*time.Hour),
		UsersFile:               getEnv("USERS_FILE", "./users.json"),
		CORSOrigins:             splitCSV(getEnv("CORS_ORIGINS", "*")),
		RateLimitRPM:            getInt("RATE_LIMIT_RPM", 100),
		AuthRateLimitRPM:        getInt("AUTH_RATE_LIMIT_RPM", 10),
		BlobRoot:                getEnv("BLOB_ROOT", "./state/blobs"),
		RetentionDefault:        getDuration("RETENTION_DEFAULT", 30*24*time.Hour),
		RetentionOverrides:      overrides,
		SweepInterval:           getDuration("SWEEP_INTERVAL", 5*time.Minute),
		SweepBatchSize:          getInt("SWEEP_BATCH_SIZE", 100),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if strings.TrimSpace(c.BlobRoot) == "" {
		return fmt.Errorf("BLOB_ROOT cannot be empty")
	}

	if c.RetentionDefault <= 0 {
		return fmt.Errorf("RETENTION_DEFAULT must be positive")
	}

	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive")
	}

	if c.SweepBatchSize <= 0 {
		return fmt.Errorf("SWEEP_BATCH_SIZE must be positive")
	}

	return nil
}

// parseRetentionOverrides reads "type=duration" pairs, e.g.
// "account=2160h,thread=168h".
func parseRetentionOverrides(raw string) (map[string]time.Duration, error) {
	overrides := map[string]time.Duration{}
	for _, pair := range splitCSV(raw) {
		name, value, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("RETENTION_OVERRIDES entry %q must be type=duration", pair)
		}

		window, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("RETENTION_OVERRIDES entry %q: %w", pair, err)
		}

		overrides[strings.TrimSpace(name)] = window
	}

	return overrides, nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
