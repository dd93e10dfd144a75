package config

import (
	"fmt"
	"os"
	"time"
)

const defaultCacheTTL = 5 * time.Minute

// Config holds everything that varies between environments.
type Config struct {
	HTTPAddr string
	GRPCAddr string

	// DBDriver selects the store backend: "sqlite" (default) or "mysql".
	DBDriver string
	DBDSN    string

	// RedisAddr enables the product read cache when non-empty.
	RedisAddr string
	CacheTTL  time.Duration

	LogLevel string
}

// Load reads configuration from the environment with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:  getEnvOrDefault("HTTP_ADDR", ":8080"),
		GRPCAddr:  getEnvOrDefault("GRPC_ADDR", ":50051"),
		DBDriver:  getEnvOrDefault("DB_DRIVER", "sqlite"),
		DBDSN:     os.Getenv("DB_DSN"),
		RedisAddr: os.Getenv("REDIS_ADDR"),
		CacheTTL:  defaultCacheTTL,
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
	}

	switch cfg.DBDriver {
	case "sqlite":
		if cfg.DBDSN == "" {
			cfg.DBDSN = "ecom.db"
		}
	case "mysql":
		if cfg.DBDSN == "" {
			cfg.DBDSN = "root:root@tcp(localhost:3306)/ecom?parseTime=true"
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (want sqlite or mysql)", cfg.DBDriver)
	}

	if raw := os.Getenv("CACHE_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid CACHE_TTL %q: %w", raw, err)
		}
		cfg.CacheTTL = ttl
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
