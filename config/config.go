// ABOUTME: Configuration loader for the capacity planner service and CLI
// ABOUTME: Loads settings from environment variables (and an optional .env file) with defaults

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port               string
	CacheTTL           int      // seconds, sweep result cache
	CORSAllowedOrigins []string // allowed CORS origins (empty = any origin)

	// Scenario sources
	ScenarioFile string // TOML scenario loaded at startup (empty = built-in defaults)
	ScenarioDir  string // directory backing the file scenario store
	DatabaseURL  string // Postgres scenario store and run history (optional)
	RedisURL     string // shared sweep cache (optional)

	// Solver
	SolverTimeoutMS int // per-candidate solve limit in milliseconds
	SweepWorkers    int // concurrent candidate solves (0 = number of CPUs)
	MaxCandidates   int // largest sweep accepted over HTTP

	// Metrics
	MetricsEnabled bool

	// Rate Limiting
	RateLimitEnabled bool // Enable rate limiting (default: true)
	RateLimitWrite   int  // Requests per minute for config writes and sweeps (default: 10)
	RateLimitDefault int  // Requests per minute for all other endpoints (default: 100)
}

// SolverTimeout returns the per-candidate solve limit.
func (c *Config) SolverTimeout() time.Duration {
	return time.Duration(c.SolverTimeoutMS) * time.Millisecond
}

// Load reads configuration from the environment. Values from ENV_FILE (default .env)
// fill in variables that are not already set.
func Load() (*Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		CacheTTL:           getEnvInt("CACHE_TTL", 300),
		CORSAllowedOrigins: getEnvStringList("CORS_ALLOWED_ORIGINS"),

		ScenarioFile: os.Getenv("SCENARIO_FILE"),
		ScenarioDir:  getEnv("SCENARIO_DIR", "scenarios"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisURL:     os.Getenv("REDIS_URL"),

		SolverTimeoutMS: getEnvInt("SOLVER_TIMEOUT_MS", 5000),
		SweepWorkers:    getEnvInt("SWEEP_WORKERS", 0),
		MaxCandidates:   getEnvInt("MAX_CANDIDATES", 50),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),

		RateLimitEnabled: getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitWrite:   getEnvInt("RATE_LIMIT_WRITE", 10),
		RateLimitDefault: getEnvInt("RATE_LIMIT_DEFAULT", 100),
	}

	if cfg.SolverTimeoutMS < 1 {
		return nil, fmt.Errorf("SOLVER_TIMEOUT_MS must be positive, got %d", cfg.SolverTimeoutMS)
	}
	if cfg.SweepWorkers < 0 {
		return nil, fmt.Errorf("SWEEP_WORKERS must not be negative, got %d", cfg.SweepWorkers)
	}
	if cfg.MaxCandidates < 1 {
		return nil, fmt.Errorf("MAX_CANDIDATES must be positive, got %d", cfg.MaxCandidates)
	}

	// Validate rate limit values
	for _, rl := range []struct {
		name  string
		value int
	}{
		{"RATE_LIMIT_WRITE", cfg.RateLimitWrite},
		{"RATE_LIMIT_DEFAULT", cfg.RateLimitDefault},
	} {
		if rl.value < 1 || rl.value > 10000 {
			return nil, fmt.Errorf("%s must be between 1 and 10000, got %d", rl.name, rl.value)
		}
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvStringList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
