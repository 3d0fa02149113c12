// Package config loads service configuration from environment variables.
//
// Configuration is read once at startup and held immutably for the process
// lifetime. FromEnv validates required variables up front so a misconfigured
// deployment fails immediately instead of on the first request.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "agentdir/pkg/platform/strings"
)

// Server holds HTTP listener configuration.
type Server struct {
	Host  string
	Port  int
	Debug bool
}

// Addr returns the listen address in host:port form.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Database holds Postgres connection parameters.
type Database struct {
	User     string
	Password string
	Host     string
	Port     int
	Name     string
	SSLMode  string
}

// Auth holds the accepted API keys.
type Auth struct {
	APIKeys []string
}

// CORS holds the allowed origins for browser clients.
type CORS struct {
	AllowedOrigins []string
}

// RateLimit holds limiter configuration. The raw limit strings are parsed by
// the ratelimit package; config only carries them.
type RateLimit struct {
	Default   string
	Lookup    string
	Disabled  bool
	Allowlist []string
}

// Redis holds the optional Redis connection for distributed rate limiting.
// An empty URL means the in-memory limiter store is used.
type Redis struct {
	URL string
}

// Lookup holds the manager-lookup validation and query knobs.
type Lookup struct {
	MaxAgents        int
	StrictFormat     bool
	AllowEmptyAgents bool
	PaidOperationID  int64
}

// Config is the root configuration for the service.
type Config struct {
	Server    Server
	Database  Database
	Auth      Auth
	CORS      CORS
	RateLimit RateLimit
	Redis     Redis
	Lookup    Lookup

	ShutdownTimeout time.Duration
}

// requiredVars must be present and non-empty for the service to start.
var requiredVars = []string{"DB_USER", "DB_PASSWORD", "DB_HOST", "DB_DATABASE", "API_KEYS"}

// FromEnv builds a Config from environment variables.
// Missing required variables are reported together in a single error.
func FromEnv() (Config, error) {
	var missing []string
	for _, name := range requiredVars {
		if os.Getenv(name) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("Missing required environment variables: %s", strings.Join(missing, ", "))
	}

	dbPort, err := envInt("DB_PORT", 5432)
	if err != nil {
		return Config{}, err
	}
	port, err := envInt("PORT", 5000)
	if err != nil {
		return Config{}, err
	}
	maxAgents, err := envInt("MAX_AGENTS", 300)
	if err != nil {
		return Config{}, err
	}
	paidOperationID, err := envInt64("PAID_OPERATION_ID", 227)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Server: Server{
			Host:  envString("HOST", "0.0.0.0"),
			Port:  port,
			Debug: envBool("DEBUG"),
		},
		Database: Database{
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Host:     os.Getenv("DB_HOST"),
			Port:     dbPort,
			Name:     os.Getenv("DB_DATABASE"),
			SSLMode:  envString("DB_SSLMODE", "disable"),
		},
		Auth: Auth{
			APIKeys: envList("API_KEYS"),
		},
		CORS: CORS{
			AllowedOrigins: platformstrings.DedupeAndTrim(
				strings.Split(envString("ALLOWED_ORIGINS", "http://localhost:3000"), ","),
			),
		},
		RateLimit: RateLimit{
			Default:   envString("RATE_LIMIT", "100 per hour"),
			Lookup:    envString("MANAGERS_RATE_LIMIT", "5 per hour"),
			Disabled:  envBool("RATE_LIMIT_DISABLED"),
			Allowlist: envListLower("RATE_LIMIT_ALLOWLIST"),
		},
		Redis: Redis{
			URL: os.Getenv("REDIS_URL"),
		},
		Lookup: Lookup{
			MaxAgents:        maxAgents,
			StrictFormat:     envBool("STRICT_AGENT_FORMAT"),
			AllowEmptyAgents: envBool("ALLOW_EMPTY_AGENTS"),
			PaidOperationID:  paidOperationID,
		},
		ShutdownTimeout: 10 * time.Second,
	}

	if len(cfg.Auth.APIKeys) == 0 {
		return Config{}, fmt.Errorf("API_KEYS must contain at least one non-empty key")
	}

	return cfg, nil
}

func envString(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envInt(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, v)
	}
	return n, nil
}

func envInt64(name string, fallback int64) (int64, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, v)
	}
	return n, nil
}

func envBool(name string) bool {
	return strings.EqualFold(os.Getenv(name), "true")
}

// envList splits a comma-separated variable, trimming whitespace and
// dropping empties and duplicates.
func envList(name string) []string {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	return platformstrings.DedupeAndTrim(strings.Split(v, ","))
}

// envListLower is envList with case normalization, for values such as
// IP literals where case is not significant.
func envListLower(name string) []string {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	return platformstrings.DedupeAndTrimLower(strings.Split(v, ","))
}
