// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetRateLimitRPS() float64
	GetRateLimitBurst() int
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinIOPublicBaseURL() string
	GetMinioBucketLeaseAttachments() string
	IsMinIOEnabled() bool
}

// SchedulerConfig provides settings for the asynq-backed job queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// SchemaConfig provides settings for schema capability resolution.
type SchemaConfig interface {
	GetSchemaProbeMode() string
	GetSchemaCapabilitiesFile() string
}

// MaintenanceConfig provides settings for the maintenance lifecycle.
type MaintenanceConfig interface {
	GetMaintenanceTransitionPolicy() string
	GetPhoneDefaultRegion() string
}

// DashboardConfig provides settings for the dashboard aggregator.
type DashboardConfig interface {
	GetDashboardExpiryWindowDays() int
}

// LeasesConfig provides settings for the leases module.
type LeasesConfig interface {
	GetMinIOMaxFileSize() int64
	GetPhoneDefaultRegion() string
}

const (
	// DatastorePostgres selects the pgx-backed datastore client.
	DatastorePostgres = "postgres"
	// DatastoreMemory selects the in-process datastore (local development only).
	DatastoreMemory = "memory"

	// ProbeModeStartup resolves schema capabilities once and caches them.
	ProbeModeStartup = "startup"
	// ProbeModePerWrite re-probes the target relation on every write.
	ProbeModePerWrite = "per_write"

	// TransitionPolicyAny accepts every maintenance status transition.
	TransitionPolicyAny = "any"
	// TransitionPolicyStrict enforces the explicit transition table.
	TransitionPolicyStrict = "strict"
)

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                         string
	HTTPAddr                    string
	DatabaseURL                 string
	DatastoreDriver             string
	RunMigrations               bool
	JWTAccessSecret             string
	CORSAllowAll                bool
	CORSOrigins                 []string
	CORSAllowCreds              bool
	RateLimitRPS                float64
	RateLimitBurst              int
	MinIOEndpoint               string
	MinIOAccessKey              string
	MinIOSecretKey              string
	MinIOUseSSL                 bool
	MinIOMaxFileSize            int64
	MinIOPublicBaseURL          string
	MinioBucketLeaseAttachments string
	RedisURL                    string
	RedisTLSInsecure            bool
	AsynqQueueName              string
	AsynqConcurrency            int
	SchemaProbeMode             string
	SchemaCapabilitiesFile      string
	MaintenanceTransitionPolicy string
	DashboardExpiryWindowDays   int
	PhoneDefaultRegion          string
}

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }
func (c *Config) GetRateLimitRPS() float64 { return c.RateLimitRPS }
func (c *Config) GetRateLimitBurst() int   { return c.RateLimitBurst }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string      { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string     { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string     { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool          { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64    { return c.MinIOMaxFileSize }
func (c *Config) GetMinIOPublicBaseURL() string { return c.MinIOPublicBaseURL }
func (c *Config) GetMinioBucketLeaseAttachments() string {
	return c.MinioBucketLeaseAttachments
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string        { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool  { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string  { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int   { return c.AsynqConcurrency }

// SchemaConfig implementation
func (c *Config) GetSchemaProbeMode() string        { return c.SchemaProbeMode }
func (c *Config) GetSchemaCapabilitiesFile() string { return c.SchemaCapabilitiesFile }

// MaintenanceConfig implementation
func (c *Config) GetMaintenanceTransitionPolicy() string { return c.MaintenanceTransitionPolicy }

// DashboardConfig implementation
func (c *Config) GetDashboardExpiryWindowDays() int { return c.DashboardExpiryWindowDays }

// LeasesConfig implementation
func (c *Config) GetPhoneDefaultRegion() string { return c.PhoneDefaultRegion }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                         getEnv("APP_ENV", "development"),
		HTTPAddr:                    getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:                 getEnv("DATABASE_URL", ""),
		DatastoreDriver:             strings.ToLower(getEnv("DATASTORE_DRIVER", DatastorePostgres)),
		RunMigrations:               strings.EqualFold(getEnv("RUN_MIGRATIONS", "true"), "true"),
		JWTAccessSecret:             getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:                corsAllowAll,
		CORSOrigins:                 corsOrigins,
		CORSAllowCreds:              strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RateLimitRPS:                mustFloat(getEnv("RATE_LIMIT_RPS", "20")),
		RateLimitBurst:              mustInt(getEnv("RATE_LIMIT_BURST", "40")),
		MinIOEndpoint:               getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:              getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:              getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:                 strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:            mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "26214400")),
		MinIOPublicBaseURL:          strings.TrimRight(getEnv("MINIO_PUBLIC_BASE_URL", ""), "/"),
		MinioBucketLeaseAttachments: getEnv("MINIO_BUCKET_LEASE_ATTACHMENTS", "lease-attachments"),
		RedisURL:                    getEnv("REDIS_URL", ""),
		RedisTLSInsecure:            strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:              getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:            mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		SchemaProbeMode:             strings.ToLower(getEnv("SCHEMA_PROBE_MODE", ProbeModeStartup)),
		SchemaCapabilitiesFile:      getEnv("SCHEMA_CAPABILITIES_FILE", ""),
		MaintenanceTransitionPolicy: strings.ToLower(getEnv("MAINTENANCE_TRANSITION_POLICY", TransitionPolicyAny)),
		DashboardExpiryWindowDays:   mustInt(getEnv("DASHBOARD_EXPIRY_WINDOW_DAYS", "60")),
		PhoneDefaultRegion:          strings.ToUpper(getEnv("PHONE_DEFAULT_REGION", "US")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DatastoreDriver {
	case DatastorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
	case DatastoreMemory:
		if strings.EqualFold(c.Env, "production") {
			return fmt.Errorf("DATASTORE_DRIVER=memory is not allowed in production")
		}
	default:
		return fmt.Errorf("unsupported DATASTORE_DRIVER %q", c.DatastoreDriver)
	}
	if c.JWTAccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if c.CORSAllowAll && c.CORSAllowCreds {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if c.SchemaProbeMode != ProbeModeStartup && c.SchemaProbeMode != ProbeModePerWrite {
		return fmt.Errorf("SCHEMA_PROBE_MODE must be %q or %q", ProbeModeStartup, ProbeModePerWrite)
	}
	if c.MaintenanceTransitionPolicy != TransitionPolicyAny && c.MaintenanceTransitionPolicy != TransitionPolicyStrict {
		return fmt.Errorf("MAINTENANCE_TRANSITION_POLICY must be %q or %q", TransitionPolicyAny, TransitionPolicyStrict)
	}
	if c.DashboardExpiryWindowDays < 1 {
		c.DashboardExpiryWindowDays = 60
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
