package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Persistence backends selectable through PERSISTENCE_BACKEND.
const (
	BackendFile        = "file"
	BackendSQLite      = "sqlite"
	BackendPostgres    = "postgres"
	BackendObjectStore = "objectstore"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// PersistenceConfig selects and configures where catalogs are saved.
type PersistenceConfig struct {
	Backend     string
	Dir         string // file backend
	Codec       string // file backend: json or msgpack
	SQLitePath  string
	TimeoutMS   int
	SeedOnEmpty bool
}

// Timeout bounds a single save or load call.
func (p PersistenceConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutMS) * time.Millisecond
}

// AuthConfig controls verification of identity-provider tokens.
type AuthConfig struct {
	SupabaseURL  string
	Disabled     bool
	DefaultOwner string
}

// JWKSURL is the Supabase endpoint publishing token signing keys.
func (a AuthConfig) JWKSURL() string {
	if a.SupabaseURL == "" {
		return ""
	}
	return strings.TrimRight(a.SupabaseURL, "/") + "/auth/v1/.well-known/jwks.json"
}

// TracingConfig mirrors the standard OTEL_* variables the exporter honours.
type TracingConfig struct {
	Disabled    bool
	ServiceName string
	Protocol    string // grpc or http/protobuf
	Endpoint    string
	Sampler     string
	SamplerArg  string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost     string
	Port        string
	Location    string
	LogLevel    string
	CORSOrigins string
	Persistence PersistenceConfig
	Auth        AuthConfig
	Database    DatabaseConfig
	MinIO       MinIOConfig
	Tracing     TracingConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:     getEnv("APP_HOST", "localhost:8080"),
		Port:        getEnv("PORT", "8080"),
		Location:    getEnv("TZ_LOCATION", "UTC"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:5173"),
		Persistence: PersistenceConfig{
			Backend:     getEnv("PERSISTENCE_BACKEND", BackendFile),
			Dir:         getEnv("CATALOG_DIR", "data/catalogs"),
			Codec:       getEnv("CATALOG_CODEC", "json"),
			SQLitePath:  getEnv("SQLITE_PATH", "data/catalog.db"),
			TimeoutMS:   getEnvInt("PERSIST_TIMEOUT_MS", 3000),
			SeedOnEmpty: getEnvBool("SEED_ON_EMPTY", false),
		},
		Auth: AuthConfig{
			SupabaseURL:  getEnv("SUPABASE_URL", ""),
			Disabled:     getEnvBool("AUTH_DISABLED", false),
			DefaultOwner: getEnv("DEFAULT_OWNER", "local"),
		},
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Tracing: TracingConfig{
			Disabled:    getEnvBool("OTEL_SDK_DISABLED", false),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "doccatalog"),
			Protocol:    getEnv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
			Sampler:     getEnv("OTEL_TRACES_SAMPLER", "parentbased_traceidratio"),
			SamplerArg:  getEnv("OTEL_TRACES_SAMPLER_ARG", "1.0"),
		},
	}
}

// TimeLocation resolves Location, falling back to UTC for unknown names.
func (c *AppConfig) TimeLocation() *time.Location {
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
