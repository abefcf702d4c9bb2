// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Storage     StorageConfig
	AWS         AWSConfig
	GCS         GCSConfig
	Azure       AzureConfig
	Geocoder    GeocoderConfig
	CORS        CORSConfig
	Tracing     TracingConfig
	Jobs        JobsConfig
	Admin       AdminConfig
}

type ServerConfig struct {
	Port             string
	Host             string
	ReadTimeout      int
	WriteTimeout     int
	IdleTimeout      int
	RateLimitEnabled bool
}

type DatabaseConfig struct {
	Driver       string // postgres or sqlite
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	SQLitePath   string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type JWTConfig struct {
	SecretKey      string
	AccessTokenTTL int // in hours
}

type StorageConfig struct {
	Driver        string // local, s3, gcs or azure
	LocalPath     string
	PublicBaseURL string
	MaxUploadSize int64 // in bytes
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	CloudFrontURL   string
}

type GCSConfig struct {
	Bucket string
}

type AzureConfig struct {
	ConnectionString string
	Container        string
}

type GeocoderConfig struct {
	Provider string // openstreetmap, mapquest or google
	APIKey   string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type TracingConfig struct {
	Enabled      bool
	ServiceName  string
	OTLPEndpoint string
	Insecure     bool
	SampleRatio  float64
}

type JobsConfig struct {
	AverageCostReconcileCron string
}

type AdminConfig struct {
	Name     string
	Email    string
	Password string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Port:             getEnv("SERVER_PORT", "5000"),
			Host:             getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:      getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout:     getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:      getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
			RateLimitEnabled: getEnvAsBool("RATE_LIMIT_ENABLED", true),
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "postgres"),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "coopmarket"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			SQLitePath:   getEnv("DB_SQLITE_PATH", "coopmarket.db"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
		},
		JWT: JWTConfig{
			SecretKey:      getEnv("JWT_SECRET", defaultJWTSecret),
			AccessTokenTTL: getEnvAsInt("JWT_ACCESS_TTL", 720), // 30 days
		},
		Storage: StorageConfig{
			Driver:        getEnv("STORAGE_DRIVER", "local"),
			LocalPath:     getEnv("FILE_UPLOAD_PATH", "./public/uploads"),
			PublicBaseURL: getEnv("STORAGE_PUBLIC_BASE_URL", ""),
			MaxUploadSize: getEnvAsInt64("MAX_FILE_UPLOAD", 1000000),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "coopmarket-photos"),
			CloudFrontURL:   getEnv("AWS_CLOUDFRONT_URL", ""),
		},
		GCS: GCSConfig{
			Bucket: getEnv("GCS_BUCKET", ""),
		},
		Azure: AzureConfig{
			ConnectionString: getEnv("AZURE_STORAGE_CONNECTION_STRING", ""),
			Container:        getEnv("AZURE_STORAGE_CONTAINER", "photos"),
		},
		Geocoder: GeocoderConfig{
			Provider: getEnv("GEOCODER_PROVIDER", "openstreetmap"),
			APIKey:   getEnv("GEOCODER_API_KEY", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Tracing: TracingConfig{
			Enabled:      getEnvAsBool("OTEL_ENABLED", false),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "coopmarket"),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure:     getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio:  getEnvAsFloat("OTEL_SAMPLER_RATIO", 0.1),
		},
		Jobs: JobsConfig{
			AverageCostReconcileCron: getEnv("AVERAGE_COST_RECONCILE_CRON", "@every 1h"),
		},
		Admin: AdminConfig{
			Name:     getEnv("ADMIN_NAME", "Administrator"),
			Email:    getEnv("ADMIN_EMAIL", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == defaultJWTSecret && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	switch c.Database.Driver {
	case "postgres":
		if c.Database.Password == "" && c.Environment == "production" {
			return fmt.Errorf("database password is required in production")
		}
	case "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	switch c.Storage.Driver {
	case "local", "s3":
	case "gcs":
		if c.GCS.Bucket == "" {
			return fmt.Errorf("GCS_BUCKET is required for the gcs storage driver")
		}
	case "azure":
		if c.Azure.ConnectionString == "" {
			return fmt.Errorf("AZURE_STORAGE_CONNECTION_STRING is required for the azure storage driver")
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}

	if c.Storage.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_FILE_UPLOAD must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
