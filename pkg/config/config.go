package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Typesense TypesenseConfig
	OpenAI    OpenAIConfig
	Reference ReferenceConfig
	Policy    PolicyConfig
	Review    ReviewConfig
	Batch     BatchConfig
	OTEL      OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	URL    string
	APIKey string
}

// OpenAIConfig holds configuration for the draft-generation collaborator
type OpenAIConfig struct {
	APIKey         string
	Model          string
	BaseURL        string
	Temperature    float64
	TimeoutSeconds int
	MaxRetries     int
	RateLimitRPM   int
	RateLimitBurst int
}

// ReferenceConfig holds protocol reference table configuration
type ReferenceConfig struct {
	Path            string
	CacheTTLSeconds int
}

// PolicyConfig holds the externally tunable clinical policy values. The
// enum lists and keyword tables are code-owned policy data, not env config.
type PolicyConfig struct {
	EGFRContraindicationThreshold float64
}

// ReviewConfig holds the manual-review webhook configuration
type ReviewConfig struct {
	WebhookURL string
	Token      string
}

// BatchConfig holds the CSV batch pipeline configuration
type BatchConfig struct {
	InputPath  string
	OutputPath string
	Workers    int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "ct_protocoling"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Typesense: TypesenseConfig{
			URL:    getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey: getEnv("TYPESENSE_API_KEY", "xyz"),
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			Model:          getEnv("OPENAI_MODEL", "gpt-4-turbo-preview"),
			BaseURL:        getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature:    getEnvAsFloat("OPENAI_TEMPERATURE", 0.2),
			TimeoutSeconds: getEnvAsInt("OPENAI_TIMEOUT_SECONDS", 30),
			MaxRetries:     getEnvAsInt("OPENAI_MAX_RETRIES", 3),
			RateLimitRPM:   getEnvAsInt("OPENAI_RATE_LIMIT_RPM", 60),
			RateLimitBurst: getEnvAsInt("OPENAI_RATE_LIMIT_BURST", 5),
		},
		Reference: ReferenceConfig{
			Path:            getEnv("PROTOCOL_REFERENCE_PATH", "data/protocol_reference.csv"),
			CacheTTLSeconds: getEnvAsInt("REFERENCE_CACHE_TTL_SECONDS", 300),
		},
		Policy: PolicyConfig{
			EGFRContraindicationThreshold: getEnvAsFloat("EGFR_CONTRAINDICATION_THRESHOLD", 30),
		},
		Review: ReviewConfig{
			WebhookURL: getEnv("REVIEW_WEBHOOK_URL", ""),
			Token:      getEnv("REVIEW_WEBHOOK_TOKEN", ""),
		},
		Batch: BatchConfig{
			InputPath:  getEnv("BATCH_INPUT_PATH", "data/input.csv"),
			OutputPath: getEnv("BATCH_OUTPUT_PATH", "data/output.csv"),
			Workers:    getEnvAsInt("BATCH_WORKERS", 3),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "ct-protocoling"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
