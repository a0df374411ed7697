package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	Redis     RedisConfig
	Typesense TypesenseConfig
	Source    SourceConfig
	ASR       ASRConfig
	Embedding EmbeddingConfig
	Blob      BlobConfig
	Routing   RoutingConfig
	Prompts   PromptsConfig
	OTEL      OTELConfig
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

// SourceConfig holds source platform configuration
type SourceConfig struct {
	BaseURL   string
	UserAgent string
	AudioDir  string
}

// ASRConfig holds speech recognition configuration
type ASRConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// EmbeddingConfig holds embedding provider configuration
type EmbeddingConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	Dimension int
}

// BlobConfig holds blob store configuration
type BlobConfig struct {
	RootDir string
	BaseURL string
}

// RoutingConfig holds model routing registry configuration
type RoutingConfig struct {
	ConfigPath string
}

// PromptsConfig holds prompt profile registry configuration
type PromptsConfig struct {
	ProfilesPath string
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
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "mindreel"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Typesense: TypesenseConfig{
			URL:    getEnv("TYPESENSE_URL", ""),
			APIKey: getEnv("TYPESENSE_API_KEY", "xyz"),
		},
		Source: SourceConfig{
			BaseURL:   getEnv("SOURCE_BASE_URL", "https://api.bilibili.com"),
			UserAgent: getEnv("SOURCE_USER_AGENT", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)"),
			AudioDir:  getEnv("SOURCE_AUDIO_DIR", os.TempDir()),
		},
		ASR: ASRConfig{
			BaseURL: getEnv("ASR_BASE_URL", "https://api.siliconflow.cn/v1"),
			APIKey:  getEnv("ASR_API_KEY", os.Getenv("OPENAI_API_KEY")),
			Model:   getEnv("ASR_MODEL", "FunAudioLLM/SenseVoiceSmall"),
		},
		Embedding: EmbeddingConfig{
			BaseURL:   getEnv("EMBEDDING_BASE_URL", "https://api.siliconflow.cn/v1"),
			APIKey:    getEnv("EMBEDDING_API_KEY", os.Getenv("OPENAI_API_KEY")),
			Model:     getEnv("EMBEDDING_MODEL", "BAAI/bge-m3"),
			Dimension: getEnvAsInt("EMBEDDING_DIMENSION", 384),
		},
		Blob: BlobConfig{
			RootDir: getEnv("BLOB_ROOT_DIR", "./data/blobs"),
			BaseURL: getEnv("BLOB_BASE_URL", ""),
		},
		Routing: RoutingConfig{
			ConfigPath: getEnv("MODEL_CONFIG_PATH", "configs/models.yaml"),
		},
		Prompts: PromptsConfig{
			ProfilesPath: getEnv("PROMPT_PROFILES_PATH", ""),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "mindreel"),
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
