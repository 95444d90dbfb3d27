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
	Server   ServerConfig
	Intent   IntentConfig
	BotChain BotChainConfig
	Redis    RedisConfig
	Postgres PostgresConfig
	Gemini   GeminiConfig
	OpenAI   OpenAIConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type IntentConfig struct {
	CurrentGovernment int
	EnableLLMFallback bool
	FallbackFloor     float64
	CacheTTL          time.Duration
}

type BotChainConfig struct {
	SQLGenURL    string
	EvaluatorURL string
	RankerURL    string
	FormatterURL string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type PostgresConfig struct {
	DSN string
}

type GeminiConfig struct {
	APIKey string
}

type OpenAIConfig struct {
	APIKey         string
	EnableFallback bool
}

type LoggingConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ShutdownTimeout: time.Duration(getEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 10)) * time.Second,
			AllowedOrigins:  parseCommaSeparated(getEnv("WS_ALLOWED_ORIGINS", "")),
		},
		Intent: IntentConfig{
			CurrentGovernment: getEnvInt("CURRENT_GOVERNMENT", 37),
			EnableLLMFallback: getEnvBool("INTENT_ENABLE_LLM_FALLBACK", false),
			FallbackFloor:     getEnvFloat("INTENT_FALLBACK_FLOOR", 0.55),
			CacheTTL:          time.Duration(getEnvInt("INTENT_CACHE_TTL_SECONDS", 600)) * time.Second,
		},
		BotChain: BotChainConfig{
			SQLGenURL:    getEnv("SQLGEN_BOT_URL", "http://localhost:8012"),
			EvaluatorURL: getEnv("EVALUATOR_BOT_URL", "http://localhost:8014"),
			RankerURL:    getEnv("RANKER_BOT_URL", ""),
			FormatterURL: getEnv("FORMATTER_BOT_URL", ""),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Postgres: PostgresConfig{
			DSN: getEnv("POSTGRES_DSN", ""),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			EnableFallback: getEnvBool("OPENAI_ENABLE_FALLBACK", true),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", "logs/bot.log"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535")
	}
	if c.Intent.CurrentGovernment <= 0 {
		return fmt.Errorf("CURRENT_GOVERNMENT must be positive")
	}
	if c.BotChain.SQLGenURL == "" {
		return fmt.Errorf("SQLGEN_BOT_URL is required")
	}
	if c.BotChain.EvaluatorURL == "" {
		return fmt.Errorf("EVALUATOR_BOT_URL is required")
	}
	if c.Intent.FallbackFloor < 0 || c.Intent.FallbackFloor > 1 {
		return fmt.Errorf("INTENT_FALLBACK_FLOOR must be between 0 and 1")
	}
	// LLM keys are only needed when the fallback path is enabled
	if c.Intent.EnableLLMFallback && c.Gemini.APIKey == "" && c.OpenAI.APIKey == "" {
		return fmt.Errorf("INTENT_ENABLE_LLM_FALLBACK requires GEMINI_API_KEY or OPENAI_API_KEY")
	}
	return nil
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
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

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
