package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App          AppConfig
	Ai           AIConfig
	Conversation ConversationConfig
	Keys         APIKeys

	// Search is read from the content-type config file.
	Search SearchFile
}

type AppConfig struct {
	Host               string
	Port               string
	Socket             string
	Environment        string
	LogFilePath        string
	ConfigFile         string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	Regenerate         bool
	Verbose            bool
}

type APIKeys struct {
	OpenAI    string
	JWTSecret string
}

type AIConfig struct {
	EmbeddingProvider string // "ollama" or "openai"
	EmbeddingModel    string
	EmbeddingCacheTTL time.Duration
	OllamaBaseURL     string
	LLMProvider       string // "ollama" or "openai"
	LLMModel          string // e.g. "llama3", "gpt-4o-mini"
}

type ConversationConfig struct {
	Store    string // "file" or "redis"
	LogFile  string
	RedisKey string
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Host:               getEnv("APP_HOST", "127.0.0.1"),
			Port:               getEnv("APP_PORT", "8000"),
			Socket:             getEnv("APP_SOCKET", ""),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			ConfigFile:         getEnv("CONFIG_FILE", "config/memex.yml"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			Regenerate:         getEnvAsBool("REGENERATE", false),
			Verbose:            getEnvAsBool("VERBOSE", false),
		},
		Keys: APIKeys{
			OpenAI:    getEnv("OPENAI_API_KEY", ""),
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			EmbeddingCacheTTL: getEnvAsDuration("EMBEDDING_CACHE_TTL", time.Hour),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
		},
		Conversation: ConversationConfig{
			Store:    getEnv("CONVERSATION_STORE", "file"),
			LogFile:  getEnv("CONVERSATION_LOGFILE", ""),
			RedisKey: getEnv("CONVERSATION_REDIS_KEY", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}
