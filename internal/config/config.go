package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	AuthUsername string
	AuthPassword string

	ChatEndpoint   string
	ChatAPIKey     string
	ChatDeployment string

	EmbeddingEndpoint   string
	EmbeddingAPIKey     string
	EmbeddingDeployment string

	SearchEndpoint string
	SearchAPIKey   string
	SearchIndex    string

	RedisURL  string
	SessionDB string

	MaxTurns int
	HTTPPort string
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		AuthUsername: getEnv("AUTH_USERNAME", "admin"),
		AuthPassword: getEnv("AUTH_PASSWORD", "changeme"),

		ChatEndpoint:   getEnvAny("ENDPOINT_URL", "AZURE_OPENAI_ENDPOINT"),
		ChatAPIKey:     getEnvAny("AZURE_OPENAI_API_KEY_CHAT", "AZURE_OPENAI_API_KEY"),
		ChatDeployment: firstNonEmpty(getEnvAny("DEPLOYMENT_NAME", "AZURE_OPENAI_CHAT_DEPLOYMENT"), "gpt-5-chat"),

		EmbeddingEndpoint:   getEnvAny("AZURE_OPENAI_ENDPOINT", "ENDPOINT_URL"),
		EmbeddingAPIKey:     getEnv("AZURE_OPENAI_API_KEY_EMBED", ""),
		EmbeddingDeployment: firstNonEmpty(getEnvAny("EMBEDDING_DEPLOYMENT", "AZURE_EMBEDDING_DEPLOYMENT"), "text-embedding-3-small"),

		SearchEndpoint: getEnv("AZURE_SEARCH_ENDPOINT", ""),
		SearchAPIKey:   getEnv("AZURE_SEARCH_API_KEY", ""),
		SearchIndex:    getEnv("AZURE_SEARCH_INDEX", ""),

		RedisURL:  getEnv("REDIS_URL", ""),
		SessionDB: getEnv("SESSION_DB", ""),

		MaxTurns: getEnvAsInt("MAX_TURNS", 0),
		HTTPPort: getEnv("HTTP_PORT", "5000"),
	}

	// The embedding client shares the chat credential unless one is set.
	if AppConfig.EmbeddingAPIKey == "" {
		AppConfig.EmbeddingAPIKey = AppConfig.ChatAPIKey
	}

	if AppConfig.ChatEndpoint == "" {
		log.Fatal("ENDPOINT_URL (or AZURE_OPENAI_ENDPOINT) environment variable is required")
	}

	if AppConfig.ChatAPIKey == "" {
		log.Fatal("AZURE_OPENAI_API_KEY_CHAT (or AZURE_OPENAI_API_KEY) environment variable is required")
	}
}

// SearchConfigured reports whether all three vector-search variables are set.
// RAG features are disabled, not fatal, when any is missing.
func (c Config) SearchConfigured() bool {
	return c.SearchEndpoint != "" && c.SearchAPIKey != "" && c.SearchIndex != ""
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAny returns the first of the given variables that is set and non-empty.
func getEnvAny(keys ...string) string {
	for _, key := range keys {
		if value, exists := os.LookupEnv(key); exists && value != "" {
			return value
		}
	}
	return ""
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
