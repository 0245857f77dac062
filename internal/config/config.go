package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Pipeline PipelineConfig
	Ai       AIConfig
}

type AppConfig struct {
	Environment string
	LogFilePath string
	RedisURL    string
	TurnTopic   string
}

type DatabaseConfig struct {
	Connection string
}

type PipelineConfig struct {
	HysteresisMargin      float64
	TrustHalfLifeHours    int
	MemoryTopK            int
	CollaboratorTimeoutMs int
	RuleTablePath         string
}

type AIConfig struct {
	EmbeddingProvider string // "ollama" or "none"
	OllamaBaseURL     string
	OllamaModel       string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "logs/companion.log"),
			RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),
			TurnTopic:   getEnv("ARCHIVE_TURN_TOPIC_NAME", "ARCHIVE_TURN_CONTEXT"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Pipeline: PipelineConfig{
			HysteresisMargin:      getEnvAsFloat("EMOTION_HYSTERESIS_MARGIN", 0.15),
			TrustHalfLifeHours:    getEnvAsInt("TRUST_HALF_LIFE_HOURS", 72),
			MemoryTopK:            getEnvAsInt("MEMORY_TOP_K", 5),
			CollaboratorTimeoutMs: getEnvAsInt("COLLABORATOR_TIMEOUT_MS", 1500),
			RuleTablePath:         getEnv("SCORING_RULE_TABLE_PATH", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
