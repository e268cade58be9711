package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds process-wide settings read from the environment.
type Config struct {
	GeminiAPIKey          string
	TranslationModel      string
	DatabaseURL           string
	Neo4jURI              string
	Neo4jUser             string
	Neo4jPassword         string
	EmbeddingAPIKey       string
	EmbeddingBaseURL      string
	EmbeddingModel        string
	EmbeddingDimensions   int
	WorkerCount           int
	BatchSize             int
	MaxConcurrentAPICalls int
	RequestsPerSecond     float64
	MaxFileMatches        int
}

// Load reads .env (when present) and the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	return &Config{
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		TranslationModel:      getEnv("TRANSLATION_MODEL", "gemini-2.5-flash"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		Neo4jURI:              getEnv("NEO4J_URI", ""),
		Neo4jUser:             getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:         getEnv("NEO4J_PASSWORD", "password"),
		EmbeddingAPIKey:       getEnv("EMBEDDING_API_KEY", ""),
		EmbeddingBaseURL:      getEnv("EMBEDDING_BASE_URL", "https://api.openai.com/v1"),
		EmbeddingModel:        getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDimensions:   getEnvInt("EMBEDDING_DIMENSIONS", 768),
		WorkerCount:           getEnvInt("WORKER_COUNT", 8),
		BatchSize:             getEnvInt("BATCH_SIZE", 32),
		MaxConcurrentAPICalls: getEnvInt("MAX_CONCURRENT_API_CALLS", 4),
		RequestsPerSecond:     getEnvFloat("REQUESTS_PER_SECOND", 2),
		MaxFileMatches:        getEnvInt("MAX_FILE_MATCHES", 1000),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
