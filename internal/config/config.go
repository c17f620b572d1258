package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application. Every option has a
// default and can be overridden through the environment; invalid
// combinations are fatal at startup, never per-request.
type Config struct {
	// Generation
	LLMBaseURL     string
	LLMModel       string
	LLMAPIKey      string
	LLMTemperature float32

	// Embeddings
	EmbeddingBaseURL   string
	EmbeddingModelName string

	// Retrieval index
	QdrantURL        string
	QdrantCollection string
	QdrantVectorSize int
	RetrievalTopK    int

	// Ingestion
	DocsPath     string
	ChunkSize    int
	ChunkOverlap int

	// Conversation memory
	MemoryBackend         string // "sqlite" or "file"
	DBPath                string
	MemoryPath            string
	MaxConversationLength int
	ConversationTTLHours  int
	HistoryLimit          int

	// Server
	APIPort   string
	LogLevel  slog.Level
	LogFormat string
}

// Load reads configuration from environment variables, loading a .env
// file first if one exists. Environment variables already set take
// precedence over .env values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		LLMBaseURL:         getEnv("LLM_BASE_URL", "https://api.openai.com"),
		LLMModel:           getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMAPIKey:          getEnv("LLM_API_KEY", ""),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "https://api.openai.com"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "text-embedding-3-small"),
		QdrantURL:          getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "documentation"),
		DocsPath:           getEnv("DOCS_PATH", "./docs"),
		MemoryBackend:      getEnv("MEMORY_BACKEND", "sqlite"),
		DBPath:             getEnv("DB_PATH", "./data/docubuddy.db"),
		MemoryPath:         getEnv("MEMORY_PATH", "./data/memory"),
		APIPort:            getEnv("API_PORT", "8000"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.LLMTemperature, err = getEnvFloat32("LLM_TEMPERATURE", 0.7); err != nil {
		return nil, err
	}
	if cfg.RetrievalTopK, err = getEnvInt("RETRIEVAL_TOP_K", 5); err != nil {
		return nil, err
	}
	if cfg.ChunkSize, err = getEnvInt("CHUNK_SIZE", 1000); err != nil {
		return nil, err
	}
	if cfg.ChunkOverlap, err = getEnvInt("CHUNK_OVERLAP", 200); err != nil {
		return nil, err
	}
	if cfg.MaxConversationLength, err = getEnvInt("MAX_CONVERSATION_LENGTH", 20); err != nil {
		return nil, err
	}
	if cfg.ConversationTTLHours, err = getEnvInt("CONVERSATION_TTL_HOURS", 24); err != nil {
		return nil, err
	}
	if cfg.HistoryLimit, err = getEnvInt("HISTORY_LIMIT", 5); err != nil {
		return nil, err
	}
	if cfg.QdrantVectorSize, err = getEnvInt("QDRANT_VECTOR_SIZE", 1536); err != nil {
		return nil, err
	}

	switch getEnv("LOG_LEVEL", "info") {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "info":
		cfg.LogLevel = slog.LevelInfo
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		return nil, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}

	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("CHUNK_SIZE must be greater than 0")
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP (%d) must be non-negative and strictly less than CHUNK_SIZE (%d)",
			cfg.ChunkOverlap, cfg.ChunkSize)
	}
	if cfg.RetrievalTopK <= 0 {
		return nil, fmt.Errorf("RETRIEVAL_TOP_K must be greater than 0")
	}
	if cfg.MaxConversationLength < 2 {
		return nil, fmt.Errorf("MAX_CONVERSATION_LENGTH must be at least 2")
	}
	if cfg.QdrantVectorSize <= 0 {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be greater than 0")
	}
	switch cfg.MemoryBackend {
	case "sqlite", "file":
	default:
		return nil, fmt.Errorf("MEMORY_BACKEND must be \"sqlite\" or \"file\", got %q", cfg.MemoryBackend)
	}

	// Create the data directory for whichever backend is configured.
	if cfg.MemoryBackend == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}

func getEnvFloat32(key string, defaultValue float32) (float32, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	return float32(f), nil
}
