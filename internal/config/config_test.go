package config

import (
	"log/slog"
	"path/filepath"
	"testing"
)

// clearEnv unsets every variable Load reads so tests see only what they
// set via t.Setenv.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"LLM_BASE_URL", "LLM_MODEL", "LLM_API_KEY", "LLM_TEMPERATURE",
		"EMBEDDING_BASE_URL", "EMBEDDING_MODEL_NAME",
		"QDRANT_URL", "QDRANT_COLLECTION", "QDRANT_VECTOR_SIZE", "RETRIEVAL_TOP_K",
		"DOCS_PATH", "CHUNK_SIZE", "CHUNK_OVERLAP",
		"MEMORY_BACKEND", "DB_PATH", "MEMORY_PATH",
		"MAX_CONVERSATION_LENGTH", "CONVERSATION_TTL_HOURS", "HISTORY_LIMIT",
		"API_PORT", "LOG_LEVEL", "LOG_FORMAT",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "test.db"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.QdrantCollection != "documentation" {
		t.Errorf("QdrantCollection = %q", cfg.QdrantCollection)
	}
	if cfg.RetrievalTopK != 5 {
		t.Errorf("RetrievalTopK = %d, want 5", cfg.RetrievalTopK)
	}
	if cfg.ChunkSize != 1000 || cfg.ChunkOverlap != 200 {
		t.Errorf("chunking = (%d, %d), want (1000, 200)", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.MaxConversationLength != 20 {
		t.Errorf("MaxConversationLength = %d, want 20", cfg.MaxConversationLength)
	}
	if cfg.ConversationTTLHours != 24 {
		t.Errorf("ConversationTTLHours = %d, want 24", cfg.ConversationTTLHours)
	}
	if cfg.HistoryLimit != 5 {
		t.Errorf("HistoryLimit = %d, want 5", cfg.HistoryLimit)
	}
	if cfg.QdrantVectorSize != 1536 {
		t.Errorf("QdrantVectorSize = %d, want 1536", cfg.QdrantVectorSize)
	}
	if cfg.MemoryBackend != "sqlite" {
		t.Errorf("MemoryBackend = %q, want sqlite", cfg.MemoryBackend)
	}
	if cfg.APIPort != "8000" {
		t.Errorf("APIPort = %q, want 8000", cfg.APIPort)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MEMORY_BACKEND", "file")
	t.Setenv("MEMORY_PATH", filepath.Join(t.TempDir(), "memory"))
	t.Setenv("RETRIEVAL_TOP_K", "10")
	t.Setenv("CHUNK_SIZE", "500")
	t.Setenv("CHUNK_OVERLAP", "50")
	t.Setenv("LLM_TEMPERATURE", "0.2")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MemoryBackend != "file" {
		t.Errorf("MemoryBackend = %q", cfg.MemoryBackend)
	}
	if cfg.RetrievalTopK != 10 || cfg.ChunkSize != 500 || cfg.ChunkOverlap != 50 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.LLMTemperature != 0.2 {
		t.Errorf("LLMTemperature = %v", cfg.LLMTemperature)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"overlap equals chunk size", map[string]string{"CHUNK_SIZE": "100", "CHUNK_OVERLAP": "100"}},
		{"negative overlap", map[string]string{"CHUNK_OVERLAP": "-1"}},
		{"zero chunk size", map[string]string{"CHUNK_SIZE": "0"}},
		{"zero top k", map[string]string{"RETRIEVAL_TOP_K": "0"}},
		{"conversation too short", map[string]string{"MAX_CONVERSATION_LENGTH": "1"}},
		{"zero vector size", map[string]string{"QDRANT_VECTOR_SIZE": "0"}},
		{"unknown backend", map[string]string{"MEMORY_BACKEND": "redis"}},
		{"unknown log level", map[string]string{"LOG_LEVEL": "verbose"}},
		{"non-numeric int", map[string]string{"CHUNK_SIZE": "lots"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "test.db"))
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("Load() expected validation error")
			}
		})
	}
}
