package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	LLMBaseURL         string
	LLMModelName       string
	LLMAPIKey          string
	EmbeddingBaseURL   string
	EmbeddingModelName string
	EmbeddingVectorSize int

	DataDir   string // uploaded documents live here
	IndexPath string // persisted vector index artifact
	DBPath    string // sqlite document registry

	ChunkSize    int // default characters per chunk
	ChunkOverlap int // default overlap between adjacent chunks
	TopK         int // default stage-1 candidate count for retrieval

	VectorBackend    string // "memory" or "qdrant"
	QdrantURL        string
	QdrantCollection string

	APIPort   string
	LogLevel  slog.Level
	LogFormat string
}

// Chunking bounds enforced for both defaults and per-request overrides.
const (
	MinChunkSize    = 100
	MaxChunkSize    = 2000
	MaxChunkOverlap = 500
	MaxTopK         = 10
)

// Load reads configuration from environment variables and returns a Config.
// A .env file in the working directory or a parent directory is loaded first;
// variables already set in the environment take precedence over .env values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	if wd, err := os.Getwd(); err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		LLMBaseURL:         getEnv("LLM_BASE_URL", "http://localhost:8080"),
		LLMModelName:       getEnv("LLM_MODEL", "gemini-2.5-flash"),
		LLMAPIKey:          getEnv("LLM_API_KEY", "dummy-key"),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "all-MiniLM-L6-v2"),
		DataDir:            getEnv("DATA_DIR", "./data"),
		IndexPath:          getEnv("INDEX_PATH", "./data/index.bin"),
		DBPath:             getEnv("DB_PATH", "./data/documents.db"),
		VectorBackend:      getEnv("VECTOR_BACKEND", "memory"),
		QdrantURL:          getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "documents"),
		APIPort:            getEnv("API_PORT", "8000"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.EmbeddingVectorSize, err = getEnvInt("EMBEDDING_VECTOR_SIZE", 768); err != nil {
		return nil, err
	}
	if cfg.EmbeddingVectorSize <= 0 {
		return nil, fmt.Errorf("EMBEDDING_VECTOR_SIZE must be greater than 0")
	}

	if cfg.ChunkSize, err = getEnvInt("CHUNK_SIZE", 1000); err != nil {
		return nil, err
	}
	if cfg.ChunkOverlap, err = getEnvInt("CHUNK_OVERLAP", 200); err != nil {
		return nil, err
	}
	if cfg.TopK, err = getEnvInt("TOP_K_RESULTS", 8); err != nil {
		return nil, err
	}

	if cfg.ChunkSize < MinChunkSize || cfg.ChunkSize > MaxChunkSize {
		return nil, fmt.Errorf("CHUNK_SIZE must be in [%d, %d], got %d", MinChunkSize, MaxChunkSize, cfg.ChunkSize)
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap > MaxChunkOverlap {
		return nil, fmt.Errorf("CHUNK_OVERLAP must be in [0, %d], got %d", MaxChunkOverlap, cfg.ChunkOverlap)
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP (%d) must be less than CHUNK_SIZE (%d)", cfg.ChunkOverlap, cfg.ChunkSize)
	}
	if cfg.TopK < 1 || cfg.TopK > MaxTopK {
		return nil, fmt.Errorf("TOP_K_RESULTS must be in [1, %d], got %d", MaxTopK, cfg.TopK)
	}

	switch cfg.VectorBackend {
	case "memory", "qdrant":
	default:
		return nil, fmt.Errorf("VECTOR_BACKEND must be \"memory\" or \"qdrant\", got %q", cfg.VectorBackend)
	}

	cfg.LogLevel, err = parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	// The data directory holds uploads, the registry, and the persisted index.
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", s)
	}
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
