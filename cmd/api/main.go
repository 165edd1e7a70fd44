package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"github.com/rasalabh/rag-rfp-chatbot/internal/config"
	"github.com/rasalabh/rag-rfp-chatbot/internal/eval"
	"github.com/rasalabh/rag-rfp-chatbot/internal/http"
	"github.com/rasalabh/rag-rfp-chatbot/internal/ingest"
	"github.com/rasalabh/rag-rfp-chatbot/internal/llm"
	"github.com/rasalabh/rag-rfp-chatbot/internal/rag"
	"github.com/rasalabh/rag-rfp-chatbot/internal/service"
	"github.com/rasalabh/rag-rfp-chatbot/internal/storage"
	"github.com/rasalabh/rag-rfp-chatbot/internal/vectorstore"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize the document registry
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	docRepo := storage.NewDocumentRepo(db)

	ctx := context.Background()

	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.EmbeddingVectorSize)

	// Select the vector backend. Memory is the default; Qdrant is for
	// deployments that outgrow a single process.
	var index vectorstore.Index
	switch cfg.VectorBackend {
	case "qdrant":
		qdrantIndex, err := vectorstore.NewQdrantIndex(cfg.QdrantURL, cfg.QdrantCollection, embedder, cfg.EmbeddingVectorSize)
		if err != nil {
			log.Fatalf("Failed to create Qdrant index: %v", err)
		}
		index = qdrantIndex
	default:
		index = vectorstore.NewMemoryIndex(embedder, cfg.EmbeddingVectorSize, cfg.IndexPath)
	}
	slog.Info("Vector backend ready", "backend", cfg.VectorBackend)

	// Load a previously persisted index so queries work across restarts.
	// A missing index is normal on first start; incompatible artifacts are
	// ignored and will be replaced by the next ingest run.
	if err := index.Load(ctx); err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist), errors.Is(err, service.ErrIndexNotFound):
			slog.Info("No persisted index found; ingest documents to build one")
		case errors.Is(err, service.ErrIncompatibleIndexVersion):
			slog.Warn("Persisted index is incompatible; re-ingest to rebuild", "error", err)
		default:
			slog.Warn("Failed to load persisted index", "error", err)
		}
	} else {
		slog.Info("Index loaded", "chunks", index.Len())
	}

	// Create LLM client (external service layer)
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)

	// The evaluator uses the same model as generation, pinned to
	// temperature 0 inside the evaluator for reproducible judgments.
	evaluator := eval.New(llmClient)

	engine := rag.NewEngine(embedder, index, llmClient, evaluator, cfg.TopK)
	slog.Info("RAG engine initialized", "default_top_k", cfg.TopK)

	ingestor := ingest.New(cfg.DataDir, index, docRepo, cfg.ChunkSize, cfg.ChunkOverlap)

	deps := &http.Deps{
		Engine:   engine,
		Ingestor: ingestor,
		Index:    index,
		DocRepo:  docRepo,
		DataDir:  cfg.DataDir,
	}
	router := http.NewRouter(deps)

	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
