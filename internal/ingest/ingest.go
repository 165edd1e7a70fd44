package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/rasalabh/rag-rfp-chatbot/internal/contextutil"
	"github.com/rasalabh/rag-rfp-chatbot/internal/extract"
	"github.com/rasalabh/rag-rfp-chatbot/internal/indexer"
	"github.com/rasalabh/rag-rfp-chatbot/internal/storage"
	"github.com/rasalabh/rag-rfp-chatbot/internal/vectorstore"
)

// Params overrides the configured chunking defaults for one rebuild.
// A nil overlap selects the default; an explicit zero disables overlap.
type Params struct {
	ChunkSize    int  `json:"chunk_size,omitempty"`
	ChunkOverlap *int `json:"chunk_overlap,omitempty"`
}

// Summary reports the outcome of one full rebuild.
type Summary struct {
	Documents    int            `json:"documents"`
	Chunks       int            `json:"chunks"`
	ByType       map[string]int `json:"by_type"`
	ChunkSize    int            `json:"chunk_size"`
	ChunkOverlap int            `json:"chunk_overlap"`
}

// Message renders the summary in the form surfaced to the user.
func (s *Summary) Message() string {
	if s.Documents == 0 {
		return "No documents found in the data directory."
	}
	var types []string
	for _, ext := range []string{"pdf", "md", "txt"} {
		if n := s.ByType[ext]; n > 0 {
			types = append(types, fmt.Sprintf("%d %s", n, strings.ToUpper(ext)))
		}
	}
	return fmt.Sprintf("Successfully ingested %d documents (%s) and created %d chunks (Size: %d, Overlap: %d).",
		s.Documents, strings.Join(types, ", "), s.Chunks, s.ChunkSize, s.ChunkOverlap)
}

// Ingestor rebuilds the index from the documents in the data directory:
// extract, chunk, embed, build, persist, and update the registry.
// Rebuilds are serialized; concurrent ingest requests queue on the mutex
// so partial writes never interleave.
type Ingestor struct {
	dataDir        string
	index          vectorstore.Index
	docRepo        storage.DocumentStore
	defaultSize    int
	defaultOverlap int

	mu sync.Mutex
}

// New creates an Ingestor over the given data directory.
func New(dataDir string, index vectorstore.Index, docRepo storage.DocumentStore, defaultSize, defaultOverlap int) *Ingestor {
	return &Ingestor{
		dataDir:        dataDir,
		index:          index,
		docRepo:        docRepo,
		defaultSize:    defaultSize,
		defaultOverlap: defaultOverlap,
	}
}

// IngestAll rebuilds the index wholesale from every supported document in
// the data directory. The prior index stays live until the new one is fully
// built, then is replaced atomically.
func (ing *Ingestor) IngestAll(ctx context.Context, params Params) (*Summary, error) {
	ing.mu.Lock()
	defer ing.mu.Unlock()

	logger := contextutil.LoggerFromContext(ctx)

	size := params.ChunkSize
	if size == 0 {
		size = ing.defaultSize
	}
	overlap := ing.defaultOverlap
	if params.ChunkOverlap != nil {
		overlap = *params.ChunkOverlap
	}

	chunker, err := indexer.NewChunker(size, overlap)
	if err != nil {
		return nil, err
	}

	docs, err := extract.Dir(ing.dataDir)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		ByType:       make(map[string]int),
		ChunkSize:    size,
		ChunkOverlap: overlap,
	}
	if len(docs) == 0 {
		logger.InfoContext(ctx, "ingest found no documents", "data_dir", ing.dataDir)
		return summary, nil
	}

	var records []storage.Document
	nextID := 1
	for _, doc := range docs {
		chunks := chunker.Chunk(doc)
		for i := range chunks {
			chunks[i].ID = nextID
			nextID++
		}
		if err := ing.index.Add(ctx, chunks); err != nil {
			return nil, fmt.Errorf("failed to index %s: %w", doc.Name, err)
		}

		record := storage.Document{
			ID:       uuid.NewString(),
			Filename: doc.Name,
			Units:    len(doc.Units),
			Chunks:   len(chunks),
		}
		if info, err := os.Stat(filepath.Join(ing.dataDir, doc.Name)); err == nil {
			record.SizeBytes = info.Size()
		}
		if hash, err := hashFile(filepath.Join(ing.dataDir, doc.Name)); err == nil {
			record.Hash = hash
		}
		records = append(records, record)

		summary.Documents++
		summary.Chunks += len(chunks)
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(doc.Name)), ".")
		summary.ByType[ext]++

		logger.DebugContext(ctx, "document chunked", "file", doc.Name, "units", len(doc.Units), "chunks", len(chunks))
	}

	if err := ing.index.Build(ctx); err != nil {
		return nil, fmt.Errorf("failed to build index: %w", err)
	}
	if err := ing.index.Save(ctx); err != nil {
		return nil, fmt.Errorf("failed to persist index: %w", err)
	}

	if err := ing.docRepo.ReplaceAll(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to update document registry: %w", err)
	}
	if err := ing.docRepo.RecordRun(ctx, &storage.IngestRun{
		ChunkSize:    size,
		ChunkOverlap: overlap,
		Documents:    summary.Documents,
		Chunks:       summary.Chunks,
	}); err != nil {
		return nil, fmt.Errorf("failed to record ingest run: %w", err)
	}

	logger.InfoContext(ctx, "ingest completed",
		"documents", summary.Documents,
		"chunks", summary.Chunks,
		"chunk_size", size,
		"chunk_overlap", overlap,
	)
	return summary, nil
}

func hashFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:]), nil
}
