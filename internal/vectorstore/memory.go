package vectorstore

import (
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rasalabh/rag-rfp-chatbot/internal/indexer"
	"github.com/rasalabh/rag-rfp-chatbot/internal/service"
)

// indexFormatVersion is bumped whenever the persisted envelope layout
// changes. A mismatch on load fails fast instead of returning corrupt results.
const indexFormatVersion = 1

// envelope is the persisted form of a built index: the vectors and the
// parallel chunk metadata, saved and restored as a single atomic unit.
type envelope struct {
	Version   int
	Dimension int
	Chunks    []indexer.Chunk
	Vectors   [][]float32
}

// segment is an immutable built index. Readers share it without locking;
// rebuilds publish a fresh segment via atomic pointer swap.
type segment struct {
	chunks  []indexer.Chunk
	vectors [][]float32
}

// MemoryIndex is an in-process exact-recall nearest-neighbor index.
// Vectors are normalized to unit length on add, so cosine similarity
// reduces to a dot product at query time.
type MemoryIndex struct {
	embed Embedder
	dim   int
	path  string

	mu            sync.Mutex // guards staging between Add and Build
	stagedChunks  []indexer.Chunk
	stagedVectors [][]float32

	active atomic.Pointer[segment]
}

// NewMemoryIndex creates an index that embeds chunks with embed and persists
// to path. dim is the expected embedding dimensionality.
func NewMemoryIndex(embed Embedder, dim int, path string) *MemoryIndex {
	return &MemoryIndex{embed: embed, dim: dim, path: path}
}

// Add embeds the given chunks and stages them for the next Build.
func (m *MemoryIndex) Add(ctx context.Context, chunks []indexer.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := m.embed.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("expected %d vectors, got %d", len(chunks), len(vectors))
	}
	for i := range vectors {
		if len(vectors[i]) != m.dim {
			return fmt.Errorf("vector %d has dimension %d, expected %d", i, len(vectors[i]), m.dim)
		}
		normalize(vectors[i])
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.stagedChunks = append(m.stagedChunks, chunks...)
	m.stagedVectors = append(m.stagedVectors, vectors...)
	return nil
}

// Build publishes the staged chunks as the active index, replacing any prior
// index wholesale. The new segment is fully constructed before the swap, so
// concurrent searches never observe a partially-built index.
func (m *MemoryIndex) Build(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	seg := &segment{
		chunks:  m.stagedChunks,
		vectors: m.stagedVectors,
	}
	m.stagedChunks = nil
	m.stagedVectors = nil
	m.active.Store(seg)
	return nil
}

// Search returns the n most similar chunks by cosine similarity, ties broken
// by original insertion order. The query vector is normalized before scoring.
func (m *MemoryIndex) Search(_ context.Context, query []float32, n int) ([]SearchResult, error) {
	seg := m.active.Load()
	if seg == nil {
		return nil, service.ErrIndexNotFound
	}
	if n <= 0 {
		return nil, fmt.Errorf("n must be greater than 0")
	}
	if len(query) != m.dim {
		return nil, fmt.Errorf("query vector has dimension %d, expected %d", len(query), m.dim)
	}

	q := make([]float32, len(query))
	copy(q, query)
	normalize(q)

	order := make([]int, len(seg.vectors))
	scores := make([]float32, len(seg.vectors))
	for i, v := range seg.vectors {
		order[i] = i
		scores[i] = dot(v, q)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if n > len(order) {
		n = len(order)
	}
	results := make([]SearchResult, 0, n)
	for _, idx := range order[:n] {
		results = append(results, SearchResult{Chunk: seg.chunks[idx], Score: scores[idx]})
	}
	return results, nil
}

// Save writes the active index to disk as a single versioned artifact.
// The file is written to a temp path and renamed into place, so a crash
// mid-save never leaves a truncated index behind.
func (m *MemoryIndex) Save(_ context.Context) error {
	seg := m.active.Load()
	if seg == nil {
		return service.ErrIndexNotFound
	}

	env := envelope{
		Version:   indexFormatVersion,
		Dimension: m.dim,
		Chunks:    seg.chunks,
		Vectors:   seg.vectors,
	}

	dir := filepath.Dir(m.path)
	tmp, err := os.CreateTemp(dir, ".index-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp index file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if err := gob.NewEncoder(tmp).Encode(&env); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to encode index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp index file: %w", err)
	}
	if err := os.Rename(tmp.Name(), m.path); err != nil {
		return fmt.Errorf("failed to replace index file: %w", err)
	}
	return nil
}

// Load restores a persisted index and publishes it atomically. The active
// index is untouched when the artifact is missing, unreadable, or written
// by an incompatible format version.
func (m *MemoryIndex) Load(_ context.Context) error {
	f, err := os.Open(m.path)
	if err != nil {
		return fmt.Errorf("failed to open index file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	var env envelope
	if err := gob.NewDecoder(f).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode index file: %w", err)
	}
	if env.Version != indexFormatVersion {
		return fmt.Errorf("%w: index file has version %d, this build reads version %d",
			service.ErrIncompatibleIndexVersion, env.Version, indexFormatVersion)
	}
	if env.Dimension != m.dim {
		return fmt.Errorf("%w: index file has dimension %d, configured dimension is %d",
			service.ErrIncompatibleIndexVersion, env.Dimension, m.dim)
	}
	if len(env.Chunks) != len(env.Vectors) {
		return fmt.Errorf("corrupt index file: %d chunks but %d vectors", len(env.Chunks), len(env.Vectors))
	}

	m.active.Store(&segment{chunks: env.Chunks, vectors: env.Vectors})
	return nil
}

// Len reports the number of chunks in the built index.
func (m *MemoryIndex) Len() int {
	seg := m.active.Load()
	if seg == nil {
		return 0
	}
	return len(seg.chunks)
}

// normalize scales v to unit length in place. Zero vectors are left alone.
func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
