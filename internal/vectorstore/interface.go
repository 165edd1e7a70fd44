package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_index.go -package=mocks github.com/rasalabh/rag-rfp-chatbot/internal/vectorstore Index

import (
	"context"

	"github.com/rasalabh/rag-rfp-chatbot/internal/indexer"
)

// SearchResult is a chunk matched by a similarity search.
type SearchResult struct {
	Chunk indexer.Chunk
	// Score is the cosine similarity between the query and the chunk vector.
	Score float32
}

// Embedder is the narrow embedding contract the index depends on:
// text in, fixed-length vector out. Vendors are swappable behind it.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Index stores one vector per chunk and answers nearest-neighbor queries.
//
// The lifecycle is add -> build -> search, or load -> search. Build replaces
// the searchable structure wholesale; readers never observe a partial index.
// Search before any successful Build or Load fails with
// service.ErrIndexNotFound.
type Index interface {
	// Add embeds the given chunks and stages them for the next Build.
	Add(ctx context.Context, chunks []indexer.Chunk) error

	// Build finalizes the staged chunks into the searchable structure,
	// atomically replacing any previously built index.
	Build(ctx context.Context) error

	// Search returns the n chunks most similar to the query vector, ordered
	// by descending similarity with ties broken by insertion order.
	Search(ctx context.Context, query []float32, n int) ([]SearchResult, error)

	// Save persists the built index. Backends with server-side durability
	// may treat this as a no-op.
	Save(ctx context.Context) error

	// Load restores a previously persisted index. An artifact written by an
	// incompatible format fails with service.ErrIncompatibleIndexVersion.
	Load(ctx context.Context) error

	// Len reports the number of chunks in the built index.
	Len() int
}
