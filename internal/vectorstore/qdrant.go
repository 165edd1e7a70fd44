package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/qdrant/go-client/qdrant"

	"github.com/rasalabh/rag-rfp-chatbot/internal/contextutil"
	"github.com/rasalabh/rag-rfp-chatbot/internal/indexer"
	"github.com/rasalabh/rag-rfp-chatbot/internal/service"
)

// QdrantIndex implements Index against a Qdrant server. It is the alternative
// backend for deployments that outgrow the in-process index; Qdrant owns
// durability, so Save and Load do not move data.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	embed      Embedder
	dim        int

	mu            sync.Mutex // guards staging between Add and Build
	stagedChunks  []indexer.Chunk
	stagedVectors [][]float32

	ready atomic.Bool
	size  atomic.Int64
}

// NewQdrantIndex creates a Qdrant-backed index. urlStr is the HTTP endpoint
// (e.g. "http://localhost:6333"); the gRPC port is derived from it.
func NewQdrantIndex(urlStr, collection string, embed Embedder, dim int) (*QdrantIndex, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	// gRPC listens one port above the HTTP port by convention.
	port := 6334
	if parsedURL.Port() != "" {
		if httpPort, err := strconv.Atoi(parsedURL.Port()); err == nil {
			port = httpPort + 1
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &QdrantIndex{
		client:     client,
		collection: collection,
		embed:      embed,
		dim:        dim,
	}, nil
}

// Add embeds the given chunks and stages them for the next Build.
func (q *QdrantIndex) Add(ctx context.Context, chunks []indexer.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := q.embed.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("expected %d vectors, got %d", len(chunks), len(vectors))
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.stagedChunks = append(q.stagedChunks, chunks...)
	q.stagedVectors = append(q.stagedVectors, vectors...)
	return nil
}

// Build recreates the collection and upserts all staged chunks, replacing any
// previously indexed content wholesale.
func (q *QdrantIndex) Build(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	q.mu.Lock()
	chunks := q.stagedChunks
	vectors := q.stagedVectors
	q.stagedChunks = nil
	q.stagedVectors = nil
	q.mu.Unlock()

	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		if err := q.client.DeleteCollection(ctx, q.collection); err != nil {
			return fmt.Errorf("failed to delete collection: %w", err)
		}
	}
	if err := q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.dim),
			Distance: qdrant.Distance_Cosine,
		}),
	}); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for i, chunk := range chunks {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(uint64(chunk.ID)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"seq":         chunk.Seq,
				"text":        chunk.Text,
				"source_file": chunk.SourceFile,
				"label":       chunk.Label,
				"position":    chunk.Position,
				"preview":     chunk.Preview,
			}),
		})
	}

	if len(points) > 0 {
		if _, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: q.collection,
			Points:         points,
		}); err != nil {
			return fmt.Errorf("failed to upsert points: %w", err)
		}
	}

	q.size.Store(int64(len(points)))
	q.ready.Store(true)
	logger.InfoContext(ctx, "collection rebuilt", "collection", q.collection, "points", len(points))
	return nil
}

// Search returns the n most similar chunks by cosine similarity.
func (q *QdrantIndex) Search(ctx context.Context, query []float32, n int) ([]SearchResult, error) {
	if !q.ready.Load() {
		return nil, service.ErrIndexNotFound
	}
	if n <= 0 {
		return nil, fmt.Errorf("n must be greater than 0")
	}

	limit := uint64(n)
	scored, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	results := make([]SearchResult, 0, len(scored))
	for _, point := range scored {
		chunk := indexer.Chunk{}
		if point.Id != nil {
			chunk.ID = int(point.Id.GetNum())
		}
		if point.Payload != nil {
			chunk.Seq = int(point.Payload["seq"].GetIntegerValue())
			chunk.Text = point.Payload["text"].GetStringValue()
			chunk.SourceFile = point.Payload["source_file"].GetStringValue()
			chunk.Label = point.Payload["label"].GetStringValue()
			chunk.Position = point.Payload["position"].GetDoubleValue()
			chunk.Preview = point.Payload["preview"].GetStringValue()
		}
		results = append(results, SearchResult{Chunk: chunk, Score: point.Score})
	}
	return results, nil
}

// Save is a no-op: Qdrant persists the collection server-side.
func (q *QdrantIndex) Save(_ context.Context) error {
	return nil
}

// Load verifies that the collection exists with a compatible vector size and
// marks the index ready. No data moves; the server already holds it.
func (q *QdrantIndex) Load(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if !exists {
		return service.ErrIndexNotFound
	}

	info, err := q.client.GetCollectionInfo(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("failed to get collection info: %w", err)
	}
	if config := info.Config; config != nil && config.Params != nil {
		if vectorsConfig := config.Params.GetVectorsConfig(); vectorsConfig != nil {
			if params := vectorsConfig.GetParams(); params != nil && int(params.Size) != q.dim {
				return fmt.Errorf("%w: collection has vector size %d, configured dimension is %d",
					service.ErrIncompatibleIndexVersion, params.Size, q.dim)
			}
		}
	}

	if info.PointsCount != nil {
		q.size.Store(int64(*info.PointsCount))
	}
	q.ready.Store(true)
	return nil
}

// Len reports the number of points in the collection as of the last
// Build or Load.
func (q *QdrantIndex) Len() int {
	return int(q.size.Load())
}
