package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/rasalabh/rag-rfp-chatbot/internal/contextutil"
	"github.com/rasalabh/rag-rfp-chatbot/internal/ingest"
)

// IngestService rebuilds the index from the data directory.
type IngestService interface {
	IngestAll(ctx context.Context, params ingest.Params) (*ingest.Summary, error)
}

// IngestHandler handles HTTP requests for index rebuilds.
type IngestHandler struct {
	ingestor IngestService
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(ingestor IngestService) *IngestHandler {
	return &IngestHandler{ingestor: ingestor}
}

// IngestResponse represents the HTTP response payload for an ingest run.
type IngestResponse struct {
	Message      string `json:"message"`
	Documents    int    `json:"documents"`
	Chunks       int    `json:"chunks"`
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap"`
}

// ServeHTTP handles HTTP requests for ingest. The body is optional; an
// empty body runs with the configured chunking defaults.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var params ingest.Params
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil && err != io.EOF {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	summary, err := h.ingestor.IngestAll(ctx, params)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to ingest documents")
		return
	}

	writeJSON(w, http.StatusOK, IngestResponse{
		Message:      summary.Message(),
		Documents:    summary.Documents,
		Chunks:       summary.Chunks,
		ChunkSize:    summary.ChunkSize,
		ChunkOverlap: summary.ChunkOverlap,
	})
}
