package handlers

import (
	"net/http"
	"time"

	"github.com/rasalabh/rag-rfp-chatbot/internal/contextutil"
	"github.com/rasalabh/rag-rfp-chatbot/internal/storage"
	"github.com/rasalabh/rag-rfp-chatbot/internal/vectorstore"
)

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	index   vectorstore.Index
	docRepo storage.DocumentStore
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(index vectorstore.Index, docRepo storage.DocumentStore) *HealthHandler {
	return &HealthHandler{index: index, docRepo: docRepo}
}

// HealthResponse represents the health check response. The last-ingest
// fields are omitted until the first successful ingest run.
type HealthResponse struct {
	Status              string     `json:"status"`
	IndexedChunks       int        `json:"indexed_chunks"`
	LastIngestAt        *time.Time `json:"last_ingest_at,omitempty"`
	LastIngestDocuments int        `json:"last_ingest_documents,omitempty"`
}

// ServeHTTP handles health check requests. A registry read failure degrades
// the response rather than failing the check; the service itself is up.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp := HealthResponse{
		Status:        "ok",
		IndexedChunks: h.index.Len(),
	}

	run, err := h.docRepo.LatestRun(ctx)
	if err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to read latest ingest run", "error", err)
	} else if run != nil {
		resp.LastIngestAt = &run.CreatedAt
		resp.LastIngestDocuments = run.Documents
	}

	writeJSON(w, http.StatusOK, resp)
}
