package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/rasalabh/rag-rfp-chatbot/internal/ingest"
	"github.com/rasalabh/rag-rfp-chatbot/internal/service"
)

type fakeIngestService struct {
	summary *ingest.Summary
	err     error
	got     ingest.Params
}

func (f *fakeIngestService) IngestAll(_ context.Context, params ingest.Params) (*ingest.Summary, error) {
	f.got = params
	if f.err != nil {
		return nil, f.err
	}
	return f.summary, nil
}

func TestIngestHandler_Success(t *testing.T) {
	svc := &fakeIngestService{summary: &ingest.Summary{
		Documents:    2,
		Chunks:       14,
		ByType:       map[string]int{"pdf": 1, "txt": 1},
		ChunkSize:    800,
		ChunkOverlap: 150,
	}}
	handler := NewIngestHandler(svc)

	rec := postJSON(t, handler, "/ingest", `{"chunk_size": 800, "chunk_overlap": 150}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("ServeHTTP() status = %d, want 200", rec.Code)
	}

	var resp IngestResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Documents != 2 || resp.Chunks != 14 {
		t.Errorf("ServeHTTP() response = %+v, want 2 documents and 14 chunks", resp)
	}
	if !strings.Contains(resp.Message, "Successfully ingested") {
		t.Errorf("ServeHTTP() message = %q, want the summary line", resp.Message)
	}
	if svc.got.ChunkSize != 800 {
		t.Errorf("ServeHTTP() forwarded chunk_size = %d, want 800", svc.got.ChunkSize)
	}
	if svc.got.ChunkOverlap == nil || *svc.got.ChunkOverlap != 150 {
		t.Errorf("ServeHTTP() forwarded chunk_overlap = %v, want 150", svc.got.ChunkOverlap)
	}
}

func TestIngestHandler_EmptyBodyUsesDefaults(t *testing.T) {
	svc := &fakeIngestService{summary: &ingest.Summary{ByType: map[string]int{}}}
	handler := NewIngestHandler(svc)

	rec := postJSON(t, handler, "/ingest", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("ServeHTTP() status = %d, want 200", rec.Code)
	}
	if svc.got.ChunkSize != 0 || svc.got.ChunkOverlap != nil {
		t.Errorf("ServeHTTP() params = %+v, want zero size and nil overlap for defaults", svc.got)
	}
}

func TestIngestHandler_ExplicitZeroOverlapForwarded(t *testing.T) {
	svc := &fakeIngestService{summary: &ingest.Summary{ByType: map[string]int{}}}
	handler := NewIngestHandler(svc)

	// chunk_overlap: 0 is a deliberate setting, distinct from leaving the
	// field out of the body.
	rec := postJSON(t, handler, "/ingest", `{"chunk_size": 400, "chunk_overlap": 0}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("ServeHTTP() status = %d, want 200", rec.Code)
	}
	if svc.got.ChunkOverlap == nil || *svc.got.ChunkOverlap != 0 {
		t.Errorf("ServeHTTP() forwarded chunk_overlap = %v, want explicit 0", svc.got.ChunkOverlap)
	}
}

func TestIngestHandler_InvalidParams(t *testing.T) {
	svc := &fakeIngestService{err: &service.ConfigError{Param: "chunk_size", Message: "must be in [100, 2000], got 50"}}
	handler := NewIngestHandler(svc)

	rec := postJSON(t, handler, "/ingest", `{"chunk_size": 50}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("ServeHTTP() status = %d, want 400", rec.Code)
	}
}
