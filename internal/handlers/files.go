package handlers

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rasalabh/rag-rfp-chatbot/internal/contextutil"
	"github.com/rasalabh/rag-rfp-chatbot/internal/storage"
)

// FilesHandler handles HTTP requests for listing and deleting documents
// in the data directory.
type FilesHandler struct {
	dataDir string
	docRepo storage.DocumentStore
}

// NewFilesHandler creates a new FilesHandler.
func NewFilesHandler(dataDir string, docRepo storage.DocumentStore) *FilesHandler {
	return &FilesHandler{dataDir: dataDir, docRepo: docRepo}
}

// FileInfo describes one file in the data directory. Indexed is true when
// the file was part of the last completed ingest run.
type FileInfo struct {
	Filename   string     `json:"filename"`
	SizeBytes  int64      `json:"size_bytes"`
	Indexed    bool       `json:"indexed"`
	Units      int        `json:"units,omitempty"`
	Chunks     int        `json:"chunks,omitempty"`
	IngestedAt *time.Time `json:"ingested_at,omitempty"`
}

// FilesResponse represents the HTTP response payload for a file listing.
type FilesResponse struct {
	Files []FileInfo `json:"files"`
}

// List handles GET requests for the file listing.
func (h *FilesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	entries, err := os.ReadDir(h.dataDir)
	if err != nil {
		logger.ErrorContext(ctx, "failed to read data directory", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list files")
		return
	}

	registered := make(map[string]storage.Document)
	if docs, err := h.docRepo.ListAll(ctx); err != nil {
		logger.WarnContext(ctx, "failed to read document registry", "error", err)
	} else {
		for _, doc := range docs {
			registered[doc.Filename] = doc
		}
	}

	files := []FileInfo{}
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info := FileInfo{Filename: entry.Name()}
		if fi, err := entry.Info(); err == nil {
			info.SizeBytes = fi.Size()
		}
		if doc, ok := registered[entry.Name()]; ok {
			info.Indexed = true
			info.Units = doc.Units
			info.Chunks = doc.Chunks
			ingestedAt := doc.IngestedAt
			info.IngestedAt = &ingestedAt
		}
		files = append(files, info)
	}

	writeJSON(w, http.StatusOK, FilesResponse{Files: files})
}

// DeleteResponse represents the HTTP response payload for a file deletion.
type DeleteResponse struct {
	Message string `json:"message"`
}

// Delete handles DELETE requests for a single file. The index keeps the
// file's chunks until the next ingest run.
func (h *FilesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	raw := chi.URLParam(r, "filename")
	name, err := url.PathUnescape(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filename")
		return
	}
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		writeError(w, http.StatusBadRequest, "Invalid filename")
		return
	}

	path := filepath.Join(h.dataDir, name)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("File %s not found", name))
			return
		}
		logger.ErrorContext(ctx, "failed to delete file", "file", name, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete file")
		return
	}

	logger.InfoContext(ctx, "file deleted", "file", name)
	writeJSON(w, http.StatusOK, DeleteResponse{
		Message: fmt.Sprintf("Deleted %s. Run ingest to remove its chunks from the index.", name),
	})
}
