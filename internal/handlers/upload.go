package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rasalabh/rag-rfp-chatbot/internal/contextutil"
)

// maxUploadBytes bounds a single uploaded document.
const maxUploadBytes = 50 << 20

var supportedExtensions = map[string]bool{
	".pdf":      true,
	".md":       true,
	".markdown": true,
	".txt":      true,
	".text":     true,
}

// UploadHandler handles HTTP requests for document uploads into the data
// directory. Uploaded files are not indexed until the next ingest run.
type UploadHandler struct {
	dataDir string
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(dataDir string) *UploadHandler {
	return &UploadHandler{dataDir: dataDir}
}

// UploadResponse represents the HTTP response payload for an upload.
type UploadResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// ServeHTTP handles multipart document uploads.
func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		logger.WarnContext(ctx, "invalid multipart form", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	name := filepath.Base(header.Filename)
	if name == "." || name == ".." || strings.HasPrefix(name, ".") {
		writeError(w, http.StatusBadRequest, "Invalid filename")
		return
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !supportedExtensions[ext] {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported file type %q. Supported: .pdf, .md, .txt", ext))
		return
	}

	dst, err := os.Create(filepath.Join(h.dataDir, name))
	if err != nil {
		logger.ErrorContext(ctx, "failed to create file", "file", name, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to store file")
		return
	}
	defer func() {
		_ = dst.Close()
	}()

	size, err := io.Copy(dst, file)
	if err != nil {
		logger.ErrorContext(ctx, "failed to write file", "file", name, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to store file")
		return
	}

	logger.InfoContext(ctx, "file uploaded", "file", name, "size", size)
	writeJSON(w, http.StatusOK, UploadResponse{
		Message:  fmt.Sprintf("Uploaded %s. Run ingest to index it.", name),
		Filename: name,
		Size:     size,
	})
}
