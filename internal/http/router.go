package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rasalabh/rag-rfp-chatbot/internal/handlers"
	"github.com/rasalabh/rag-rfp-chatbot/internal/storage"
	"github.com/rasalabh/rag-rfp-chatbot/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Engine   handlers.QueryService
	Ingestor handlers.IngestService
	Index    vectorstore.Index
	DocRepo  storage.DocumentStore
	DataDir  string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	chatHandler := handlers.NewChatHandler(deps.Engine)
	ingestHandler := handlers.NewIngestHandler(deps.Ingestor)
	uploadHandler := handlers.NewUploadHandler(deps.DataDir)
	filesHandler := handlers.NewFilesHandler(deps.DataDir, deps.DocRepo)
	healthHandler := handlers.NewHealthHandler(deps.Index, deps.DocRepo)

	r.Method(http.MethodGet, "/healthz", healthHandler)
	r.Method(http.MethodPost, "/chat", chatHandler)
	r.Method(http.MethodPost, "/ingest", ingestHandler)
	r.Method(http.MethodPost, "/upload", uploadHandler)
	r.Get("/files", filesHandler.List)
	r.Delete("/files/{filename}", filesHandler.Delete)

	return r
}
