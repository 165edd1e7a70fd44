package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rasalabh/rag-rfp-chatbot/internal/contextutil"
	"github.com/rasalabh/rag-rfp-chatbot/internal/eval"
	"github.com/rasalabh/rag-rfp-chatbot/internal/rag"
)

// QueryService answers questions over the indexed documents.
type QueryService interface {
	Query(ctx context.Context, req rag.Request) (rag.Response, error)
}

// ChatHandler handles HTTP requests for question answering.
type ChatHandler struct {
	engine QueryService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(engine QueryService) *ChatHandler {
	return &ChatHandler{engine: engine}
}

// ChatRequest represents the HTTP request payload for chat.
type ChatRequest struct {
	Message     string  `json:"message"`
	TopK        int     `json:"top_k,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`
	Evaluate    bool    `json:"evaluate,omitempty"`
}

// ChatResponse represents the HTTP response payload for chat.
type ChatResponse struct {
	Response   string       `json:"response"`
	Sources    []rag.Source `json:"sources"`
	Evaluation *eval.Result `json:"evaluation,omitempty"`
}

// ServeHTTP handles HTTP requests for chat.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.engine.Query(ctx, rag.Request{
		Question:    req.Message,
		TopK:        req.TopK,
		Temperature: req.Temperature,
		Evaluate:    req.Evaluate,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to process chat request")
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Response:   resp.Answer,
		Sources:    resp.Sources,
		Evaluation: resp.Evaluation,
	})
}
