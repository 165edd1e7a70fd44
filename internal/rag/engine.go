package rag

import (
	"context"
	"fmt"

	"github.com/rasalabh/rag-rfp-chatbot/internal/contextutil"
	"github.com/rasalabh/rag-rfp-chatbot/internal/eval"
	"github.com/rasalabh/rag-rfp-chatbot/internal/service"
	"github.com/rasalabh/rag-rfp-chatbot/internal/vectorstore"
)

const (
	// fallbackTopK is the stage-1 semantic candidate count when neither the
	// request nor the engine configuration sets one.
	fallbackTopK = 8
	maxTopK      = 10
	// maxSources caps the final reranked result set returned to the caller.
	maxSources = 5
)

// Generator is the answer-model contract: prompt and temperature in,
// free text out. Vendors are swappable behind it.
type Generator interface {
	Complete(ctx context.Context, prompt string, temperature float32) (string, error)
}

// Evaluator scores a finished answer. Wired in at composition time;
// a nil evaluator disables the evaluate flag.
type Evaluator interface {
	Evaluate(ctx context.Context, query, answer string, chunks []string, sourceCount int) *eval.Result
}

// Engine answers questions over the indexed documents: two-stage retrieval,
// numbered context assembly, generation, and optional evaluation.
type Engine struct {
	embedder    vectorstore.Embedder
	index       vectorstore.Index
	generator   Generator
	evaluator   Evaluator
	defaultTopK int
}

// NewEngine creates a RAG engine. The embedder must be the same one used at
// ingestion so query vectors live in the same space as chunk vectors.
// defaultTopK applies to requests that leave top_k unset; zero selects the
// built-in fallback.
func NewEngine(embedder vectorstore.Embedder, index vectorstore.Index, generator Generator, evaluator Evaluator, defaultTopK int) *Engine {
	if defaultTopK == 0 {
		defaultTopK = fallbackTopK
	}
	return &Engine{
		embedder:    embedder,
		index:       index,
		generator:   generator,
		evaluator:   evaluator,
		defaultTopK: defaultTopK,
	}
}

// Query answers a question using the indexed documents.
func (e *Engine) Query(ctx context.Context, req Request) (Response, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := e.validateRequest(&req); err != nil {
		return Response{}, err
	}

	logger.InfoContext(ctx, "query started",
		"question", req.Question,
		"top_k", req.TopK,
		"temperature", req.Temperature,
		"evaluate", req.Evaluate,
	)

	vectors, err := e.embedder.EmbedTexts(ctx, []string{req.Question})
	if err != nil {
		return Response{}, fmt.Errorf("failed to embed question: %w", err)
	}
	if len(vectors) == 0 {
		return Response{}, fmt.Errorf("no embedding returned for question")
	}

	// Stage 1: semantic candidates, wider than the final result count.
	candidates, err := e.index.Search(ctx, vectors[0], req.TopK)
	if err != nil {
		return Response{}, fmt.Errorf("vector search failed: %w", err)
	}
	if len(candidates) == 0 {
		logger.InfoContext(ctx, "no candidates retrieved")
		return Response{
			Answer:  "The index has no content matching this question. Upload and ingest documents first.",
			Sources: []Source{},
		}, nil
	}

	// Stage 2: lexical rerank, then keep the top results and number them.
	ranked := rerank(req.Question, candidates)
	if len(ranked) > maxSources {
		ranked = ranked[:maxSources]
	}
	sources := make([]RetrievedSource, len(ranked))
	for i, r := range ranked {
		sources[i] = RetrievedSource{
			SourceID: i + 1,
			Chunk:    r.result.Chunk,
			Score:    r.finalScore,
		}
	}

	logger.DebugContext(ctx, "retrieval completed",
		"candidates", len(candidates),
		"selected", len(sources),
	)

	prompt := buildPrompt(req.Question, sources)
	answer, err := e.generator.Complete(ctx, prompt, req.Temperature)
	if err != nil {
		logger.ErrorContext(ctx, "generation failed", "error", err)
		return Response{}, fmt.Errorf("%w: %v", service.ErrUpstreamGeneration, err)
	}

	resp := Response{
		Answer:  answer,
		Sources: sourceList(sources),
	}

	if req.Evaluate && e.evaluator != nil {
		chunks := make([]string, len(sources))
		for i, src := range sources {
			chunks[i] = src.Chunk.Text
		}
		resp.Evaluation = e.evaluator.Evaluate(ctx, req.Question, answer, chunks, len(sources))
	}

	logger.InfoContext(ctx, "query completed",
		"sources", len(resp.Sources),
		"answer_length", len(resp.Answer),
		"evaluated", resp.Evaluation != nil,
	)
	return resp, nil
}

func (e *Engine) validateRequest(req *Request) error {
	if req.Question == "" {
		return &service.ConfigError{Param: "question", Message: "must not be empty"}
	}
	if req.TopK == 0 {
		req.TopK = e.defaultTopK
	}
	if req.TopK < 1 || req.TopK > maxTopK {
		return &service.ConfigError{
			Param:   "top_k",
			Message: fmt.Sprintf("must be in [1, %d], got %d", maxTopK, req.TopK),
		}
	}
	if req.Temperature < 0 || req.Temperature > 1 {
		return &service.ConfigError{
			Param:   "temperature",
			Message: fmt.Sprintf("must be in [0.0, 1.0], got %g", req.Temperature),
		}
	}
	return nil
}

// buildPrompt wraps the assembled context with the answering instructions.
// The source count is stated explicitly so the model cannot invent an
// out-of-range citation.
func buildPrompt(question string, sources []RetrievedSource) string {
	return fmt.Sprintf(`Answer the question as precisely as possible using only the numbered sources below.
Cite the sources you use inline with the marker "Source N", where N is between 1 and %d.
If the sources do not contain the answer, say that the answer is not available in the provided context.

%s

Question: %s

Answer:`, len(sources), assembleContext(sources), question)
}
