package rag

import (
	"github.com/rasalabh/rag-rfp-chatbot/internal/eval"
	"github.com/rasalabh/rag-rfp-chatbot/internal/indexer"
)

// Request is one RAG query.
type Request struct {
	// Question is the user's natural-language query.
	Question string `json:"question"`
	// TopK is the stage-1 semantic candidate count, in [1, 10].
	// Zero selects the configured default.
	TopK int `json:"top_k,omitempty"`
	// Temperature controls generation randomness, in [0.0, 1.0].
	Temperature float32 `json:"temperature,omitempty"`
	// Evaluate runs the answer through the evaluator when true.
	Evaluate bool `json:"evaluate,omitempty"`
}

// Source is a user-facing reference to a retrieved chunk. SourceID matches
// the [Source N: ...] numbering inside the prompt context exactly.
type Source struct {
	SourceID  int    `json:"source_id"`
	File      string `json:"file"`
	PageLabel string `json:"page_label"`
	Preview   string `json:"preview"`
}

// Response is the result of one RAG query.
type Response struct {
	Answer     string       `json:"answer"`
	Sources    []Source     `json:"sources"`
	Evaluation *eval.Result `json:"evaluation,omitempty"`
}

// RetrievedSource is a ranked chunk from one query's result set.
// SourceID is 1-based and contiguous within the result set.
type RetrievedSource struct {
	SourceID int
	Chunk    indexer.Chunk
	// Score is the blended semantic + keyword score used for the final ranking.
	Score float64
}
