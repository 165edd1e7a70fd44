package eval

// Verdict labels a metric or the overall evaluation.
type Verdict string

const (
	VerdictPass     Verdict = "PASS"
	VerdictMarginal Verdict = "MARGINAL"
	VerdictFail     Verdict = "FAIL"
	// VerdictError marks a metric whose judge output could not be parsed.
	// The score degrades to 0 and the raw output is kept for diagnosis.
	VerdictError Verdict = "ERROR"
)

// Metric thresholds and overall weights.
const (
	contextRelevanceThreshold = 0.7
	faithfulnessThreshold     = 0.8
	answerRelevanceThreshold  = 0.7
	citationQualityThreshold  = 0.6

	contextRelevanceWeight = 0.25
	faithfulnessWeight     = 0.35
	answerRelevanceWeight  = 0.25
	citationQualityWeight  = 0.15
)

// ChunkScore is a per-chunk relevance judgment within the context
// relevance metric.
type ChunkScore struct {
	// Context is the 1-based index of the chunk as numbered in the judge prompt.
	Context int     `json:"context"`
	Score   float64 `json:"score"`
	Reason  string  `json:"reason,omitempty"`
}

// Metric is one scored quality dimension.
type Metric struct {
	Name      string  `json:"metric"`
	Score     float64 `json:"score"`
	Threshold float64 `json:"threshold"`
	Verdict   Verdict `json:"verdict"`
	Reasoning string  `json:"reasoning,omitempty"`

	// Context relevance only.
	ChunkScores []ChunkScore `json:"chunk_scores,omitempty"`

	// Faithfulness only.
	SupportedClaims   []string `json:"supported_claims,omitempty"`
	UnsupportedClaims []string `json:"unsupported_claims,omitempty"`

	// Answer relevance only.
	MissingAspects []string `json:"missing_aspects,omitempty"`

	// Citation quality only.
	HasCitations  *bool    `json:"has_citations,omitempty"`
	UncitedClaims []string `json:"uncited_claims,omitempty"`
}

// Result is a complete evaluation of one query-answer pair. It lives for
// the duration of the response and is never persisted.
type Result struct {
	OverallScore   float64 `json:"overall_score"`
	OverallVerdict Verdict `json:"overall_verdict"`

	ContextRelevance Metric `json:"context_relevance"`
	Faithfulness     Metric `json:"faithfulness"`
	AnswerRelevance  Metric `json:"answer_relevance"`
	CitationQuality  Metric `json:"citation_quality"`

	Recommendations []string `json:"recommendations"`
}
