package eval

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rasalabh/rag-rfp-chatbot/internal/contextutil"
)

const (
	// judgeTemperature keeps metric scoring deterministic across runs.
	judgeTemperature = 0.0
	// maxJudgeChunkRunes truncates each retrieved chunk in judge prompts.
	maxJudgeChunkRunes = 500
	// maxErrorReasoningRunes bounds the raw output kept on a parse failure.
	maxErrorReasoningRunes = 300
)

// Generator is the judge-model contract: prompt in, free text out.
type Generator interface {
	Complete(ctx context.Context, prompt string, temperature float32) (string, error)
}

// Evaluator scores a generated answer along four quality dimensions using a
// second model invocation per metric with a JSON-only output contract.
// Judge failures never abort an evaluation; the affected metric degrades to
// an ERROR verdict instead.
type Evaluator struct {
	judge Generator
}

// New creates an Evaluator backed by the given judge model.
func New(judge Generator) *Evaluator {
	return &Evaluator{judge: judge}
}

// Evaluate scores the (query, answer, retrieved chunks) triple. sourceCount
// is the number of numbered sources the answer was allowed to cite.
func (e *Evaluator) Evaluate(ctx context.Context, query, answer string, chunks []string, sourceCount int) *Result {
	logger := contextutil.LoggerFromContext(ctx)

	truncated := make([]string, len(chunks))
	for i, c := range chunks {
		truncated[i] = truncateRunes(c, maxJudgeChunkRunes)
	}

	result := &Result{
		ContextRelevance: e.contextRelevance(ctx, query, truncated),
		Faithfulness:     e.faithfulness(ctx, answer, truncated),
		AnswerRelevance:  e.answerRelevance(ctx, query, answer),
		CitationQuality:  citationQuality(answer, sourceCount),
	}

	result.OverallScore = contextRelevanceWeight*result.ContextRelevance.Score +
		faithfulnessWeight*result.Faithfulness.Score +
		answerRelevanceWeight*result.AnswerRelevance.Score +
		citationQualityWeight*result.CitationQuality.Score

	switch {
	case result.OverallScore >= 0.7:
		result.OverallVerdict = VerdictPass
	case result.OverallScore >= 0.5:
		result.OverallVerdict = VerdictMarginal
	default:
		result.OverallVerdict = VerdictFail
	}

	result.Recommendations = recommendations(result)

	logger.InfoContext(ctx, "evaluation completed",
		"overall_score", result.OverallScore,
		"overall_verdict", result.OverallVerdict,
	)
	return result
}

// contextRelevance asks the judge to score each retrieved chunk against the
// query; the metric score is the per-chunk average.
func (e *Evaluator) contextRelevance(ctx context.Context, query string, chunks []string) Metric {
	metric := Metric{Name: "context_relevance", Threshold: contextRelevanceThreshold}
	if len(chunks) == 0 {
		metric.Verdict = VerdictFail
		metric.Reasoning = "no context was retrieved"
		return metric
	}

	var contextsBlock strings.Builder
	for i, c := range chunks {
		fmt.Fprintf(&contextsBlock, "Context %d: %s\n\n", i+1, c)
	}

	prompt := fmt.Sprintf(`Rate how relevant each context is to the query on a scale of 0 to 1
(0 = completely irrelevant, 1 = highly relevant).

Query: %s

%s
Respond with a single JSON object and nothing else, matching exactly:
{"contexts": [{"context": 1, "score": 0.0, "reason": "brief reason"}]}
Include one entry per context, numbered as above.`, query, contextsBlock.String())

	var parsed struct {
		Contexts []ChunkScore `json:"contexts"`
	}
	if errMetric, ok := e.invoke(ctx, prompt, &parsed, &metric); !ok {
		return errMetric
	}
	if len(parsed.Contexts) == 0 {
		return degraded(metric, "judge returned no per-context scores")
	}

	var sum float64
	for i := range parsed.Contexts {
		parsed.Contexts[i].Score = clamp01(parsed.Contexts[i].Score)
		sum += parsed.Contexts[i].Score
	}
	metric.Score = sum / float64(len(parsed.Contexts))
	metric.ChunkScores = parsed.Contexts
	metric.Reasoning = fmt.Sprintf("averaged over %d retrieved contexts", len(parsed.Contexts))
	metric.Verdict = passFail(metric.Score, metric.Threshold)
	return metric
}

// faithfulness asks the judge what fraction of the answer's claims are
// traceable to the retrieved context, listing unsupported claims verbatim.
func (e *Evaluator) faithfulness(ctx context.Context, answer string, chunks []string) Metric {
	metric := Metric{Name: "faithfulness", Threshold: faithfulnessThreshold}

	var contextsBlock strings.Builder
	for i, c := range chunks {
		fmt.Fprintf(&contextsBlock, "Context %d: %s\n\n", i+1, c)
	}

	prompt := fmt.Sprintf(`Check whether every claim in the answer is supported by the contexts.
The score is the fraction of claims traceable to the contexts (0 to 1).
Quote unsupported claims verbatim.

Contexts:
%s
Answer: %s

Respond with a single JSON object and nothing else, matching exactly:
{"score": 0.0, "supported_claims": ["..."], "unsupported_claims": ["..."], "reasoning": "..."}`,
		contextsBlock.String(), answer)

	var parsed struct {
		Score             float64  `json:"score"`
		SupportedClaims   []string `json:"supported_claims"`
		UnsupportedClaims []string `json:"unsupported_claims"`
		Reasoning         string   `json:"reasoning"`
	}
	if errMetric, ok := e.invoke(ctx, prompt, &parsed, &metric); !ok {
		return errMetric
	}

	metric.Score = clamp01(parsed.Score)
	metric.SupportedClaims = parsed.SupportedClaims
	metric.UnsupportedClaims = parsed.UnsupportedClaims
	metric.Reasoning = parsed.Reasoning
	metric.Verdict = passFail(metric.Score, metric.Threshold)
	return metric
}

// answerRelevance asks the judge how directly the answer addresses the query.
func (e *Evaluator) answerRelevance(ctx context.Context, query, answer string) Metric {
	metric := Metric{Name: "answer_relevance", Threshold: answerRelevanceThreshold}

	prompt := fmt.Sprintf(`Rate how well the answer addresses the query on a scale of 0 to 1.
List aspects of the query the answer fails to address.

Query: %s

Answer: %s

Respond with a single JSON object and nothing else, matching exactly:
{"score": 0.0, "missing_aspects": ["..."], "reasoning": "..."}`, query, answer)

	var parsed struct {
		Score          float64  `json:"score"`
		MissingAspects []string `json:"missing_aspects"`
		Reasoning      string   `json:"reasoning"`
	}
	if errMetric, ok := e.invoke(ctx, prompt, &parsed, &metric); !ok {
		return errMetric
	}

	metric.Score = clamp01(parsed.Score)
	metric.MissingAspects = parsed.MissingAspects
	metric.Reasoning = parsed.Reasoning
	metric.Verdict = passFail(metric.Score, metric.Threshold)
	return metric
}

var sourceMarker = regexp.MustCompile(`(?i)\bsource\s+(\d+)\b`)

// citationQuality checks that citation markers are present and consistent
// with the available source count. Both inputs are machine-checkable, so
// this metric is scored by rule rather than by the judge.
func citationQuality(answer string, sourceCount int) Metric {
	no := false
	yes := true
	metric := Metric{Name: "citation_quality", Threshold: citationQualityThreshold}

	markers := sourceMarker.FindAllStringSubmatch(answer, -1)
	claims := splitClaims(answer)

	if len(markers) == 0 {
		metric.Score = 0
		metric.HasCitations = &no
		metric.UncitedClaims = claims
		metric.Verdict = VerdictFail
		metric.Reasoning = "the answer contains no Source N citation markers"
		return metric
	}

	valid := 0
	for _, m := range markers {
		var n int
		fmt.Sscanf(m[1], "%d", &n)
		if n >= 1 && n <= sourceCount {
			valid++
		}
	}
	validFraction := float64(valid) / float64(len(markers))

	cited := 0
	var uncited []string
	for _, claim := range claims {
		if sourceMarker.MatchString(claim) {
			cited++
		} else {
			uncited = append(uncited, claim)
		}
	}
	coverage := 1.0
	if len(claims) > 0 {
		coverage = float64(cited) / float64(len(claims))
	}

	metric.Score = clamp01(0.4 + 0.3*validFraction + 0.3*coverage)
	metric.HasCitations = &yes
	metric.UncitedClaims = uncited
	metric.Verdict = passFail(metric.Score, metric.Threshold)
	metric.Reasoning = fmt.Sprintf("%d markers (%d within the %d available sources), %d of %d claims cited",
		len(markers), valid, sourceCount, cited, len(claims))
	return metric
}

// invoke runs one judge call and parses its JSON output. On any failure the
// metric is degraded in place and returned with ok=false; nothing propagates.
func (e *Evaluator) invoke(ctx context.Context, prompt string, parsed any, metric *Metric) (Metric, bool) {
	logger := contextutil.LoggerFromContext(ctx)

	raw, err := e.judge.Complete(ctx, prompt, judgeTemperature)
	if err != nil {
		logger.WarnContext(ctx, "judge call failed", "metric", metric.Name, "error", err)
		return degraded(*metric, fmt.Sprintf("judge call failed: %v", err)), false
	}

	strategy, err := safeParse(raw, parsed)
	if err != nil {
		logger.WarnContext(ctx, "judge output unparseable", "metric", metric.Name, "error", err)
		return degraded(*metric, truncateRunes(raw, maxErrorReasoningRunes)), false
	}
	if strategy != strategyDirect {
		logger.DebugContext(ctx, "judge output recovered", "metric", metric.Name, "strategy", strategy.String())
	}
	return Metric{}, true
}

// degraded returns the metric with score 0 and an ERROR verdict, keeping
// diagnostic text in the reasoning field.
func degraded(metric Metric, reasoning string) Metric {
	metric.Score = 0
	metric.Verdict = VerdictError
	metric.Reasoning = reasoning
	return metric
}

// recommendations is a deterministic rule pass over the four scores.
func recommendations(r *Result) []string {
	var recs []string
	for _, m := range []Metric{r.ContextRelevance, r.Faithfulness, r.AnswerRelevance, r.CitationQuality} {
		if m.Verdict == VerdictError {
			recs = append(recs, fmt.Sprintf("Judge output for %s could not be parsed; re-run the evaluation.", m.Name))
		}
	}
	if r.ContextRelevance.Verdict != VerdictError && r.ContextRelevance.Score < contextRelevanceThreshold {
		recs = append(recs, "Low context relevance: adjust the chunk size or raise the candidate count (top_k).")
	}
	if r.Faithfulness.Verdict != VerdictError && r.Faithfulness.Score < faithfulnessThreshold {
		recs = append(recs, "Low faithfulness: lower the temperature or tighten the context-only instruction.")
	}
	if r.AnswerRelevance.Verdict != VerdictError && r.AnswerRelevance.Score < answerRelevanceThreshold {
		recs = append(recs, "Low answer relevance: rephrase the query or improve context retrieval.")
	}
	if r.CitationQuality.Verdict != VerdictError && r.CitationQuality.Score < citationQualityThreshold {
		recs = append(recs, "Weak citations: require a Source N marker for every claim in the answer.")
	}
	if len(recs) == 0 {
		recs = append(recs, "All metrics are above their thresholds.")
	}
	return recs
}

func passFail(score, threshold float64) Verdict {
	if score >= threshold {
		return VerdictPass
	}
	return VerdictFail
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// splitClaims breaks an answer into sentence-level claims, dropping
// fragments too short to carry a factual statement.
func splitClaims(answer string) []string {
	parts := strings.FieldsFunc(answer, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
	var claims []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if len([]rune(p)) >= 20 {
			claims = append(claims, p)
		}
	}
	return claims
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
