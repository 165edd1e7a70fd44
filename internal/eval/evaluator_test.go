package eval

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
)

// scriptedJudge replays canned responses in call order and records prompts.
type scriptedJudge struct {
	responses []string
	err       error
	prompts   []string
}

func (s *scriptedJudge) Complete(_ context.Context, prompt string, _ float32) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	i := len(s.prompts) - 1
	if i >= len(s.responses) {
		return "", errors.New("no scripted response left")
	}
	return s.responses[i], nil
}

const citedAnswer = "The deadline is March 15 according to Source 1. Vendors must submit sealed bids as stated in Source 2."

func goodJudgeResponses() []string {
	return []string{
		`{"contexts": [{"context": 1, "score": 0.8, "reason": "on topic"}, {"context": 2, "score": 0.6, "reason": "partial"}]}`,
		`{"score": 0.9, "supported_claims": ["deadline"], "unsupported_claims": [], "reasoning": "grounded"}`,
		`{"score": 0.8, "missing_aspects": [], "reasoning": "direct"}`,
	}
}

func TestEvaluator_Evaluate_WeightedOverall(t *testing.T) {
	judge := &scriptedJudge{responses: goodJudgeResponses()}
	result := New(judge).Evaluate(context.Background(), "When is the deadline?", citedAnswer,
		[]string{"chunk one", "chunk two"}, 2)

	if got := result.ContextRelevance.Score; math.Abs(got-0.7) > 1e-9 {
		t.Errorf("Evaluate() context relevance = %g, want 0.7", got)
	}
	if got := result.Faithfulness.Score; got != 0.9 {
		t.Errorf("Evaluate() faithfulness = %g, want 0.9", got)
	}
	if got := result.AnswerRelevance.Score; got != 0.8 {
		t.Errorf("Evaluate() answer relevance = %g, want 0.8", got)
	}
	// Both markers are valid and both claims carry one, so the rule-based
	// citation metric maxes out at 1.0.
	if got := result.CitationQuality.Score; got != 1.0 {
		t.Errorf("Evaluate() citation quality = %g, want 1.0", got)
	}

	want := 0.25*0.7 + 0.35*0.9 + 0.25*0.8 + 0.15*1.0
	if math.Abs(result.OverallScore-want) > 1e-9 {
		t.Errorf("Evaluate() overall = %g, want %g", result.OverallScore, want)
	}
	if result.OverallVerdict != VerdictPass {
		t.Errorf("Evaluate() verdict = %s, want PASS", result.OverallVerdict)
	}
	if len(result.Recommendations) != 1 || !strings.Contains(result.Recommendations[0], "above their thresholds") {
		t.Errorf("Evaluate() recommendations = %v, want the all-clear line", result.Recommendations)
	}
}

func TestEvaluator_Evaluate_NoCitations(t *testing.T) {
	judge := &scriptedJudge{responses: goodJudgeResponses()}
	answer := "The deadline is March 15 and all bids must be sealed before submission."
	result := New(judge).Evaluate(context.Background(), "When is the deadline?", answer,
		[]string{"chunk one", "chunk two"}, 2)

	cq := result.CitationQuality
	if cq.Score != 0 {
		t.Errorf("Evaluate() citation quality = %g, want 0", cq.Score)
	}
	if cq.Verdict != VerdictFail {
		t.Errorf("Evaluate() citation verdict = %s, want FAIL", cq.Verdict)
	}
	if cq.HasCitations == nil || *cq.HasCitations {
		t.Error("Evaluate() has_citations should be false when no markers are present")
	}
	if len(cq.UncitedClaims) == 0 {
		t.Error("Evaluate() uncited_claims should list the answer's claims")
	}

	found := false
	for _, rec := range result.Recommendations {
		if strings.Contains(rec, "citation") || strings.Contains(rec, "Source N") {
			found = true
		}
	}
	if !found {
		t.Errorf("Evaluate() recommendations = %v, want a citation recommendation", result.Recommendations)
	}
}

func TestEvaluator_Evaluate_OutOfRangeMarkers(t *testing.T) {
	judge := &scriptedJudge{responses: goodJudgeResponses()}
	answer := "The deadline is March 15 according to Source 7. Vendors must submit sealed bids as stated in Source 1."
	result := New(judge).Evaluate(context.Background(), "When is the deadline?", answer,
		[]string{"chunk one"}, 2)

	cq := result.CitationQuality
	if cq.HasCitations == nil || !*cq.HasCitations {
		t.Error("Evaluate() has_citations should be true when markers are present")
	}
	// One of two markers is in range and both claims are cited:
	// 0.4 + 0.3*0.5 + 0.3*1.0 = 0.85.
	if math.Abs(cq.Score-0.85) > 1e-9 {
		t.Errorf("Evaluate() citation quality = %g, want 0.85", cq.Score)
	}
}

func TestEvaluator_Evaluate_UnparseableJudge(t *testing.T) {
	judge := &scriptedJudge{responses: []string{
		"I refuse to answer in JSON.",
		"Still no JSON here.",
		"Nope.",
	}}
	result := New(judge).Evaluate(context.Background(), "When is the deadline?", citedAnswer,
		[]string{"chunk one"}, 2)

	for _, m := range []Metric{result.ContextRelevance, result.Faithfulness, result.AnswerRelevance} {
		if m.Verdict != VerdictError {
			t.Errorf("Evaluate() %s verdict = %s, want ERROR", m.Name, m.Verdict)
		}
		if m.Score != 0 {
			t.Errorf("Evaluate() %s score = %g, want 0", m.Name, m.Score)
		}
		if m.Reasoning == "" {
			t.Errorf("Evaluate() %s reasoning should keep the raw judge output", m.Name)
		}
	}

	// Citation quality never consults the judge, so it survives.
	if result.CitationQuality.Verdict == VerdictError {
		t.Error("Evaluate() citation quality should not degrade on judge failure")
	}

	reruns := 0
	for _, rec := range result.Recommendations {
		if strings.Contains(rec, "re-run") {
			reruns++
		}
	}
	if reruns != 3 {
		t.Errorf("Evaluate() re-run recommendations = %d, want 3", reruns)
	}
}

func TestEvaluator_Evaluate_JudgeCallFailure(t *testing.T) {
	judge := &scriptedJudge{err: errors.New("connection refused")}
	result := New(judge).Evaluate(context.Background(), "When is the deadline?", citedAnswer,
		[]string{"chunk one"}, 2)

	if result.ContextRelevance.Verdict != VerdictError {
		t.Errorf("Evaluate() context relevance verdict = %s, want ERROR", result.ContextRelevance.Verdict)
	}
	if result.OverallVerdict != VerdictFail {
		t.Errorf("Evaluate() overall verdict = %s, want FAIL", result.OverallVerdict)
	}
}

func TestEvaluator_Evaluate_TruncatesJudgeChunks(t *testing.T) {
	judge := &scriptedJudge{responses: goodJudgeResponses()}
	long := strings.Repeat("x", 600)
	New(judge).Evaluate(context.Background(), "When is the deadline?", citedAnswer, []string{long}, 2)

	if len(judge.prompts) < 2 {
		t.Fatalf("Evaluate() made %d judge calls, want at least 2", len(judge.prompts))
	}
	for i, prompt := range judge.prompts[:2] {
		if strings.Contains(prompt, long) {
			t.Errorf("Evaluate() prompt %d contains the untruncated chunk", i)
		}
		if !strings.Contains(prompt, strings.Repeat("x", 500)+"...") {
			t.Errorf("Evaluate() prompt %d should contain the 500-rune truncation", i)
		}
	}
}
