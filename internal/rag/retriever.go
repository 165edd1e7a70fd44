package rag

import (
	"sort"
	"strings"
	"unicode"

	"github.com/rasalabh/rag-rfp-chatbot/internal/vectorstore"
)

// Blend weights for the two retrieval stages. Semantic search finds topically
// related chunks; exact keyword overlap recovers precision for the numeric and
// named-entity queries common in structured documents.
const (
	semanticWeight = 0.7
	keywordWeight  = 0.3
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {}, "by": {},
	"for": {}, "from": {}, "has": {}, "have": {}, "in": {}, "is": {}, "it": {}, "of": {}, "on": {},
	"or": {}, "the": {}, "to": {}, "was": {}, "were": {}, "what": {}, "which": {}, "with": {},
}

// rankedCandidate carries a stage-1 result through the rerank.
type rankedCandidate struct {
	result       vectorstore.SearchResult
	semanticRank int
	keywordScore float64
	finalScore   float64
}

// rerank reorders semantic candidates by the blended score
// 0.7*semantic + 0.3*keyword. The keyword score is the fraction of the
// query's content terms present in the chunk text, so it is normalized to
// [0, 1]. Ties keep the original semantic order, making the final ranking a
// deterministic function of (query, candidates).
func rerank(query string, candidates []vectorstore.SearchResult) []rankedCandidate {
	terms := queryTerms(query)

	ranked := make([]rankedCandidate, len(candidates))
	for i, cand := range candidates {
		kw := keywordOverlap(terms, cand.Chunk.Text)
		ranked[i] = rankedCandidate{
			result:       cand,
			semanticRank: i,
			keywordScore: kw,
			finalScore:   semanticWeight*float64(cand.Score) + keywordWeight*kw,
		}
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].finalScore > ranked[b].finalScore
	})
	return ranked
}

// queryTerms tokenizes the query case-insensitively and drops stopwords,
// returning the distinct content terms.
func queryTerms(query string) []string {
	seen := make(map[string]struct{})
	var terms []string
	for _, token := range tokenize(query) {
		if _, isStop := stopwords[token]; isStop {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		terms = append(terms, token)
	}
	return terms
}

// keywordOverlap returns the fraction of query terms present in the chunk.
func keywordOverlap(terms []string, chunkText string) float64 {
	if len(terms) == 0 {
		return 0
	}

	chunkSet := make(map[string]struct{})
	for _, token := range tokenize(chunkText) {
		chunkSet[token] = struct{}{}
	}

	matched := 0
	for _, term := range terms {
		if _, ok := chunkSet[term]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

func tokenize(text string) []string {
	var builder strings.Builder
	builder.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}
	return strings.Fields(builder.String())
}
