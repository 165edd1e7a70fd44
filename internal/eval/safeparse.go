package eval

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rasalabh/rag-rfp-chatbot/internal/service"
)

// parseStrategy identifies which recovery step produced a parsed object.
type parseStrategy int

const (
	strategyDirect parseStrategy = iota
	strategyBraceExtraction
	strategyFenceStripped
	strategyFailed
)

func (s parseStrategy) String() string {
	switch s {
	case strategyDirect:
		return "direct"
	case strategyBraceExtraction:
		return "brace_extraction"
	case strategyFenceStripped:
		return "fence_stripped"
	default:
		return "failed"
	}
}

// safeParse decodes raw judge output into v. Model output is expected to be
// a single JSON object but often arrives wrapped in prose, markdown fences,
// or with trailing commentary, so strategies are tried in order:
//
//  1. direct parse of the whole string
//  2. parse of the first balanced {...} span
//  3. fence stripping, then 1 and 2 again
//
// On total failure it reports which strategy chain was exhausted; callers
// degrade the metric rather than propagate the error.
func safeParse(raw string, v any) (parseStrategy, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return strategyFailed, fmt.Errorf("%w: empty judge output", service.ErrEvaluationParse)
	}

	if json.Unmarshal([]byte(trimmed), v) == nil {
		return strategyDirect, nil
	}

	if span, ok := firstBalancedObject(trimmed); ok {
		if json.Unmarshal([]byte(span), v) == nil {
			return strategyBraceExtraction, nil
		}
	}

	stripped := stripFences(trimmed)
	if stripped != trimmed {
		if json.Unmarshal([]byte(stripped), v) == nil {
			return strategyFenceStripped, nil
		}
		if span, ok := firstBalancedObject(stripped); ok {
			if json.Unmarshal([]byte(span), v) == nil {
				return strategyFenceStripped, nil
			}
		}
	}

	return strategyFailed, fmt.Errorf("%w: no strategy produced a JSON object", service.ErrEvaluationParse)
}

// firstBalancedObject returns the first balanced {...} span in s, counting
// brace depth while skipping braces inside string literals.
func firstBalancedObject(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}

		switch r {
		case '"':
			if start >= 0 {
				inString = true
			}
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// stripFences removes markdown code-fence lines (``` and ```json variants).
func stripFences(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
