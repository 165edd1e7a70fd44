package rag

import (
	"fmt"
	"strings"
)

// assembleContext builds the prompt context from the final ranked sources.
// Each chunk is preceded by a machine-parseable marker of the form
// [Source N: file, label], in source_id order, separated by blank lines.
// The numbering here is the same numbering surfaced to the user and to the
// evaluator; the generator cannot cite an index that does not exist because
// the prompt states the exact count of available sources.
func assembleContext(sources []RetrievedSource) string {
	var builder strings.Builder
	for i, src := range sources {
		if i > 0 {
			builder.WriteString("\n\n")
		}
		fmt.Fprintf(&builder, "[Source %d: %s, %s]\n%s",
			src.SourceID, src.Chunk.SourceFile, src.Chunk.Label, src.Chunk.Text)
	}
	return builder.String()
}

// sourceList builds the user-facing sources returned alongside the answer.
func sourceList(sources []RetrievedSource) []Source {
	list := make([]Source, len(sources))
	for i, src := range sources {
		list[i] = Source{
			SourceID:  src.SourceID,
			File:      src.Chunk.SourceFile,
			PageLabel: src.Chunk.Label,
			Preview:   src.Chunk.Preview,
		}
	}
	return list
}
