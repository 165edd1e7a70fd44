package rag

import (
	"strings"
	"testing"

	"github.com/rasalabh/rag-rfp-chatbot/internal/indexer"
)

func testSources() []RetrievedSource {
	return []RetrievedSource{
		{SourceID: 1, Chunk: indexer.Chunk{Text: "The deadline is March 15.", SourceFile: "rfp.pdf", Label: "page 3", Preview: "The deadline"}},
		{SourceID: 2, Chunk: indexer.Chunk{Text: "Bids must be sealed.", SourceFile: "rules.md", Label: "Submission", Preview: "Bids must"}},
	}
}

func TestAssembleContext(t *testing.T) {
	got := assembleContext(testSources())

	want := "[Source 1: rfp.pdf, page 3]\nThe deadline is March 15.\n\n[Source 2: rules.md, Submission]\nBids must be sealed."
	if got != want {
		t.Errorf("assembleContext() = %q, want %q", got, want)
	}
}

func TestAssembleContext_MarkerPerSource(t *testing.T) {
	got := assembleContext(testSources())

	for _, marker := range []string{"[Source 1: ", "[Source 2: "} {
		if !strings.Contains(got, marker) {
			t.Errorf("assembleContext() missing marker %q", marker)
		}
	}
	if strings.Count(got, "[Source") != 2 {
		t.Errorf("assembleContext() marker count = %d, want 2", strings.Count(got, "[Source"))
	}
}

func TestAssembleContext_Empty(t *testing.T) {
	if got := assembleContext(nil); got != "" {
		t.Errorf("assembleContext(nil) = %q, want empty", got)
	}
}

func TestSourceList(t *testing.T) {
	list := sourceList(testSources())

	if len(list) != 2 {
		t.Fatalf("sourceList() returned %d sources, want 2", len(list))
	}
	for i, src := range list {
		if src.SourceID != i+1 {
			t.Errorf("sourceList()[%d].SourceID = %d, want %d", i, src.SourceID, i+1)
		}
	}
	if list[0].File != "rfp.pdf" || list[0].PageLabel != "page 3" {
		t.Errorf("sourceList()[0] = %+v, want rfp.pdf / page 3", list[0])
	}
	if list[1].Preview != "Bids must" {
		t.Errorf("sourceList()[1].Preview = %q, want the chunk preview", list[1].Preview)
	}
}
