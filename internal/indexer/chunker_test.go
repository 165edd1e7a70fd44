package indexer

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rasalabh/rag-rfp-chatbot/internal/extract"
	"github.com/rasalabh/rag-rfp-chatbot/internal/service"
)

func TestNewChunker_Validation(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		wantErr bool
	}{
		{name: "valid defaults", size: 1000, overlap: 200, wantErr: false},
		{name: "minimum size", size: 100, overlap: 0, wantErr: false},
		{name: "maximum size", size: 2000, overlap: 500, wantErr: false},
		{name: "size too small", size: 99, overlap: 0, wantErr: true},
		{name: "size too large", size: 2001, overlap: 0, wantErr: true},
		{name: "negative overlap", size: 1000, overlap: -1, wantErr: true},
		{name: "overlap too large", size: 1000, overlap: 501, wantErr: true},
		{name: "overlap equals size", size: 200, overlap: 200, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewChunker(tt.size, tt.overlap)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewChunker(%d, %d) expected error, got nil", tt.size, tt.overlap)
				}
				if !errors.Is(err, service.ErrInvalidConfiguration) {
					t.Errorf("NewChunker(%d, %d) error = %v, want ErrInvalidConfiguration", tt.size, tt.overlap, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewChunker(%d, %d) unexpected error: %v", tt.size, tt.overlap, err)
			}
		})
	}
}

func TestChunker_Chunk_ExactOverlapCount(t *testing.T) {
	// Separator-free text forces hard cuts, so the chunk boundaries and
	// overlaps are exactly predictable: 3200 runes at size 800 with
	// overlap 150 advance by 650 per chunk.
	chunker, err := NewChunker(800, 150)
	if err != nil {
		t.Fatalf("NewChunker() error = %v", err)
	}

	doc := extract.Document{
		Name:  "dense.txt",
		Units: []extract.Unit{{Label: "paragraph 1", Text: strings.Repeat("a", 3200)}},
	}
	chunks := chunker.Chunk(doc)

	if len(chunks) != 5 {
		t.Fatalf("Chunk() produced %d chunks, want 5", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Text)
		curr := []rune(chunks[i].Text)
		if string(prev[len(prev)-150:]) != string(curr[:150]) {
			t.Errorf("Chunk() chunks %d and %d do not share a 150-rune overlap", i-1, i)
		}
	}
	last := chunks[len(chunks)-1]
	if got := utf8.RuneCountInString(last.Text); got != 600 {
		t.Errorf("Chunk() final chunk length = %d runes, want 600", got)
	}
}

func TestChunker_Chunk_Reconstruction(t *testing.T) {
	chunker, err := NewChunker(200, 50)
	if err != nil {
		t.Fatalf("NewChunker() error = %v", err)
	}

	original := strings.Repeat("The procurement deadline is firm. Vendors must respond in writing. ", 30)
	doc := extract.Document{
		Name:  "rfp.txt",
		Units: []extract.Unit{{Label: "paragraph 1", Text: original}},
	}
	chunks := chunker.Chunk(doc)
	if len(chunks) < 2 {
		t.Fatalf("Chunk() produced %d chunks, want at least 2", len(chunks))
	}

	// Dropping each chunk's leading overlap and concatenating must
	// reproduce the document exactly.
	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0].Text)
	for i := 1; i < len(chunks); i++ {
		runes := []rune(chunks[i].Text)
		rebuilt.WriteString(string(runes[50:]))
	}
	if rebuilt.String() != original {
		t.Error("Chunk() reconstruction does not match the original text")
	}
}

func TestChunker_Chunk_PositionsAndSeq(t *testing.T) {
	chunker, err := NewChunker(150, 30)
	if err != nil {
		t.Fatalf("NewChunker() error = %v", err)
	}

	doc := extract.Document{
		Name:  "long.txt",
		Units: []extract.Unit{{Label: "paragraph 1", Text: strings.Repeat("b", 1000)}},
	}
	chunks := chunker.Chunk(doc)
	if len(chunks) < 2 {
		t.Fatalf("Chunk() produced %d chunks, want at least 2", len(chunks))
	}

	prev := -1.0
	for i, chunk := range chunks {
		if chunk.Seq != i {
			t.Errorf("Chunk() chunk[%d].Seq = %d, want %d", i, chunk.Seq, i)
		}
		if chunk.Position < 0 || chunk.Position >= 1 {
			t.Errorf("Chunk() chunk[%d].Position = %g, want in [0, 1)", i, chunk.Position)
		}
		if chunk.Position <= prev {
			t.Errorf("Chunk() chunk[%d].Position = %g, not increasing past %g", i, chunk.Position, prev)
		}
		prev = chunk.Position
	}
	if chunks[0].Position != 0 {
		t.Errorf("Chunk() first chunk Position = %g, want 0", chunks[0].Position)
	}
}

func TestChunker_Chunk_LabelFromStartingUnit(t *testing.T) {
	chunker, err := NewChunker(100, 0)
	if err != nil {
		t.Fatalf("NewChunker() error = %v", err)
	}

	doc := extract.Document{
		Name: "pages.pdf",
		Units: []extract.Unit{
			{Label: "page 1", Text: strings.Repeat("x", 150)},
			{Label: "page 2", Text: strings.Repeat("y", 150)},
		},
	}
	chunks := chunker.Chunk(doc)
	if len(chunks) < 3 {
		t.Fatalf("Chunk() produced %d chunks, want at least 3", len(chunks))
	}

	if chunks[0].Label != "page 1" {
		t.Errorf("Chunk() chunk[0].Label = %q, want page 1", chunks[0].Label)
	}
	last := chunks[len(chunks)-1]
	if last.Label != "page 2" {
		t.Errorf("Chunk() last chunk Label = %q, want page 2", last.Label)
	}
	for i, chunk := range chunks {
		if chunk.SourceFile != "pages.pdf" {
			t.Errorf("Chunk() chunk[%d].SourceFile = %q, want pages.pdf", i, chunk.SourceFile)
		}
	}
}

func TestChunker_Chunk_PrefersSeparators(t *testing.T) {
	chunker, err := NewChunker(100, 20)
	if err != nil {
		t.Fatalf("NewChunker() error = %v", err)
	}

	text := strings.Repeat("w", 60) + "\n\n" + strings.Repeat("v", 200)
	doc := extract.Document{
		Name:  "split.txt",
		Units: []extract.Unit{{Label: "paragraph 1", Text: text}},
	}
	chunks := chunker.Chunk(doc)
	if len(chunks) < 2 {
		t.Fatalf("Chunk() produced %d chunks, want at least 2", len(chunks))
	}
	if !strings.HasSuffix(chunks[0].Text, "\n\n") {
		t.Errorf("Chunk() chunk[0] should end at the paragraph break, got %q tail", chunks[0].Text[len(chunks[0].Text)-5:])
	}
}

func TestChunker_Chunk_ShortAndEmptyDocuments(t *testing.T) {
	chunker, err := NewChunker(1000, 200)
	if err != nil {
		t.Fatalf("NewChunker() error = %v", err)
	}

	short := extract.Document{
		Name:  "short.txt",
		Units: []extract.Unit{{Label: "paragraph 1", Text: "One small paragraph."}},
	}
	chunks := chunker.Chunk(short)
	if len(chunks) != 1 {
		t.Fatalf("Chunk() produced %d chunks for a short document, want 1", len(chunks))
	}
	if chunks[0].Text != "One small paragraph." {
		t.Errorf("Chunk() chunk text = %q, want the whole document", chunks[0].Text)
	}
	if chunks[0].Preview != chunks[0].Text {
		t.Errorf("Chunk() preview = %q, want full text for short chunks", chunks[0].Preview)
	}

	empty := extract.Document{Name: "empty.txt"}
	if got := chunker.Chunk(empty); len(got) != 0 {
		t.Errorf("Chunk() produced %d chunks for an empty document, want 0", len(got))
	}
}

func TestChunker_Chunk_PreviewLength(t *testing.T) {
	chunker, err := NewChunker(500, 0)
	if err != nil {
		t.Fatalf("NewChunker() error = %v", err)
	}

	doc := extract.Document{
		Name:  "long.txt",
		Units: []extract.Unit{{Label: "paragraph 1", Text: strings.Repeat("z", 400)}},
	}
	chunks := chunker.Chunk(doc)
	if len(chunks) != 1 {
		t.Fatalf("Chunk() produced %d chunks, want 1", len(chunks))
	}
	if got := utf8.RuneCountInString(chunks[0].Preview); got != previewRunes {
		t.Errorf("Chunk() preview length = %d runes, want %d", got, previewRunes)
	}
}
