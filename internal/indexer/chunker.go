package indexer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rasalabh/rag-rfp-chatbot/internal/extract"
	"github.com/rasalabh/rag-rfp-chatbot/internal/service"
)

const (
	minChunkSize    = 100
	maxChunkSize    = 2000
	maxChunkOverlap = 500
	previewRunes    = 100
)

// separators tried from coarsest to finest when looking for a split point.
// The empty separator means a hard character cut.
var separators = []string{"\n\n", "\n", ". ", ", ", " ", ""}

// unitJoin separates logical units when a document is flattened for chunking.
const unitJoin = "\n\n"

// Chunker splits extracted documents into overlapping character chunks,
// preferring paragraph, sentence, and word boundaries over hard cuts.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker validates the chunking parameters and returns a Chunker.
// size must be in [100, 2000], overlap in [0, 500] and strictly less than size.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size < minChunkSize || size > maxChunkSize {
		return nil, &service.ConfigError{
			Param:   "chunk_size",
			Message: fmt.Sprintf("must be in [%d, %d], got %d", minChunkSize, maxChunkSize, size),
		}
	}
	if overlap < 0 || overlap > maxChunkOverlap {
		return nil, &service.ConfigError{
			Param:   "chunk_overlap",
			Message: fmt.Sprintf("must be in [0, %d], got %d", maxChunkOverlap, overlap),
		}
	}
	if overlap >= size {
		return nil, &service.ConfigError{
			Param:   "chunk_overlap",
			Message: fmt.Sprintf("overlap (%d) must be less than chunk size (%d)", overlap, size),
		}
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Chunk splits a document into an ordered sequence of chunks covering the
// whole text. Each chunk overlaps the previous chunk's tail by the configured
// overlap, so concatenating chunks minus their overlaps reconstructs the
// document exactly. Sizes and offsets are measured in runes.
func (c *Chunker) Chunk(doc extract.Document) []Chunk {
	full, unitStarts := flatten(doc)
	if len(full) == 0 {
		return nil
	}

	total := len(full)
	var chunks []Chunk
	start := 0
	for {
		cut := c.splitPoint(full, start)
		text := string(full[start:cut])
		chunks = append(chunks, Chunk{
			Seq:        len(chunks),
			Text:       text,
			SourceFile: doc.Name,
			Label:      labelAt(doc, unitStarts, start),
			Position:   float64(start) / float64(total),
			Preview:    preview(text),
			Start:      start,
		})
		if cut >= total {
			break
		}
		start = cut - c.overlap
	}
	return chunks
}

// splitPoint returns the rune offset at which the chunk starting at start
// should end. It tries each separator from coarsest to finest within the
// chunk budget and falls back to a hard cut at the budget boundary. A split
// is only accepted if it advances past the overlap, so the next chunk always
// makes progress.
func (c *Chunker) splitPoint(runes []rune, start int) int {
	end := start + c.size
	if end >= len(runes) {
		return len(runes)
	}

	window := string(runes[start:end])
	for _, sep := range separators {
		if sep == "" {
			break
		}
		idx := strings.LastIndex(window, sep)
		if idx < 0 {
			continue
		}
		cut := start + utf8.RuneCountInString(window[:idx]) + utf8.RuneCountInString(sep)
		if cut-start > c.overlap {
			return cut
		}
	}
	return end
}

// flatten joins a document's unit texts and records each unit's start offset
// in the joined rune sequence.
func flatten(doc extract.Document) ([]rune, []int) {
	var builder strings.Builder
	starts := make([]int, 0, len(doc.Units))
	offset := 0
	for i, unit := range doc.Units {
		if i > 0 {
			builder.WriteString(unitJoin)
			offset += utf8.RuneCountInString(unitJoin)
		}
		starts = append(starts, offset)
		builder.WriteString(unit.Text)
		offset += utf8.RuneCountInString(unit.Text)
	}
	return []rune(builder.String()), starts
}

// labelAt returns the label of the unit containing the given rune offset.
func labelAt(doc extract.Document, unitStarts []int, offset int) string {
	label := ""
	for i, start := range unitStarts {
		if start > offset {
			break
		}
		label = doc.Units[i].Label
	}
	return label
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewRunes {
		return text
	}
	return string(runes[:previewRunes])
}
