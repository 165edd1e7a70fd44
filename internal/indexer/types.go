package indexer

// Chunk is a contiguous span of source-document text with positional
// metadata, the unit of embedding and retrieval.
type Chunk struct {
	// ID is the chunk identifier, unique across the whole index.
	// Assigned by the ingest pipeline in insertion order.
	ID int
	// Seq is the chunk's sequence index within its source document.
	Seq int
	// Text is the chunk content.
	Text string
	// SourceFile is the name of the originating document.
	SourceFile string
	// Label is the page/sheet/paragraph label of the unit the chunk starts in.
	// A chunk spanning a unit boundary keeps its starting unit's label.
	Label string
	// Position is the chunk's fractional start offset within the document,
	// in [0, 1]. Non-decreasing across a document's chunk sequence.
	Position float64
	// Preview is the first ~100 characters of Text.
	Preview string
	// Start is the chunk's rune offset within the joined document text.
	Start int
}
