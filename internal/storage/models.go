package storage

import "time"

// Document is the registry record for one ingested file. The registry
// reflects the last completed ingest; deleting a file does not touch its
// record (or its chunks in the index) until the next rebuild.
type Document struct {
	ID         string // UUID
	Filename   string // Base name within the data directory
	SizeBytes  int64
	Hash       string // SHA256 hex string of file content
	Units      int    // Logical units extracted (pages, sections, paragraphs)
	Chunks     int    // Chunks produced by the last ingest
	IngestedAt time.Time
}

// IngestRun records the parameters and outcome of one full rebuild.
type IngestRun struct {
	ID           int
	ChunkSize    int
	ChunkOverlap int
	Documents    int
	Chunks       int
	CreatedAt    time.Time
}
