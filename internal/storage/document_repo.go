package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks github.com/rasalabh/rag-rfp-chatbot/internal/storage DocumentStore

import (
	"context"
	"database/sql"
	"fmt"
)

// DocumentStore defines the interface for document registry operations.
type DocumentStore interface {
	// ReplaceAll replaces the whole registry with the given documents in a
	// single transaction. Used after a full index rebuild.
	ReplaceAll(ctx context.Context, docs []Document) error
	// ListAll returns all registered documents ordered by filename.
	ListAll(ctx context.Context) ([]Document, error)
	// RecordRun appends an ingest run record.
	RecordRun(ctx context.Context, run *IngestRun) error
	// LatestRun returns the most recent ingest run, or nil when none exists.
	LatestRun(ctx context.Context) (*IngestRun, error)
}

// DocumentRepo provides methods for document registry operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// ReplaceAll replaces the whole registry with the given documents.
func (r *DocumentRepo) ReplaceAll(ctx context.Context, docs []Document) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		return fmt.Errorf("failed to clear documents: %w", err)
	}
	for _, doc := range docs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO documents (id, filename, size_bytes, hash, units, chunks) VALUES (?, ?, ?, ?, ?, ?)",
			doc.ID, doc.Filename, doc.SizeBytes, doc.Hash, doc.Units, doc.Chunks,
		); err != nil {
			return fmt.Errorf("failed to insert document %s: %w", doc.Filename, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit documents: %w", err)
	}
	return nil
}

// ListAll returns all registered documents ordered by filename.
func (r *DocumentRepo) ListAll(ctx context.Context) ([]Document, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, filename, size_bytes, hash, units, chunks, ingested_at FROM documents ORDER BY filename",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.SizeBytes, &doc.Hash, &doc.Units, &doc.Chunks, &doc.IngestedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return docs, nil
}

// RecordRun appends an ingest run record.
func (r *DocumentRepo) RecordRun(ctx context.Context, run *IngestRun) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO ingest_runs (chunk_size, chunk_overlap, documents, chunks) VALUES (?, ?, ?, ?)",
		run.ChunkSize, run.ChunkOverlap, run.Documents, run.Chunks,
	)
	if err != nil {
		return fmt.Errorf("failed to record ingest run: %w", err)
	}
	return nil
}

// LatestRun returns the most recent ingest run, or nil when none exists.
func (r *DocumentRepo) LatestRun(ctx context.Context) (*IngestRun, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, chunk_size, chunk_overlap, documents, chunks, created_at FROM ingest_runs ORDER BY id DESC LIMIT 1",
	)
	var run IngestRun
	if err := row.Scan(&run.ID, &run.ChunkSize, &run.ChunkOverlap, &run.Documents, &run.Chunks, &run.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan ingest run: %w", err)
	}
	return &run, nil
}
