package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rasalabh/rag-rfp-chatbot/internal/service"
)

// Unit is one logical unit of a document: a PDF page, a markdown section,
// or a plain-text paragraph. The chunker depends only on this shape.
type Unit struct {
	// Label identifies the unit within its document, e.g. "page 3".
	Label string
	// Text is the extracted text of the unit.
	Text string
}

// Document is an ordered sequence of extracted units from one source file.
type Document struct {
	// Name is the source file name (base name, not the full path).
	Name string
	// Units are the logical units in document order.
	Units []Unit
}

// File extracts a single document, dispatching on the file extension.
// Unsupported extensions return an error matching service.ErrUnsupportedFormat.
func File(path string) (Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return PDF(path)
	case ".md", ".markdown":
		return Markdown(path)
	case ".txt", ".text":
		return Text(path)
	default:
		return Document{}, fmt.Errorf("%w: %s", service.ErrUnsupportedFormat, filepath.Base(path))
	}
}

// Dir extracts every supported document in dir, in sorted name order.
// Unsupported files are skipped, not treated as errors.
func Dir(dir string) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var docs []Document
	for _, name := range names {
		doc, err := File(filepath.Join(dir, name))
		if err != nil {
			if errors.Is(err, service.ErrUnsupportedFormat) {
				continue
			}
			return nil, fmt.Errorf("failed to extract %s: %w", name, err)
		}
		if len(doc.Units) > 0 {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}
