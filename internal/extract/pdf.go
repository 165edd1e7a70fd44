package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDF extracts a PDF document into one unit per page.
// Pages that yield no text (scanned images, empty pages) are skipped.
func PDF(path string) (Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	doc := Document{Name: filepath.Base(path)}
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the whole document.
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		doc.Units = append(doc.Units, Unit{
			Label: fmt.Sprintf("page %d", i),
			Text:  text,
		})
	}
	return doc, nil
}
