package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var paragraphSplit = regexp.MustCompile(`\n{2,}`)

// Text extracts a plain-text document into one unit per paragraph,
// where paragraphs are separated by blank lines.
func Text(path string) (Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read text file: %w", err)
	}

	doc := Document{Name: filepath.Base(path)}
	for _, para := range paragraphSplit.Split(string(content), -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		doc.Units = append(doc.Units, Unit{
			Label: fmt.Sprintf("paragraph %d", len(doc.Units)+1),
			Text:  para,
		})
	}
	return doc, nil
}
