package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Markdown extracts a markdown document into one unit per heading section.
// Content before the first heading becomes an "intro" unit.
func Markdown(path string) (Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read markdown file: %w", err)
	}

	doc := Document{Name: filepath.Base(path)}
	if len(content) == 0 {
		return doc, nil
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	root := md.Parser().Parse(text.NewReader(content))

	label := "intro"
	var builder strings.Builder
	flush := func() {
		section := strings.TrimSpace(builder.String())
		if section != "" {
			doc.Units = append(doc.Units, Unit{Label: label, Text: section})
		}
		builder.Reset()
	}

	for node := root.FirstChild(); node != nil; node = node.NextSibling() {
		if heading, ok := node.(*ast.Heading); ok {
			flush()
			label = nodeText(heading, content)
			if label == "" {
				label = fmt.Sprintf("section %d", len(doc.Units)+1)
			}
			continue
		}
		block := nodeText(node, content)
		if block == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(block)
	}
	flush()

	return doc, nil
}

// nodeText collects the plain text of a node and its children.
func nodeText(n ast.Node, content []byte) string {
	var builder strings.Builder

	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			builder.Write(v.Segment.Value(content))
			if v.SoftLineBreak() || v.HardLineBreak() {
				builder.WriteByte('\n')
			}
		case *ast.String:
			builder.Write(v.Value)
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				builder.Write(line.Value(content))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(builder.String())
}
