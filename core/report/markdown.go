// Package report — Markdown renderer.
// Builds the operator review document: transform metadata, the asset mapping
// table, and a readable preview of the converted snippet.
package report

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/gaurav-prasanna/adpipe/core"
)

// MarkdownRenderer produces a Markdown review document for a converted
// creative.
type MarkdownRenderer struct{}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Render builds the review document.
func (r *MarkdownRenderer) Render(creative *core.Creative, meta core.ReportMeta) ([]byte, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "# Creative %s\n\n", creative.Name)
	fmt.Fprintf(&b, "- transform: `%s`\n", meta.TransformID)
	fmt.Fprintf(&b, "- source file: `%s`\n", meta.Filename)
	fmt.Fprintf(&b, "- snippet: `%s` (converter: %s)\n", meta.SnippetName, meta.SnippetType)
	fmt.Fprintf(&b, "- advertiser: %d\n", creative.AdvertiserID)
	fmt.Fprintf(&b, "- size: %dx%d\n", creative.Size.Width, creative.Size.Height)
	fmt.Fprintf(&b, "- destination: %s\n", creative.DestinationURL)
	if meta.GeneratedAt != "" {
		fmt.Fprintf(&b, "- generated: %s\n", meta.GeneratedAt)
	}

	b.WriteString("\n## Assets\n\n")
	if len(meta.Assets) == 0 {
		b.WriteString("No assets referenced.\n")
	} else {
		b.WriteString("| name | id | size | mimetype | inlined | over limit | unsupported |\n")
		b.WriteString("|------|----|------|----------|---------|------------|-------------|\n")
		for _, a := range meta.Assets {
			fmt.Fprintf(&b, "| %s | %s | %d | %s | %s | %s | %s |\n",
				a.Name, a.ID, a.Size, a.Mimetype,
				mark(a.Inlined), mark(a.OverLimit), mark(a.Unsupported))
		}
	}

	b.WriteString("\n## Snippet preview\n\n")
	preview, err := htmltomarkdown.ConvertString(creative.HTMLSnippet)
	if err != nil || strings.TrimSpace(preview) == "" {
		// Creatives are often pure script; fall back to the raw fragment.
		fmt.Fprintf(&b, "```html\n%s\n```\n", creative.HTMLSnippet)
	} else {
		b.WriteString(preview)
		b.WriteString("\n")
	}

	return []byte(b.String()), nil
}

func mark(v bool) string {
	if v {
		return "yes"
	}
	return ""
}

// Extension returns the file extension for Markdown output.
func (r *MarkdownRenderer) Extension() string {
	return ".md"
}
