package markup

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// markdown renders reader notes. Raw HTML is kept so notes may embed the
// same custom tags as guide steps.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// ParseMarkdown renders markdown to HTML and parses the result.
func ParseMarkdown(source string) (*Node, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return Parse(buf.String())
}
