package chatgptes

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// renderMarkdown converts HTML markup the plugin interleaves in replies into
// Markdown. Replies without markup pass through untouched, so the default
// fragment concatenation is preserved for plain-text responses. Conversion
// failures fall back to the raw text rather than failing the call.
func renderMarkdown(text string) string {
	if !strings.Contains(text, "<") {
		return text
	}
	markdown, err := htmltomarkdown.ConvertString(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(markdown)
}
