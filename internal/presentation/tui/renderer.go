package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// Rendering falls back to the raw text when glamour cannot be initialized.
func NewRenderer(wordWrap int) func(string) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if wordWrap > 0 {
		opts = append(opts, glamour.WithWordWrap(wordWrap))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return func(s string) (string, error) { return s, nil }
	}

	return func(markdown string) (string, error) {
		out, err := r.Render(markdown)
		if err != nil {
			return markdown, err
		}
		return strings.Trim(out, "\n"), nil
	}
}
