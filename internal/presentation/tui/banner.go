package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the tgflow banner to w using the given color profile.
func PrintBanner(w io.Writer, p termenv.Profile) {
	lines := []struct {
		text  string
		color string
	}{
		{"  _              __ _               ", "#38bdf8"},
		{" | |_ __ _ / _| | _____      __", "#22d3ee"},
		{" | __/ _` | |_| |/ _ \\ \\ /\\ / /", "#2dd4bf"},
		{" | || (_| |  _| | (_) \\ V  V / ", "#34d399"},
		{"  \\__\\__, |_| |_|\\___/ \\_/\\_/  ", "#4ade80"},
		{"     |___/                      ", "#a3e635"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
