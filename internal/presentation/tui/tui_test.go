package tui

import (
	"bytes"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner_Ascii(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, termenv.Ascii)

	out := buf.String()
	assert.Contains(t, out, "|___/")
	assert.NotContains(t, out, "\x1b[", "ascii profile must not emit escape codes")
}

func TestNewRenderer(t *testing.T) {
	render := NewRenderer(40)
	out, err := render("**bold** move")
	require.NoError(t, err)
	assert.Contains(t, out, "bold")
	assert.Contains(t, out, "move")
}
