package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "v1.2.3")
	out := buf.String()
	assert.Contains(t, out, "v1.2.3")
	assert.Contains(t, out, `/_/   \_\_|`)
	assert.NotContains(t, out, "\x1b[", "buffers get no color")
}

func TestNewRenderer(t *testing.T) {
	render, err := NewRenderer()
	require.NoError(t, err)
	out, err := render("# Title\n\nsome **bold** text")
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "bold")
}

func TestInteractive(t *testing.T) {
	assert.False(t, Interactive(strings.NewReader(""), &bytes.Buffer{}))
}
