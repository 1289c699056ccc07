package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertView(t *testing.T) {
	out, err := ConvertView(`<h1>Title</h1><p>Some <strong>bold</strong> text</p><script>alert(1)</script>`)
	require.NoError(t, err)
	assert.Contains(t, out, "# Title")
	assert.Contains(t, out, "**bold**")
	assert.NotContains(t, out, "alert")
}

func TestConvertViewEmpty(t *testing.T) {
	out, err := ConvertView("  \n")
	require.NoError(t, err)
	assert.Empty(t, out)
}
