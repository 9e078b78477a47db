package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	state := map[string]any{
		"name":        "Ada",
		"app:theme":   "dark",
		"user:locale": "de",
		"count":       3,
	}

	t.Run("substitutes placeholders", func(t *testing.T) {
		out, err := RenderTemplate("Hello {name}, theme={app:theme}, locale={user:locale}", state)
		require.NoError(t, err)
		assert.Equal(t, "Hello Ada, theme=dark, locale=de", out)
	})

	t.Run("non-string values are formatted", func(t *testing.T) {
		out, err := RenderTemplate("count={count}", state)
		require.NoError(t, err)
		assert.Equal(t, "count=3", out)
	})

	t.Run("no placeholders", func(t *testing.T) {
		out, err := RenderTemplate("plain text", state)
		require.NoError(t, err)
		assert.Equal(t, "plain text", out)
	})

	t.Run("missing key fails", func(t *testing.T) {
		_, err := RenderTemplate("Hello {missing}", state)
		assert.ErrorContains(t, err, "missing")
	})

	t.Run("optional placeholder renders empty", func(t *testing.T) {
		out, err := RenderTemplate("Hello{missing?} {name}", state)
		require.NoError(t, err)
		assert.Equal(t, "Hello Ada", out)
	})

	t.Run("braced text that is not a placeholder is left alone", func(t *testing.T) {
		out, err := RenderTemplate(`JSON sample: {"k": 1}`, state)
		require.NoError(t, err)
		assert.Equal(t, `JSON sample: {"k": 1}`, out)
	})
}
