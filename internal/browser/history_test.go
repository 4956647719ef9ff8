package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistory(t *testing.T) {
	h := NewHistory("")
	h.Replace("npm-local")
	h.Push("npm-local/docs")
	h.Push("npm-local/docs/guide.md")
	assert.Equal(t, 3, h.Len())

	path, ok := h.Back()
	assert.True(t, ok)
	assert.Equal(t, "npm-local/docs", path)

	path, ok = h.Back()
	assert.True(t, ok)
	assert.Equal(t, "npm-local", path)

	_, ok = h.Back()
	assert.False(t, ok)

	path, ok = h.Forward()
	assert.True(t, ok)
	assert.Equal(t, "npm-local/docs", path)

	h.Push("maven-remote")
	_, ok = h.Forward()
	assert.False(t, ok, "pushing drops the forward entries")
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, "maven-remote", h.Path())
}
