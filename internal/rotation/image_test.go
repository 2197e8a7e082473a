package rotation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestImageRotator(t *testing.T) *ImageRotator {
	t.Helper()
	return NewImageRotator(filepath.Join(t.TempDir(), "images.txt"), testLogger())
}

func TestImageRotatorRoundRobin(t *testing.T) {
	r := newTestImageRotator(t)

	urls := []string{
		"https://cdn.example.com/a.png",
		"https://cdn.example.com/b.png",
		"https://cdn.example.com/c.png",
	}
	for _, u := range urls {
		require.True(t, r.Add(u))
	}

	// One full traversal in insertion order before any repeat.
	for i := 0; i < len(urls); i++ {
		got, ok := r.Next()
		require.True(t, ok)
		assert.Equal(t, urls[i], got)
	}

	// The cycle starts over from the beginning.
	got, ok := r.Next()
	require.True(t, ok)
	assert.Equal(t, urls[0], got)
}

func TestImageRotatorAddIdempotent(t *testing.T) {
	r := newTestImageRotator(t)

	require.True(t, r.Add("https://cdn.example.com/a.png"))
	assert.False(t, r.Add("https://cdn.example.com/a.png"))
	assert.Equal(t, 1, r.Size())
}

func TestImageRotatorRejectsMalformedURLs(t *testing.T) {
	r := newTestImageRotator(t)

	for _, ref := range []string{"", "not-a-url", "ftp://example.com/a.png", "/relative/path.png"} {
		assert.False(t, r.Add(ref), "accepted %q", ref)
	}
	assert.Equal(t, 0, r.Size())
}

func TestImageRotatorEmptyPool(t *testing.T) {
	r := newTestImageRotator(t)

	_, ok := r.Next()
	assert.False(t, ok)
}

func TestImageRotatorPersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "images.txt")

	r := NewImageRotator(path, testLogger())
	require.True(t, r.Add("https://cdn.example.com/a.png"))
	require.True(t, r.Add("https://cdn.example.com/b.png"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "https://cdn.example.com/a.png")

	reloaded := NewImageRotator(path, testLogger())
	assert.Equal(t, []string{
		"https://cdn.example.com/a.png",
		"https://cdn.example.com/b.png",
	}, reloaded.All())
}

func TestImageRotatorSkipsCommentsOnLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "images.txt")
	data := "# pool header\nhttps://cdn.example.com/a.png\n\n# another comment\nhttps://cdn.example.com/b.png\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	r := NewImageRotator(path, testLogger())
	assert.Equal(t, 2, r.Size())
}
