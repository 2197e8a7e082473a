package rotation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtreemtech/twitter-engagement-bot/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

func TestContentRotatorNoRepeatBeforeExhaustion(t *testing.T) {
	pool := []string{"A", "B", "C", "D", "E"}
	r := NewContentRotatorFromPool(pool, testLogger())

	seen := make(map[string]bool)
	for i := 0; i < len(pool); i++ {
		content, err := r.Fresh()
		require.NoError(t, err)
		assert.False(t, seen[content], "repeated %q before pool exhaustion", content)
		seen[content] = true
	}

	// All distinct, so every pool element was served exactly once.
	assert.Len(t, seen, len(pool))

	// The next call is allowed to repeat: the window was cleared.
	_, err := r.Fresh()
	require.NoError(t, err)
}

func TestContentRotatorEmptyPool(t *testing.T) {
	r := NewContentRotatorFromPool(nil, testLogger())

	_, err := r.Fresh()
	require.Error(t, err)
}

func TestContentRotatorWindowBound(t *testing.T) {
	// Pool larger than the window: after many selections the used window
	// must stay bounded, so old items become eligible again.
	pool := make([]string, 0, usedContentWindow+5)
	for i := 0; i < usedContentWindow+5; i++ {
		pool = append(pool, string(rune('a'+i)))
	}
	r := NewContentRotatorFromPool(pool, testLogger())

	for i := 0; i < len(pool)*3; i++ {
		_, err := r.Fresh()
		require.NoError(t, err)
		assert.LessOrEqual(t, len(r.used), usedContentWindow)
	}
}

func TestContentRotatorSmallPoolCycles(t *testing.T) {
	// With pool size 3 the rotator must keep serving forever, resetting the
	// window each time the pool is exhausted.
	pool := []string{"A", "B", "C"}
	r := NewContentRotatorFromPool(pool, testLogger())

	counts := make(map[string]int)
	for i := 0; i < 9; i++ {
		content, err := r.Fresh()
		require.NoError(t, err)
		counts[content]++
	}

	// Three full cycles: every item served exactly three times.
	for _, item := range pool {
		assert.Equal(t, 3, counts[item], "item %q", item)
	}
}

func TestLoadContentPoolSubstitutesUTM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "content_pool.txt")

	data := "# campaign templates\n\nCheck out Levva! {utm}\nAnother line {utm}\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	r := NewContentRotator(path, "https://example.com?utm=x", testLogger())
	require.Equal(t, 2, r.Size())

	content, err := r.Fresh()
	require.NoError(t, err)
	assert.Contains(t, content, "https://example.com?utm=x")
	assert.NotContains(t, content, "{utm}")
}

func TestContentRotatorMissingFileUsesDefaults(t *testing.T) {
	r := NewContentRotator(filepath.Join(t.TempDir(), "nope.txt"), "https://example.com", testLogger())
	assert.Greater(t, r.Size(), 0)
}
