package shelltool

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateTail(t *testing.T) {
	t.Parallel()

	t.Run("short input passes through", func(t *testing.T) {
		t.Parallel()

		r := truncateTail("a\nb\nc\n", 10, 1024)
		assert.False(t, r.Truncated)
		assert.Equal(t, "a\nb\nc\n", r.Content)
		assert.Equal(t, 3, r.TotalLines)
	})

	t.Run("keeps the tail when over line limit", func(t *testing.T) {
		t.Parallel()

		r := truncateTail("1\n2\n3\n4\n5\n", 2, 1024)
		assert.True(t, r.Truncated)
		assert.Equal(t, "4\n5", r.Content)
		assert.Equal(t, 5, r.TotalLines)
		assert.Equal(t, 2, r.OutputLines)
	})

	t.Run("byte limit wins over line limit", func(t *testing.T) {
		t.Parallel()

		input := strings.Repeat("aaaa\n", 10)
		r := truncateTail(input, 10, 12)
		assert.True(t, r.Truncated)
		assert.LessOrEqual(t, len(r.Content), 12)
	})

	t.Run("oversized single line keeps its tail", func(t *testing.T) {
		t.Parallel()

		r := truncateTail(strings.Repeat("x", 100), 10, 10)
		assert.True(t, r.Truncated)
		assert.Equal(t, strings.Repeat("x", 10), r.Content)
		assert.Equal(t, 1, r.OutputLines)
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()

		r := truncateTail("", 10, 10)
		assert.False(t, r.Truncated)
		assert.Empty(t, r.Content)
	})
}
