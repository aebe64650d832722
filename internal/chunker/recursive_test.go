package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finedge/internal/domain"
)

func doc(id, content string) domain.Document {
	return domain.Document{ID: id, Source: id + ".txt", Content: content}
}

func TestChunk_EmptyContent(t *testing.T) {
	c := NewRecursiveChunker(100, 10)

	chunks, err := c.Chunk(doc("d1", ""))
	require.NoError(t, err)
	assert.Empty(t, chunks)

	chunks, err = c.Chunk(doc("d1", "   \n\t  "))
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunk_ShortTextSingleChunk(t *testing.T) {
	c := NewRecursiveChunker(500, 50)

	chunks, err := c.Chunk(doc("d1", "A short sentence."))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "A short sentence.", chunks[0].Text)
	assert.Equal(t, "d1:0", chunks[0].ChunkID)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, "d1", chunks[0].DocumentID)
}

func TestChunk_NeverExceedsMaxChars(t *testing.T) {
	c := NewRecursiveChunker(120, 20)

	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("The quarterly report shows steady growth across all regions. ")
	}
	chunks, err := c.Chunk(doc("d1", b.String()))
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len([]rune(ch.Text)), 120, "chunk %s too long", ch.ChunkID)
	}
}

func TestChunk_OverlapPrefix(t *testing.T) {
	c := NewRecursiveChunker(100, 20)

	var b strings.Builder
	for i := 0; i < 10; i++ {
		b.WriteString("Revenue increased in the fourth quarter of the year. ")
	}
	chunks, err := c.Chunk(doc("d1", b.String()))
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Text)
		tail := string(prev[len(prev)-20:])
		assert.True(t, strings.HasPrefix(chunks[i].Text, tail),
			"chunk %d does not start with the previous chunk's tail", i)
	}
}

func TestChunk_HardSplitWithoutBoundaries(t *testing.T) {
	c := NewRecursiveChunker(50, 10)

	// One long token: no paragraph or sentence boundary to split on.
	content := strings.Repeat("x", 200)
	chunks, err := c.Chunk(doc("d1", content))
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len([]rune(ch.Text)), 50)
	}
}

func TestChunk_ParagraphBoundariesPreferred(t *testing.T) {
	c := NewRecursiveChunker(40, 0)

	content := "First paragraph stays whole.\n\nSecond paragraph stays whole."
	chunks, err := c.Chunk(doc("d1", content))
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "First paragraph stays whole.", chunks[0].Text)
	assert.Equal(t, "Second paragraph stays whole.", chunks[1].Text)
}

func TestChunk_Deterministic(t *testing.T) {
	c := NewRecursiveChunker(100, 20)
	content := "One sentence here. Another sentence follows. And then a third one. Plus a fourth for good measure."

	first, err := c.Chunk(doc("d1", content))
	require.NoError(t, err)
	second, err := c.Chunk(doc("d1", content))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNewRecursiveChunker_ClampsBadValues(t *testing.T) {
	c := NewRecursiveChunker(0, -5)
	assert.Equal(t, 500, c.maxChars)
	assert.Equal(t, 0, c.overlapChars)

	c = NewRecursiveChunker(100, 100)
	assert.Equal(t, 25, c.overlapChars)
}

func TestInterfaceCompliance(t *testing.T) {
	var _ domain.Chunker = (*RecursiveChunker)(nil)
}
