package text

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumen/internal/ebook"
)

func doc(content string) *ebook.Document {
	return &ebook.Document{
		Path:     "/books/test.epub",
		Title:    "Test",
		Author:   "Author",
		Content:  content,
		FileType: "epub",
	}
}

func TestChunker(t *testing.T) {
	t.Run("Short Content Single Chunk", func(t *testing.T) {
		chunks := NewChunker(1000).Chunk(doc("One sentence. Another sentence."))
		require.Len(t, chunks, 1)
		assert.Equal(t, 0, chunks[0].Index)
		assert.Equal(t, 1, chunks[0].TotalChunks)
		assert.Equal(t, "One sentence. Another sentence.", chunks[0].Content)
	})

	t.Run("Empty Content Yields No Chunks", func(t *testing.T) {
		assert.Nil(t, NewChunker(1000).Chunk(doc("")))
		assert.Nil(t, NewChunker(1000).Chunk(doc("   \n\t  ")))
		assert.Nil(t, NewChunker(1000).Chunk(nil))
	})

	t.Run("Size Bound Respected", func(t *testing.T) {
		sentence := strings.Repeat("word ", 19) + "end" // 98 chars
		content := strings.Repeat(sentence+". ", 24)
		chunks := NewChunker(1000).Chunk(doc(content))
		require.NotEmpty(t, chunks)
		for _, c := range chunks {
			assert.LessOrEqual(t, len(c.Content), 1000)
		}
	})

	t.Run("Separator Overshoot Stays Within Two Chars", func(t *testing.T) {
		// 4 + 5 sentence chars fit a limit of 9 exactly, so the rejoined
		// chunk lands at 11 chars, the worst case the size check allows.
		chunks := NewChunker(9).Chunk(doc("abcd. efghi"))
		require.Len(t, chunks, 1)
		assert.Equal(t, "abcd. efghi", chunks[0].Content)
		assert.Equal(t, 9+2, len(chunks[0].Content))
	})

	t.Run("Oversized Sentence Becomes Own Chunk", func(t *testing.T) {
		long := strings.Repeat("x", 1500)
		content := "Short one. " + long + ". Short two."
		chunks := NewChunker(1000).Chunk(doc(content))
		require.Len(t, chunks, 3)
		assert.Equal(t, "Short one", chunks[0].Content)
		assert.Equal(t, long, chunks[1].Content)
		assert.Greater(t, len(chunks[1].Content), 1000)
		assert.Equal(t, "Short two.", chunks[2].Content)
	})

	t.Run("Ordering Is Contiguous And Totals Agree", func(t *testing.T) {
		sentence := strings.Repeat("a", 300)
		content := strings.Repeat(sentence+". ", 12)
		chunks := NewChunker(1000).Chunk(doc(content))
		require.Greater(t, len(chunks), 1)
		for i, c := range chunks {
			assert.Equal(t, i, c.Index)
			assert.Equal(t, len(chunks), c.TotalChunks)
		}
	})

	t.Run("Metadata Inherited From Document", func(t *testing.T) {
		chunks := NewChunker(1000).Chunk(doc("Some content here."))
		require.Len(t, chunks, 1)
		assert.Equal(t, "Test", chunks[0].Title)
		assert.Equal(t, "Author", chunks[0].Author)
		assert.Equal(t, "/books/test.epub", chunks[0].FilePath)
		assert.Equal(t, "epub", chunks[0].FileType)
	})

	t.Run("2400 Char Book Yields Three Chunks", func(t *testing.T) {
		// 24 sentences of 98 chars + ". " separators ≈ 2400 chars total.
		sentence := strings.Repeat("s", 98)
		content := strings.TrimSuffix(strings.Repeat(sentence+". ", 24), " ")
		chunks := NewChunker(1000).Chunk(doc(content))
		require.Len(t, chunks, 3)
		assert.Equal(t, 3, chunks[0].TotalChunks)
		assert.LessOrEqual(t, len(chunks[0].Content), 1000)
		assert.LessOrEqual(t, len(chunks[1].Content), 1000)
		assert.Less(t, len(chunks[2].Content), len(chunks[0].Content))
	})
}
