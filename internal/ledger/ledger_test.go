package ledger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger(t *testing.T) {
	t.Run("Missing File Yields Empty Mapping", func(t *testing.T) {
		l := New(filepath.Join(t.TempDir(), "processed_books.json"))
		assert.Empty(t, l.Load())
	})

	t.Run("Round Trip", func(t *testing.T) {
		l := New(filepath.Join(t.TempDir(), "processed_books.json"))
		want := map[string]Entry{
			"/books/a.epub": {
				EmbeddingModel: "local",
				ModelName:      "static-hash-v1",
				Dimensions:     384,
				Timestamp:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
				Chunks:         3,
				Title:          "Test",
				Author:         "Author",
			},
			"/books/b.pdf": {
				EmbeddingModel: "gemini",
				ModelName:      "text-embedding-004",
				Dimensions:     768,
				Timestamp:      time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC),
				Chunks:         12,
				Title:          "Other",
				Author:         "Writer",
			},
		}

		require.NoError(t, l.Save(want))
		assert.Equal(t, want, l.Load())
	})

	t.Run("Save Overwrites Fully", func(t *testing.T) {
		l := New(filepath.Join(t.TempDir(), "processed_books.json"))
		require.NoError(t, l.Save(map[string]Entry{
			"/books/a.epub": {Chunks: 1},
			"/books/b.epub": {Chunks: 2},
		}))
		require.NoError(t, l.Save(map[string]Entry{
			"/books/a.epub": {Chunks: 5},
		}))

		got := l.Load()
		require.Len(t, got, 1)
		assert.Equal(t, 5, got["/books/a.epub"].Chunks)
	})

	t.Run("Malformed File Yields Empty Mapping", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "processed_books.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
		assert.Empty(t, New(path).Load())
	})

	t.Run("Legacy List Schema Accepted", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "processed_books.json")
		require.NoError(t, os.WriteFile(path, []byte(`["/books/a.epub","/books/b.pdf"]`), 0o600))

		got := New(path).Load()
		require.Len(t, got, 2)
		entry, ok := got["/books/a.epub"]
		require.True(t, ok)
		assert.Empty(t, entry.EmbeddingModel, "legacy entries have unknown provider metadata")
		assert.Zero(t, entry.Dimensions)
		assert.Contains(t, got, "/books/b.pdf")
	})

	t.Run("Save Creates Parent Directory", func(t *testing.T) {
		l := New(filepath.Join(t.TempDir(), "data", "nested", "processed_books.json"))
		require.NoError(t, l.Save(map[string]Entry{"/books/a.epub": {Chunks: 1}}))
		assert.Len(t, l.Load(), 1)
	})
}
