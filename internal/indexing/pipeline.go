package indexing

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lumen/internal/ebook"
	"lumen/internal/embedding"
	"lumen/internal/ledger"
	"lumen/internal/vector"
)

// Extractor turns a file path into an extracted document.
type Extractor interface {
	Extract(path string) (*ebook.Document, error)
}

// Chunker splits an extracted document into ordered chunks.
type Chunker interface {
	Chunk(doc *ebook.Document) []ebook.Chunk
}

// Store is the slice of document-store operations the pipeline needs.
type Store interface {
	Ready(ctx context.Context) error
	EnsureCollection(ctx context.Context, col vector.Collection) error
	StoreChunk(ctx context.Context, col vector.Collection, chunk ebook.Chunk, vec []float32) error
}

// ProgressEvent reports pipeline position: which book out of how many, and
// within the current book, which chunk out of how many. ChunkCount is zero
// while a book is still being extracted.
type ProgressEvent struct {
	BookIndex  int
	BookCount  int
	Path       string
	ChunkIndex int
	ChunkCount int
}

// BookDetail describes one successfully indexed book within a run.
type BookDetail struct {
	Path   string
	Title  string
	Author string
	Chunks int
}

// Summary is the outcome of one pipeline run.
type Summary struct {
	Processed   int
	Skipped     int
	Failed      int
	TotalChunks int
	Books       []BookDetail
}

// Pipeline drives one indexing run: discover books, filter through the
// skip policy, extract, chunk, embed and store, then persist the ledger.
// Books are processed sequentially; one book's failure never stops the run.
type Pipeline struct {
	extractor Extractor
	chunker   Chunker
	provider  embedding.Provider
	store     Store
	ledger    *ledger.Ledger
	registry  *vector.Registry
	progress  func(ProgressEvent)
}

func NewPipeline(
	extractor Extractor,
	chunker Chunker,
	provider embedding.Provider,
	store Store,
	led *ledger.Ledger,
	registry *vector.Registry,
) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		chunker:   chunker,
		provider:  provider,
		store:     store,
		ledger:    led,
		registry:  registry,
	}
}

// OnProgress registers a progress callback. Nil disables reporting.
func (p *Pipeline) OnProgress(fn func(ProgressEvent)) {
	p.progress = fn
}

// Run indexes every eligible .epub and .pdf in dir. The document store must
// be reachable before the first write; an unreachable store aborts the whole
// run with nothing half-done. Per-book failures are isolated: the book is
// counted as failed, left out of the ledger, and the run continues. The
// ledger is saved exactly once, at the end.
func (p *Pipeline) Run(ctx context.Context, dir string, mode Mode) (*Summary, error) {
	books, err := discoverBooks(dir)
	if err != nil {
		return nil, err
	}

	entries := p.ledger.Load()
	policy := NewPolicy(mode, entries)

	if err := p.store.Ready(ctx); err != nil {
		return nil, fmt.Errorf("indexing aborted: %w", err)
	}

	col, err := p.registry.Lookup(p.provider.ID())
	if err != nil {
		return nil, err
	}
	if err := p.store.EnsureCollection(ctx, col); err != nil {
		return nil, fmt.Errorf("ensure collection %s: %w", col.Class, err)
	}

	summary := &Summary{}
	for i, path := range books {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !policy.ShouldProcess(path) {
			slog.Info("skipping already indexed book", "path", path)
			summary.Skipped++
			continue
		}

		p.report(ProgressEvent{BookIndex: i + 1, BookCount: len(books), Path: path})

		detail, err := p.processBook(ctx, col, i+1, len(books), path)
		if err != nil {
			slog.Error("failed to index book", "path", path, "error", err)
			summary.Failed++
			continue
		}

		entries[path] = ledger.Entry{
			EmbeddingModel: string(p.provider.ID()),
			ModelName:      p.provider.ModelName(),
			Dimensions:     p.provider.Dimensions(),
			Timestamp:      time.Now().UTC(),
			Chunks:         detail.Chunks,
			Title:          detail.Title,
			Author:         detail.Author,
		}
		summary.Processed++
		summary.TotalChunks += detail.Chunks
		summary.Books = append(summary.Books, detail)
		slog.Info("indexed book",
			"path", path, "title", detail.Title, "chunks", detail.Chunks,
			"provider", p.provider.ID())
	}

	if err := p.ledger.Save(entries); err != nil {
		slog.Warn("failed to save ledger, books will be reprocessed next run",
			"path", p.ledger.Path(), "error", err)
	}
	return summary, nil
}

func (p *Pipeline) processBook(ctx context.Context, col vector.Collection, bookIndex, bookCount int, path string) (BookDetail, error) {
	doc, err := p.extractor.Extract(path)
	if err != nil {
		return BookDetail{}, err
	}

	chunks := p.chunker.Chunk(doc)
	if len(chunks) == 0 {
		return BookDetail{}, fmt.Errorf("no text content extracted from %s", path)
	}

	for _, chunk := range chunks {
		vec, err := p.provider.Embed(ctx, chunk.Content)
		if err != nil {
			return BookDetail{}, fmt.Errorf("embed chunk %d: %w", chunk.Index, err)
		}
		if err := p.store.StoreChunk(ctx, col, chunk, vec); err != nil {
			return BookDetail{}, err
		}
		p.report(ProgressEvent{
			BookIndex:  bookIndex,
			BookCount:  bookCount,
			Path:       path,
			ChunkIndex: chunk.Index + 1,
			ChunkCount: len(chunks),
		})
	}

	return BookDetail{
		Path:   path,
		Title:  doc.Title,
		Author: doc.Author,
		Chunks: len(chunks),
	}, nil
}

func (p *Pipeline) report(ev ProgressEvent) {
	if p.progress != nil {
		p.progress(ev)
	}
}

// discoverBooks lists supported ebook files directly under dir, as absolute
// paths in name order. Absolute paths are what the ledger is keyed by.
func discoverBooks(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read ebooks directory %s: %w", dir, err)
	}

	var books []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".epub", ".pdf":
			abs, err := filepath.Abs(filepath.Join(dir, entry.Name()))
			if err != nil {
				return nil, err
			}
			books = append(books, abs)
		}
	}
	return books, nil
}
