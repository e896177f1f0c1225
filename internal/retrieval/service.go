package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"lumen/internal/embedding"
	"lumen/internal/ledger"
	"lumen/internal/settings"
	"lumen/internal/vector"
)

// DefaultLimit is the number of results returned when the caller does not
// ask for a specific count.
const DefaultLimit = 5

// charsPerPage is the rough page-size estimate used for book summaries.
const charsPerPage = 2000

// ErrBookNotFound is returned by GetSummary when no collection holds any
// chunk of the requested title.
var ErrBookNotFound = errors.New("book not found")

// Store is the slice of document-store operations search needs.
type Store interface {
	CollectionExists(ctx context.Context, col vector.Collection) (bool, error)
	VectorSearch(ctx context.Context, col vector.Collection, vec []float32, limit int) ([]SearchResult, error)
	MatchTitle(ctx context.Context, col vector.Collection, title string) ([]SearchResult, error)
}

// ProviderFactory builds the embedding provider for one collection's query.
// Injected so tests can substitute deterministic embedders.
type ProviderFactory func(ctx context.Context, id embedding.ProviderID, geminiAPIKey string) (embedding.Provider, error)

// Service answers search and catalogue queries across every provider
// collection that is currently usable. A provider being unusable (no
// credential, no collection yet, transient query failure) narrows the
// result set; it never fails the whole search.
type Service struct {
	store        Store
	registry     *vector.Registry
	settings     *settings.Service
	ledger       *ledger.Ledger
	envGeminiKey string
	defaultLimit int
	newProvider  ProviderFactory
	logger       *QueryLogger
}

func NewService(
	store Store,
	registry *vector.Registry,
	set *settings.Service,
	led *ledger.Ledger,
	envGeminiKey string,
	defaultLimit int,
	logger *QueryLogger,
) *Service {
	return &Service{
		store:        store,
		registry:     registry,
		settings:     set,
		ledger:       led,
		envGeminiKey: envGeminiKey,
		defaultLimit: defaultLimit,
		newProvider:  embedding.New,
		logger:       logger,
	}
}

// WithProviderFactory overrides provider construction.
func (s *Service) WithProviderFactory(f ProviderFactory) *Service {
	s.newProvider = f
	return s
}

// Search embeds the query once per usable provider, queries each provider's
// collection, then merges: duplicate (title, author) pairs keep the higher
// score (first provider wins a tie), results sort by score descending, and
// the merged list is capped at limit.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	start := time.Now()

	if limit <= 0 {
		limit = s.resolveDefaultLimit(ctx)
	}

	geminiKey, err := s.settings.GeminiAPIKey(ctx, s.envGeminiKey)
	if err != nil {
		slog.Warn("could not resolve gemini credential, searching without it", "error", err)
		geminiKey = ""
	}

	var merged []SearchResult
	for _, col := range s.registry.All() {
		hits, ok := s.searchCollection(ctx, col, query, geminiKey, limit)
		if !ok {
			continue
		}
		merged = append(merged, hits...)
	}

	results := dedupeByBook(merged)
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}

	if s.logger != nil {
		s.logger.Log(QueryLogEntry{
			Query:      query,
			NumResults: len(results),
			Duration:   time.Since(start),
		})
	}
	return results, nil
}

// resolveDefaultLimit picks the result count for callers that did not ask
// for one: the persisted settings value first, then the configured default,
// then the built-in fallback.
func (s *Service) resolveDefaultLimit(ctx context.Context) int {
	if set, err := s.settings.Get(ctx); err == nil && set.SearchLimit > 0 {
		return set.SearchLimit
	}
	if s.defaultLimit > 0 {
		return s.defaultLimit
	}
	return DefaultLimit
}

// searchCollection runs one provider's leg of the search. Any failure is
// logged and reported as "not usable"; the caller just moves on.
func (s *Service) searchCollection(ctx context.Context, col vector.Collection, query, geminiKey string, limit int) ([]SearchResult, bool) {
	if col.Provider == embedding.ProviderGemini && geminiKey == "" {
		slog.Debug("gemini credential not configured, skipping collection", "class", col.Class)
		return nil, false
	}

	exists, err := s.store.CollectionExists(ctx, col)
	if err != nil || !exists {
		slog.Debug("collection not available for search", "class", col.Class, "error", err)
		return nil, false
	}

	provider, err := s.newProvider(ctx, col.Provider, geminiKey)
	if err != nil {
		slog.Warn("could not build embedding provider, skipping collection",
			"provider", col.Provider, "error", err)
		return nil, false
	}

	vec, err := provider.Embed(ctx, query)
	if err != nil {
		slog.Warn("query embedding failed, skipping collection",
			"provider", col.Provider, "error", err)
		return nil, false
	}

	hits, err := s.store.VectorSearch(ctx, col, vec, limit)
	if err != nil {
		slog.Warn("vector search failed, skipping collection", "class", col.Class, "error", err)
		return nil, false
	}
	return hits, true
}

// dedupeByBook keeps one result per (title, author), preferring the higher
// score. On an exact tie the earlier result survives, which with the
// registry's stable order means local beats gemini.
func dedupeByBook(results []SearchResult) []SearchResult {
	type bookKey struct {
		title  string
		author string
	}

	kept := make([]SearchResult, 0, len(results))
	index := make(map[bookKey]int, len(results))
	for _, r := range results {
		key := bookKey{title: r.Title, author: r.Author}
		if at, seen := index[key]; seen {
			if r.Score > kept[at].Score {
				kept[at] = r
			}
			continue
		}
		index[key] = len(kept)
		kept = append(kept, r)
	}
	return kept
}

// ListBooks projects the indexing ledger into the catalogue view, sorted by
// title for stable output.
func (s *Service) ListBooks(_ context.Context) ([]BookInfo, error) {
	entries := s.ledger.Load()

	books := make([]BookInfo, 0, len(entries))
	for path, entry := range entries {
		info := BookInfo{
			Title:          entry.Title,
			Author:         entry.Author,
			Chunks:         entry.Chunks,
			EmbeddingModel: entry.EmbeddingModel,
			Dimensions:     entry.Dimensions,
		}
		if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
			info.FileType = ext
		}
		books = append(books, info)
	}

	sort.Slice(books, func(i, j int) bool { return books[i].Title < books[j].Title })
	return books, nil
}

// GetSummary aggregates every stored chunk of a title. Collections are
// consulted in registry order and the first one holding the book answers,
// so a book indexed under both providers is not double counted.
func (s *Service) GetSummary(ctx context.Context, title string) (*BookSummary, error) {
	for _, col := range s.registry.All() {
		exists, err := s.store.CollectionExists(ctx, col)
		if err != nil || !exists {
			continue
		}

		chunks, err := s.store.MatchTitle(ctx, col, title)
		if err != nil {
			slog.Warn("title match failed", "class", col.Class, "error", err)
			continue
		}
		if len(chunks) == 0 {
			continue
		}

		totalChars := 0
		for _, c := range chunks {
			totalChars += len(c.Content)
		}
		return &BookSummary{
			Title:           chunks[0].Title,
			Author:          chunks[0].Author,
			FileType:        chunks[0].FileType,
			TotalChunks:     len(chunks),
			TotalCharacters: totalChars,
			EstimatedPages:  totalChars / charsPerPage,
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrBookNotFound, title)
}
