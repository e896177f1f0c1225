package weaviate

import (
	"context"
	"fmt"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"lumen/internal/ebook"
	"lumen/internal/retrieval"
	"lumen/internal/vector"
)

// matchPageSize is the page size used when scrolling title-match results.
const matchPageSize = 100

// Store adapts the Weaviate client to the document-store operations the
// pipeline and search need: readiness check, per-provider collection
// ensure, chunk upsert, nearest-neighbour query and title match with
// offset scrolling.
type Store struct {
	client *weaviate.Client
}

func NewStore(client *weaviate.Client) *Store {
	return &Store{client: client}
}

// Ready verifies connectivity. The pipeline calls this once per run before
// the first write; search treats a failure as "skip this store".
func (s *Store) Ready(ctx context.Context) error {
	ok, err := s.client.Misc().ReadyChecker().Do(ctx)
	if err != nil {
		return fmt.Errorf("document store not reachable: %w", err)
	}
	if !ok {
		return fmt.Errorf("document store not ready")
	}
	return nil
}

// EnsureCollection idempotently creates the class backing one provider.
func (s *Store) EnsureCollection(ctx context.Context, col vector.Collection) error {
	return vector.EnsureCollection(ctx, vector.NewWeaviateClientAdapter(s.client), col)
}

// CollectionExists reports whether a provider's class has been created yet.
func (s *Store) CollectionExists(ctx context.Context, col vector.Collection) (bool, error) {
	return s.client.Schema().ClassExistenceChecker().WithClassName(col.Class).Do(ctx)
}

// StoreChunk upserts one embedded chunk into the provider's collection.
// The vector length must match the collection's declared dimensionality;
// anything else would corrupt the per-collection invariant.
func (s *Store) StoreChunk(ctx context.Context, col vector.Collection, chunk ebook.Chunk, vec []float32) error {
	if len(vec) != col.Dimensions {
		return fmt.Errorf("vector dimensionality %d does not match collection %s (%d)",
			len(vec), col.Class, col.Dimensions)
	}
	_, err := s.client.Data().Creator().
		WithClassName(col.Class).
		WithProperties(map[string]interface{}{
			"content":     chunk.Content,
			"title":       chunk.Title,
			"author":      chunk.Author,
			"filePath":    chunk.FilePath,
			"fileType":    chunk.FileType,
			"chunkIndex":  chunk.Index,
			"totalChunks": chunk.TotalChunks,
			"dimensions":  col.Dimensions,
		}).
		WithVector(vec).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("store chunk %d of %s: %w", chunk.Index, chunk.FilePath, err)
	}
	return nil
}

var hitFields = []graphql.Field{
	{Name: "content"},
	{Name: "title"},
	{Name: "author"},
	{Name: "fileType"},
	{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}},
}

// VectorSearch runs a top-limit nearest-neighbour query against one
// provider's collection. Scores are cosine similarity shifted by +1.0
// (Weaviate reports distance = 1 - cosine, so score = 2 - distance), which
// keeps them non-negative.
func (s *Store) VectorSearch(ctx context.Context, col vector.Collection, vec []float32, limit int) ([]retrieval.SearchResult, error) {
	if len(vec) != col.Dimensions {
		return nil, fmt.Errorf("query vector dimensionality %d does not match collection %s (%d)",
			len(vec), col.Class, col.Dimensions)
	}

	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vec)

	res, err := s.client.GraphQL().Get().
		WithClassName(col.Class).
		WithNearVector(nearVector).
		WithLimit(limit).
		WithFields(hitFields...).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("vector query on %s: %w", col.Class, err)
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("vector query on %s: graphql error: %v", col.Class, res.Errors)
	}

	return parseHits(res.Data, col, true), nil
}

// MatchTitle returns every chunk whose title matches, scrolling through the
// collection page by page.
func (s *Store) MatchTitle(ctx context.Context, col vector.Collection, title string) ([]retrieval.SearchResult, error) {
	where := filters.Where().
		WithPath([]string{"title"}).
		WithOperator(filters.Equal).
		WithValueText(title)

	var all []retrieval.SearchResult
	for offset := 0; ; offset += matchPageSize {
		res, err := s.client.GraphQL().Get().
			WithClassName(col.Class).
			WithWhere(where).
			WithLimit(matchPageSize).
			WithOffset(offset).
			WithFields(hitFields...).
			Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("match query on %s: %w", col.Class, err)
		}
		if len(res.Errors) > 0 {
			return nil, fmt.Errorf("match query on %s: graphql error: %v", col.Class, res.Errors)
		}

		page := parseHits(res.Data, col, false)
		all = append(all, page...)
		if len(page) < matchPageSize {
			return all, nil
		}
	}
}

// parseHits walks the loosely-typed GraphQL response into typed results.
func parseHits(data map[string]models.JSONObject, col vector.Collection, scored bool) []retrieval.SearchResult {
	var results []retrieval.SearchResult
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return results
	}
	rows, ok := get[col.Class].([]interface{})
	if !ok {
		return results
	}
	for _, row := range rows {
		props, ok := row.(map[string]interface{})
		if !ok {
			continue
		}
		result := retrieval.SearchResult{Provider: col.Provider}
		if v, ok := props["content"].(string); ok {
			result.Content = v
		}
		if v, ok := props["title"].(string); ok {
			result.Title = v
		}
		if v, ok := props["author"].(string); ok {
			result.Author = v
		}
		if v, ok := props["fileType"].(string); ok {
			result.FileType = v
		}
		if scored {
			if additional, ok := props["_additional"].(map[string]interface{}); ok {
				if distance, ok := additional["distance"].(float64); ok {
					result.Score = float32(2.0 - distance)
				}
			}
		}
		results = append(results, result)
	}
	return results
}
