package retrieval

import (
	"lumen/internal/embedding"
)

// SearchResult is one scored chunk hit from a single provider's collection.
// Scores are cosine similarity + 1.0 and are only comparable to scores from
// the same provider.
type SearchResult struct {
	Content  string               `json:"content"`
	Title    string               `json:"title"`
	Author   string               `json:"author"`
	FileType string               `json:"file_type"`
	Score    float32              `json:"score"`
	Provider embedding.ProviderID `json:"provider"`
}

// BookInfo is the ledger-backed projection of one indexed book.
type BookInfo struct {
	Title          string `json:"title"`
	Author         string `json:"author"`
	FileType       string `json:"file_type"`
	Chunks         int    `json:"chunks"`
	EmbeddingModel string `json:"embedding_model"`
	Dimensions     int    `json:"dimensions"`
}

// BookSummary aggregates every stored chunk of a title across all
// collections.
type BookSummary struct {
	Title           string `json:"title"`
	Author          string `json:"author"`
	FileType        string `json:"file_type"`
	TotalChunks     int    `json:"total_chunks"`
	TotalCharacters int    `json:"total_characters"`
	EstimatedPages  int    `json:"estimated_pages"`
}
