package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

const (
	localDimensions = 384
	localModelName  = "static-hash-v1"

	tokenWeight = 0.7
	ngramWeight = 0.3
	ngramSize   = 3
)

var wordPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// englishStopwords keeps high-frequency function words out of the vector so
// the hash buckets are spent on content-bearing terms.
var englishStopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for",
		"to", "of", "in", "on", "at", "by", "with", "as", "is", "are",
		"was", "were", "be", "been", "being", "it", "this", "that", "these",
		"those", "from", "up", "down", "over", "under", "than", "so",
		"such", "into", "about", "between", "through", "during", "before",
		"after", "out", "off", "own", "same", "too", "very", "can", "will",
		"just", "not", "no", "he", "she", "they", "we", "you", "his", "her",
	} {
		englishStopwords[w] = struct{}{}
	}
}

// LocalProvider is the always-available on-box embedder. It hashes word
// tokens and character trigrams into a fixed 384-dimensional space and
// L2-normalises the result, so cosine scoring behaves. Deterministic, no
// network, no model download; semantic quality is accordingly modest.
type LocalProvider struct{}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

func (p *LocalProvider) ID() ProviderID    { return ProviderLocal }
func (p *LocalProvider) ModelName() string { return localModelName }
func (p *LocalProvider) Dimensions() int   { return localDimensions }

func (p *LocalProvider) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, localDimensions)
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return vec, nil
	}

	lower := strings.ToLower(trimmed)
	for _, token := range wordPattern.FindAllString(lower, -1) {
		if _, stop := englishStopwords[token]; stop {
			continue
		}
		vec[hashToIndex(token, localDimensions)] += tokenWeight
	}

	compact := compactLetters(lower)
	for i := 0; i+ngramSize <= len(compact); i++ {
		vec[hashToIndex(compact[i:i+ngramSize], localDimensions)] += ngramWeight
	}

	return normalize(vec), nil
}

// compactLetters drops everything but letters and digits so n-grams don't
// straddle punctuation or whitespace.
func compactLetters(s string) string {
	var b strings.Builder
	for _, r := range s {
		if ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func hashToIndex(s string, size int) int {
	h := fnv.New64()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(size))
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	mag := math.Sqrt(sum)
	if mag == 0 {
		return v
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / mag)
	}
	return v
}
