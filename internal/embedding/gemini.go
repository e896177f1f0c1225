package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	geminiDimensions = 768
	geminiModelName  = "text-embedding-004"
)

// ErrMissingAPIKey is returned when the gemini provider is selected without
// a configured credential. This is a startup failure, not a retryable one.
var ErrMissingAPIKey = errors.New("gemini api key not configured")

// GeminiProvider embeds text through the Gemini embedding API. Per-call
// failures propagate to the caller; there is no silent fallback to another
// provider because mixing dimensionalities would corrupt the collection.
type GeminiProvider struct {
	client *genai.Client
}

func NewGeminiProvider(ctx context.Context, apiKey string, opts ...option.ClientOption) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	opts = append(opts, option.WithAPIKey(apiKey))
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiProvider{client: client}, nil
}

func (p *GeminiProvider) ID() ProviderID    { return ProviderGemini }
func (p *GeminiProvider) ModelName() string { return geminiModelName }
func (p *GeminiProvider) Dimensions() int   { return geminiDimensions }

func (p *GeminiProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	model := p.client.EmbeddingModel(geminiModelName)
	res, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		slog.ErrorContext(ctx, "gemini embedding failed", "error", err)
		return nil, err
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, errors.New("empty embedding received")
	}
	if len(res.Embedding.Values) != geminiDimensions {
		return nil, fmt.Errorf("unexpected embedding dimensionality: got %d, want %d",
			len(res.Embedding.Values), geminiDimensions)
	}
	return res.Embedding.Values, nil
}

func (p *GeminiProvider) Close() error {
	return p.client.Close()
}
