package embedding

import (
	"context"
	"fmt"
)

// ProviderID identifies an embedding backend. The set is closed: every
// provider the system knows about is listed here, and each one owns
// exactly one collection in the document store.
type ProviderID string

const (
	ProviderLocal  ProviderID = "local"
	ProviderGemini ProviderID = "gemini"
)

// Provider converts text into a fixed-length vector. Dimensions is a
// static contract: every vector a provider returns has exactly that
// length, and the provider's collection is created with it.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	ID() ProviderID
	ModelName() string
	Dimensions() int
}

// New constructs the provider for the given id. Construction validates
// prerequisites up front: selecting gemini without a credential fails here,
// before any document is touched, never mid-run.
func New(ctx context.Context, id ProviderID, geminiAPIKey string) (Provider, error) {
	switch id {
	case ProviderLocal:
		return NewLocalProvider(), nil
	case ProviderGemini:
		p, err := NewGeminiProvider(ctx, geminiAPIKey)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", id)
	}
}

// ParseProviderID validates a user-supplied provider name.
func ParseProviderID(s string) (ProviderID, error) {
	switch ProviderID(s) {
	case ProviderLocal, ProviderGemini:
		return ProviderID(s), nil
	default:
		return "", fmt.Errorf("unknown embedding provider: %q (expected local or gemini)", s)
	}
}
