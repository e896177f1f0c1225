package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalProvider(t *testing.T) {
	p := NewLocalProvider()
	ctx := context.Background()

	t.Run("Declared Metadata", func(t *testing.T) {
		assert.Equal(t, ProviderLocal, p.ID())
		assert.Equal(t, 384, p.Dimensions())
		assert.Equal(t, "static-hash-v1", p.ModelName())
	})

	t.Run("Vector Matches Declared Dimensionality", func(t *testing.T) {
		vec, err := p.Embed(ctx, "the quick brown fox jumps over the lazy dog")
		require.NoError(t, err)
		assert.Len(t, vec, p.Dimensions())
	})

	t.Run("Deterministic", func(t *testing.T) {
		a, err := p.Embed(ctx, "semantic search over a personal library")
		require.NoError(t, err)
		b, err := p.Embed(ctx, "semantic search over a personal library")
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("Unit Length", func(t *testing.T) {
		vec, err := p.Embed(ctx, "normalised vectors make cosine scoring behave")
		require.NoError(t, err)
		var sum float64
		for _, x := range vec {
			sum += float64(x) * float64(x)
		}
		assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
	})

	t.Run("Empty Input Gives Zero Vector", func(t *testing.T) {
		vec, err := p.Embed(ctx, "   ")
		require.NoError(t, err)
		require.Len(t, vec, p.Dimensions())
		for _, x := range vec {
			assert.Zero(t, x)
		}
	})

	t.Run("Different Texts Differ", func(t *testing.T) {
		a, err := p.Embed(ctx, "a treatise on naval history")
		require.NoError(t, err)
		b, err := p.Embed(ctx, "cooking with seasonal vegetables")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}

func TestGeminiProviderRequiresKey(t *testing.T) {
	_, err := NewGeminiProvider(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestParseProviderID(t *testing.T) {
	id, err := ParseProviderID("local")
	require.NoError(t, err)
	assert.Equal(t, ProviderLocal, id)

	id, err = ParseProviderID("gemini")
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, id)

	_, err = ParseProviderID("openai")
	assert.Error(t, err)
}
