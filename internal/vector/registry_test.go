package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumen/internal/embedding"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	t.Run("Local Collection", func(t *testing.T) {
		c, err := r.Lookup(embedding.ProviderLocal)
		require.NoError(t, err)
		assert.Equal(t, "Ebooks", c.Class)
		assert.Equal(t, 384, c.Dimensions)
	})

	t.Run("Gemini Collection", func(t *testing.T) {
		c, err := r.Lookup(embedding.ProviderGemini)
		require.NoError(t, err)
		assert.Equal(t, "EbooksGemini", c.Class)
		assert.Equal(t, 768, c.Dimensions)
	})

	t.Run("Unknown Provider", func(t *testing.T) {
		_, err := r.Lookup(embedding.ProviderID("openai"))
		assert.Error(t, err)
	})

	t.Run("Stable Iteration Order", func(t *testing.T) {
		all := r.All()
		require.Len(t, all, 2)
		assert.Equal(t, embedding.ProviderLocal, all[0].Provider)
		assert.Equal(t, embedding.ProviderGemini, all[1].Provider)
	})

	t.Run("Collections Never Shared", func(t *testing.T) {
		local, _ := r.Lookup(embedding.ProviderLocal)
		gemini, _ := r.Lookup(embedding.ProviderGemini)
		assert.NotEqual(t, local.Class, gemini.Class)
	})
}
