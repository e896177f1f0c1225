package vector

import (
	"fmt"

	"lumen/internal/embedding"
)

// Collection describes the document-store class backing one embedding
// provider: its name and the vector dimensionality every record in it must
// carry. One collection per provider, never shared, so that records of
// different dimensionalities can never meet in one similarity query.
type Collection struct {
	Provider   embedding.ProviderID
	Class      string
	Dimensions int
}

// Registry resolves providers to collection descriptors. It is built once
// at startup; collection names are never string-built inline anywhere else.
type Registry struct {
	byProvider map[embedding.ProviderID]Collection
}

func NewRegistry() *Registry {
	return &Registry{
		byProvider: map[embedding.ProviderID]Collection{
			embedding.ProviderLocal: {
				Provider:   embedding.ProviderLocal,
				Class:      "Ebooks",
				Dimensions: 384,
			},
			embedding.ProviderGemini: {
				Provider:   embedding.ProviderGemini,
				Class:      "EbooksGemini",
				Dimensions: 768,
			},
		},
	}
}

// Lookup returns the collection descriptor for a provider.
func (r *Registry) Lookup(id embedding.ProviderID) (Collection, error) {
	c, ok := r.byProvider[id]
	if !ok {
		return Collection{}, fmt.Errorf("no collection registered for provider %s", id)
	}
	return c, nil
}

// All returns every registered collection in a stable order: local first,
// then gemini. Search iterates providers in this order, which also decides
// dedup ties between equal scores.
func (r *Registry) All() []Collection {
	ordered := make([]Collection, 0, len(r.byProvider))
	for _, id := range []embedding.ProviderID{embedding.ProviderLocal, embedding.ProviderGemini} {
		if c, ok := r.byProvider[id]; ok {
			ordered = append(ordered, c)
		}
	}
	return ordered
}
