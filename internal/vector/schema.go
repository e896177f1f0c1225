package vector

import (
	"context"
	"fmt"

	"github.com/weaviate/weaviate/entities/models"
)

// SchemaClient is the slice of the Weaviate schema API EnsureCollection needs.
type SchemaClient interface {
	ClassExists(ctx context.Context, className string) (bool, error)
	CreateClass(ctx context.Context, class *models.Class) error
	GetClass(ctx context.Context, className string) (*models.Class, error)
	AddProperty(ctx context.Context, className string, property *models.Property) error
}

// EnsureCollection creates the class backing one provider if it is absent.
// Idempotent: an existing class is left alone apart from back-filling any
// missing properties. Vectors are supplied by us, so the class vectorizer
// is always "none".
func EnsureCollection(ctx context.Context, client SchemaClient, col Collection) error {
	exists, err := client.ClassExists(ctx, col.Class)
	if err != nil {
		return fmt.Errorf("check class %s: %w", col.Class, err)
	}

	properties := []*models.Property{
		{Name: "content", DataType: []string{"text"}},
		{Name: "title", DataType: []string{"text"}},
		{Name: "author", DataType: []string{"text"}},
		{Name: "filePath", DataType: []string{"string"}},
		{Name: "fileType", DataType: []string{"string"}},
		{Name: "chunkIndex", DataType: []string{"int"}},
		{Name: "totalChunks", DataType: []string{"int"}},
		{Name: "dimensions", DataType: []string{"int"}},
	}

	if !exists {
		class := &models.Class{
			Class:       col.Class,
			Description: fmt.Sprintf("Ebook chunks embedded by the %s provider (%d dims)", col.Provider, col.Dimensions),
			Vectorizer:  "none",
			Properties:  properties,
		}
		if err := client.CreateClass(ctx, class); err != nil {
			return fmt.Errorf("create class %s: %w", col.Class, err)
		}
		return nil
	}

	class, err := client.GetClass(ctx, col.Class)
	if err != nil {
		return fmt.Errorf("get class %s: %w", col.Class, err)
	}

	existing := make(map[string]bool, len(class.Properties))
	for _, p := range class.Properties {
		existing[p.Name] = true
	}
	for _, p := range properties {
		if !existing[p.Name] {
			if err := client.AddProperty(ctx, col.Class, p); err != nil {
				return fmt.Errorf("add property %s to %s: %w", p.Name, col.Class, err)
			}
		}
	}
	return nil
}
