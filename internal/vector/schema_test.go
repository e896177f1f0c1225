package vector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaviate/weaviate/entities/models"

	"lumen/internal/embedding"
)

type MockSchemaClient struct {
	CreatedClass    *models.Class
	ExistingClass   *models.Class
	AddedProperties []*models.Property
}

func (m *MockSchemaClient) ClassExists(ctx context.Context, className string) (bool, error) {
	return m.ExistingClass != nil, nil
}

func (m *MockSchemaClient) CreateClass(ctx context.Context, class *models.Class) error {
	m.CreatedClass = class
	return nil
}

func (m *MockSchemaClient) GetClass(ctx context.Context, className string) (*models.Class, error) {
	return m.ExistingClass, nil
}

func (m *MockSchemaClient) AddProperty(ctx context.Context, className string, property *models.Property) error {
	m.AddedProperties = append(m.AddedProperties, property)
	return nil
}

func TestEnsureCollection_CreatesClass(t *testing.T) {
	client := &MockSchemaClient{}
	col := Collection{Provider: embedding.ProviderLocal, Class: "Ebooks", Dimensions: 384}

	require.NoError(t, EnsureCollection(context.Background(), client, col))
	require.NotNil(t, client.CreatedClass)

	assert.Equal(t, "Ebooks", client.CreatedClass.Class)
	assert.Equal(t, "none", client.CreatedClass.Vectorizer)

	names := make(map[string]string)
	for _, p := range client.CreatedClass.Properties {
		require.NotEmpty(t, p.DataType)
		names[p.Name] = p.DataType[0]
	}
	assert.Equal(t, "text", names["content"])
	assert.Equal(t, "text", names["title"])
	assert.Equal(t, "text", names["author"])
	assert.Equal(t, "string", names["filePath"])
	assert.Equal(t, "int", names["chunkIndex"])
	assert.Equal(t, "int", names["totalChunks"])
	assert.Equal(t, "int", names["dimensions"])
}

func TestEnsureCollection_IdempotentWhenClassExists(t *testing.T) {
	client := &MockSchemaClient{
		ExistingClass: &models.Class{
			Class: "EbooksGemini",
			Properties: []*models.Property{
				{Name: "content", DataType: []string{"text"}},
				{Name: "title", DataType: []string{"text"}},
				{Name: "author", DataType: []string{"text"}},
				{Name: "filePath", DataType: []string{"string"}},
				{Name: "fileType", DataType: []string{"string"}},
				{Name: "chunkIndex", DataType: []string{"int"}},
				{Name: "totalChunks", DataType: []string{"int"}},
				{Name: "dimensions", DataType: []string{"int"}},
			},
		},
	}
	col := Collection{Provider: embedding.ProviderGemini, Class: "EbooksGemini", Dimensions: 768}

	require.NoError(t, EnsureCollection(context.Background(), client, col))
	assert.Nil(t, client.CreatedClass, "existing class must not be recreated")
	assert.Empty(t, client.AddedProperties)
}

func TestEnsureCollection_BackfillsMissingProperties(t *testing.T) {
	client := &MockSchemaClient{
		ExistingClass: &models.Class{
			Class: "Ebooks",
			Properties: []*models.Property{
				{Name: "content", DataType: []string{"text"}},
				{Name: "title", DataType: []string{"text"}},
			},
		},
	}
	col := Collection{Provider: embedding.ProviderLocal, Class: "Ebooks", Dimensions: 384}

	require.NoError(t, EnsureCollection(context.Background(), client, col))
	assert.Nil(t, client.CreatedClass)

	added := make(map[string]bool)
	for _, p := range client.AddedProperties {
		added[p.Name] = true
	}
	assert.True(t, added["author"])
	assert.True(t, added["dimensions"])
	assert.False(t, added["content"], "existing property must not be re-added")
}
