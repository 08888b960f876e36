package chromemdb

import (
	"context"
	"strings"
	"testing"

	"github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var vocab = []string{"solar", "wind", "coal", "budget"}

// keywordEmbed counts vocabulary words; the trailing constant keeps vectors non-zero.
func keywordEmbed(_ context.Context, text string) ([]float32, error) {
	vector := make([]float32, len(vocab)+1)
	lower := strings.ToLower(text)
	for i, w := range vocab {
		vector[i] = float32(strings.Count(lower, w))
	}
	vector[len(vocab)] = 0.1
	return vector, nil
}

func TestCreateDocsAndSearch(t *testing.T) {
	ctx := context.Background()
	m := NewVectorDBManager(keywordEmbed)

	err := m.CreateDocs(ctx, "report.pdf", []chromem.Document{
		{ID: "1", Content: "solar panels and solar farms", Metadata: map[string]string{MetaChunkID: "1"}},
		{ID: "2", Content: "coal plants closing", Metadata: map[string]string{MetaChunkID: "2"}},
		{ID: "3", Content: "the budget for next year", Metadata: map[string]string{MetaChunkID: "3"}},
	})
	require.NoError(t, err)

	results, err := m.Search(ctx, "report.pdf", "solar output", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "1", results[0].ID)

	results, err = m.Search(ctx, "report.pdf", "coal", 10)
	require.NoError(t, err)
	assert.Len(t, results, 3, "nResults is clamped to the collection size")
	assert.Equal(t, "2", results[0].ID)
}

func TestSearch_Edges(t *testing.T) {
	ctx := context.Background()
	m := NewVectorDBManager(keywordEmbed)

	_, err := m.Search(ctx, "missing", "solar", 3)
	assert.Error(t, err)

	_, err = m.GetOrCreateCollection("empty")
	require.NoError(t, err)
	results, err := m.Search(ctx, "empty", "solar", 3)
	require.NoError(t, err)
	assert.Empty(t, results)

	_, err = m.Search(ctx, "empty", "", 3)
	assert.Error(t, err)

	require.NoError(t, m.CreateDocs(ctx, "empty", nil))
}

func TestDeleteCollection(t *testing.T) {
	ctx := context.Background()
	m := NewVectorDBManager(keywordEmbed)
	require.NoError(t, m.CreateDocs(ctx, "doc", []chromem.Document{{ID: "1", Content: "wind"}}))

	require.NoError(t, m.DeleteCollection("doc"))
	_, err := m.Search(ctx, "doc", "wind", 1)
	assert.Error(t, err)
}
