package chromemdb

import (
	"context"
	"fmt"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
)

// meta data will have source document name, chunk id and rune offset
const (
	MetaDocument = "document"
	MetaChunkID  = "chunk_id"
	MetaOffset   = "offset"
)

// VectorDBManager encapsulates in-memory chromem-go collections. Nothing is
// written to disk; collections live as long as the manager.
type VectorDBManager struct {
	db          *chromem.DB
	embedFunc   chromem.EmbeddingFunc
	concurrency int
}

// NewVectorDBManager initializes an in-memory vector database. embedFunc is
// used for documents and queries that carry no embedding.
func NewVectorDBManager(embedFunc chromem.EmbeddingFunc) *VectorDBManager {
	return &VectorDBManager{
		db:          chromem.NewDB(),
		embedFunc:   embedFunc,
		concurrency: 1,
	}
}

// create or read collection
func (m *VectorDBManager) GetOrCreateCollection(collectionName string) (*chromem.Collection, error) {
	c, err := m.db.GetOrCreateCollection(collectionName, nil, m.embedFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}
	return c, nil
}

// CreateDocs adds documents to the named collection, embedding them one at a
// time against the local endpoint.
func (m *VectorDBManager) CreateDocs(ctx context.Context, collectionName string, documents []chromem.Document) error {
	if len(documents) == 0 {
		return nil
	}
	c, err := m.GetOrCreateCollection(collectionName)
	if err != nil {
		return err
	}
	if err := c.AddDocuments(ctx, documents, m.concurrency); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	log.Debug().Str("collection", collectionName).Int("count", c.Count()).Msg("Added documents")
	return nil
}

// Search returns up to nResults documents most similar to query. nResults is
// clamped to the collection size; an empty collection yields no results.
func (m *VectorDBManager) Search(ctx context.Context, collectionName, query string, nResults int) ([]chromem.Result, error) {
	if query == "" {
		return nil, fmt.Errorf("query must be provided")
	}
	c := m.db.GetCollection(collectionName, m.embedFunc)
	if c == nil {
		return nil, fmt.Errorf("collection %q not found", collectionName)
	}

	count := c.Count()
	if count == 0 || nResults <= 0 {
		return nil, nil
	}
	nResults = min(nResults, count)

	results, err := c.Query(ctx, query, nResults, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}
	return results, nil
}

// delete collection
func (m *VectorDBManager) DeleteCollection(collectionName string) error {
	if err := m.db.DeleteCollection(collectionName); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	return nil
}
