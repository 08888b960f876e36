package excerpt

import (
	"fmt"

	"document-analyzer/internal/chromemdb"
	"document-analyzer/internal/config"
	"document-analyzer/internal/embedding"
)

// NewSelector builds the configured selector. A relevance selector owns its
// own in-memory vector store, so callers build one per analysis run.
func NewSelector(cfg *config.ExcerptConfig, embedConfig *config.LLMConfig) (Selector, error) {
	switch cfg.Strategy {
	case config.ExcerptPrefix, "":
		return PrefixSelector{MaxChars: cfg.PrefixChars}, nil
	case config.ExcerptRelevant:
		embedder, err := embedding.NewEmbedder(embedConfig)
		if err != nil {
			return nil, fmt.Errorf("relevant excerpts: %w", err)
		}
		db := chromemdb.NewVectorDBManager(embedding.EmbeddingFunc(embedder))
		return NewRelevantSelector(db, cfg.PrefixChars, cfg.ChunkSize, cfg.ChunkOverlap, cfg.TopK), nil
	default:
		return nil, fmt.Errorf("unknown excerpt strategy %q", cfg.Strategy)
	}
}
