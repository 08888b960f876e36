// Package excerpt picks the bounded slice of a document's text that goes
// into a pass prompt.
package excerpt

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"document-analyzer/internal/chromemdb"
	"document-analyzer/internal/models"
	"document-analyzer/internal/parser"
)

// Selector returns at most a bounded amount of text from doc for query.
type Selector interface {
	Select(ctx context.Context, doc *models.Document, text, query string) (string, error)
}

// PrefixSelector keeps the first MaxChars runes of the text.
type PrefixSelector struct {
	MaxChars int
}

func (s PrefixSelector) Select(_ context.Context, _ *models.Document, text, _ string) (string, error) {
	return Prefix(text, s.MaxChars), nil
}

// Prefix truncates text to maxChars runes. maxChars <= 0 keeps everything.
func Prefix(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	n := 0
	for i := range text {
		if n == maxChars {
			return text[:i]
		}
		n++
	}
	return text
}

// RelevantSelector embeds a document's chunks once and returns the chunks
// most similar to each query, in document order, up to MaxChars runes.
// Collections are kept until Reset.
type RelevantSelector struct {
	db           *chromemdb.VectorDBManager
	maxChars     int
	chunkSize    int
	chunkOverlap int
	topK         int

	mu      sync.Mutex
	indexed map[*models.Document]string
}

func NewRelevantSelector(db *chromemdb.VectorDBManager, maxChars, chunkSize, chunkOverlap, topK int) *RelevantSelector {
	return &RelevantSelector{
		db:           db,
		maxChars:     maxChars,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		topK:         topK,
		indexed:      make(map[*models.Document]string),
	}
}

func (s *RelevantSelector) Select(ctx context.Context, doc *models.Document, text, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return Prefix(text, s.maxChars), nil
	}

	collection, err := s.index(ctx, doc, text)
	if err != nil {
		return "", err
	}
	if collection == "" {
		return "", nil
	}

	results, err := s.db.Search(ctx, collection, query, s.topK)
	if err != nil {
		return "", fmt.Errorf("search %s: %w", doc.Name, err)
	}
	return joinByOffset(results, s.maxChars), nil
}

// Reset drops every collection built so far.
func (s *RelevantSelector) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for doc, collection := range s.indexed {
		if err := s.db.DeleteCollection(collection); err != nil {
			log.Warn().Err(err).Str("document", doc.Name).Msg("Error deleting collection")
		}
	}
	s.indexed = make(map[*models.Document]string)
}

func (s *RelevantSelector) index(ctx context.Context, doc *models.Document, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if collection, ok := s.indexed[doc]; ok {
		return collection, nil
	}

	chunks := parser.Chunks(text, s.chunkSize, s.chunkOverlap)
	if len(chunks) == 0 {
		s.indexed[doc] = ""
		return "", nil
	}

	collection := fmt.Sprintf("%s-%d", doc.Name, len(s.indexed))
	docs := make([]chromem.Document, 0, len(chunks))
	for _, c := range chunks {
		docs = append(docs, chromem.Document{
			ID:      fmt.Sprintf("%s-%d", collection, c.ChunkID),
			Content: c.Content,
			Metadata: map[string]string{
				chromemdb.MetaDocument: doc.Name,
				chromemdb.MetaChunkID:  strconv.Itoa(c.ChunkID),
				chromemdb.MetaOffset:   strconv.Itoa(c.Offset),
			},
		})
	}
	if err := s.db.CreateDocs(ctx, collection, docs); err != nil {
		return "", fmt.Errorf("index %s: %w", doc.Name, err)
	}

	log.Debug().Str("document", doc.Name).Int("chunks", len(docs)).Msg("Indexed document")
	s.indexed[doc] = collection
	return collection, nil
}

func joinByOffset(results []chromem.Result, maxChars int) string {
	sort.SliceStable(results, func(i, j int) bool {
		return offsetOf(results[i]) < offsetOf(results[j])
	})

	var b strings.Builder
	remaining := maxChars
	for _, r := range results {
		if maxChars > 0 && remaining <= 0 {
			break
		}
		content := r.Content
		if maxChars > 0 {
			content = Prefix(content, remaining)
			remaining -= len([]rune(content))
		}
		if b.Len() > 0 {
			b.WriteString(models.ContextSeparator)
		}
		b.WriteString(content)
	}
	return b.String()
}

func offsetOf(r chromem.Result) int {
	n, err := strconv.Atoi(r.Metadata[chromemdb.MetaOffset])
	if err != nil {
		return 0
	}
	return n
}
