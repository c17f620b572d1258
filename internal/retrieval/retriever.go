package retrieval

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks docubuddy/internal/retrieval Embedder

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"docubuddy/internal/contextutil"
	"docubuddy/internal/docs"
	"docubuddy/internal/vectorstore"
)

// ErrUnavailable is returned when the retrieval index or the embedding
// service cannot be reached. Callers degrade to empty evidence rather
// than failing the chat turn.
var ErrUnavailable = errors.New("retrieval unavailable")

// EvidenceHit is one retrieved chunk normalized for answer grounding.
// Score is cosine similarity: higher is better.
type EvidenceHit struct {
	Content string
	Title   string
	RelPath string
	Score   float32
	Source  docs.Source
}

// Embedder computes embedding vectors for query text.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever turns a query into a ranked evidence set. It does not
// deduplicate: the same document may legitimately appear through several
// chunks, and collapsing to one Source per document happens when the
// answer is assembled.
type Retriever struct {
	embedder   Embedder
	store      vectorstore.VectorStore
	collection string
	topK       int
}

// NewRetriever creates a retriever with the given default top-k.
func NewRetriever(embedder Embedder, store vectorstore.VectorStore, collection string, topK int) *Retriever {
	return &Retriever{
		embedder:   embedder,
		store:      store,
		collection: collection,
		topK:       topK,
	}
}

// Retrieve returns up to topK evidence hits for the query, best first.
// topK <= 0 uses the configured default. A failure of the embedding
// service or the index is wrapped in ErrUnavailable.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]EvidenceHit, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if topK <= 0 {
		topK = r.topK
	}

	vectors, err := r.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %v", ErrUnavailable, err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: no embedding returned for query", ErrUnavailable)
	}

	results, err := r.store.Search(ctx, r.collection, vectors[0], topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	hits := make([]EvidenceHit, 0, len(results))
	for _, res := range results {
		hits = append(hits, normalizeHit(res))
	}

	logger.DebugContext(ctx, "retrieval completed", "query_length", len(query), "k", topK, "hits", len(hits))
	return hits, nil
}

// normalizeHit projects a raw index hit into an EvidenceHit with a
// derived logical source.
func normalizeHit(res vectorstore.SearchResult) EvidenceHit {
	content, _ := res.Meta["content"].(string)
	title, _ := res.Meta["title"].(string)
	relPath, _ := res.Meta["rel_path"].(string)
	filePath, _ := res.Meta["file_path"].(string)
	sections, _ := res.Meta["sections"].(string)

	if title == "" {
		title = "Unknown"
	}

	return EvidenceHit{
		Content: content,
		Title:   title,
		RelPath: relPath,
		Score:   res.Score,
		Source: docs.Source{
			Title:       title,
			Description: fmt.Sprintf("Section from %s", title),
			URL:         displayURL(relPath),
			Section:     firstSection(sections),
			FilePath:    filePath,
		},
	}
}

// displayURL derives a docs site URL from the source's relative path
// with the extension stripped.
func displayURL(relPath string) string {
	trimmed := strings.TrimSuffix(relPath, path.Ext(relPath))
	return "/docs/" + trimmed
}

// firstSection picks the first listed section name as the representative
// section when several co-occur in one chunk's metadata.
func firstSection(sections string) string {
	if sections == "" {
		return ""
	}
	parts := strings.SplitN(sections, ", ", 2)
	return parts[0]
}
