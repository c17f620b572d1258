package indexer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"docubuddy/internal/contextutil"
	"docubuddy/internal/docs"
	"docubuddy/internal/vectorstore"
)

// Embedder computes embedding vectors for chunk text.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Report summarizes one ingestion run.
type Report struct {
	DocsScanned   int
	DocsIndexed   int
	ParseFailures int
	ChunksIndexed int
}

// Pipeline turns the documentation corpus into retrieval index points:
// scan, parse, chunk, embed, upsert. It is a bulk operation off the
// request hot path; queries arriving before it completes simply see an
// emptier index.
type Pipeline struct {
	docsRoot     string
	parser       *docs.Parser
	embedder     Embedder
	store        vectorstore.VectorStore
	collection   string
	chunkSize    int
	chunkOverlap int
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(docsRoot string, embedder Embedder, store vectorstore.VectorStore, collection string, chunkSize, chunkOverlap int) *Pipeline {
	return &Pipeline{
		docsRoot:     docsRoot,
		parser:       docs.NewParser(),
		embedder:     embedder,
		store:        store,
		collection:   collection,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// IndexAll ingests the whole corpus. Per-file parse failures are logged
// and skipped; the rest of the corpus is still indexed.
func (p *Pipeline) IndexAll(ctx context.Context) (*Report, error) {
	logger := contextutil.LoggerFromContext(ctx)

	files, err := docs.ScanCorpus(ctx, p.docsRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to scan corpus: %w", err)
	}

	report := &Report{DocsScanned: len(files)}
	logger.InfoContext(ctx, "starting ingestion", "docs_root", p.docsRoot, "files", len(files))

	for _, file := range files {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		chunks, err := p.indexDocument(ctx, file)
		if err != nil {
			var parseErr *docs.ParseError
			if errors.As(err, &parseErr) {
				report.ParseFailures++
				logger.WarnContext(ctx, "skipping unparseable file", "path", parseErr.Path, "error", parseErr.Err)
				continue
			}
			logger.ErrorContext(ctx, "failed to index file", "rel_path", file.RelPath, "error", err)
			continue
		}

		report.DocsIndexed++
		report.ChunksIndexed += chunks
	}

	logger.InfoContext(ctx, "ingestion completed",
		"scanned", report.DocsScanned,
		"indexed", report.DocsIndexed,
		"parse_failures", report.ParseFailures,
		"chunks", report.ChunksIndexed,
	)
	return report, nil
}

// indexDocument parses, chunks, embeds and upserts a single file,
// returning the number of chunks written.
func (p *Pipeline) indexDocument(ctx context.Context, file docs.ScannedFile) (int, error) {
	doc, err := p.parser.ParseFile(ctx, file.AbsPath, file.RelPath)
	if err != nil {
		return 0, err
	}

	chunks, err := docs.ChunkDocument(doc, p.chunkSize, p.chunkOverlap)
	if err != nil {
		return 0, fmt.Errorf("failed to chunk %s: %w", file.RelPath, err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	embeddings, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed %s: %w", file.RelPath, err)
	}
	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("embedding count mismatch for %s: expected %d, got %d", file.RelPath, len(chunks), len(embeddings))
	}

	points := make([]vectorstore.Point, len(chunks))
	for i, chunk := range chunks {
		points[i] = vectorstore.Point{
			ID:  uuid.New().String(),
			Vec: embeddings[i],
			Meta: map[string]any{
				"content":     chunk.Content,
				"title":       chunk.Title,
				"rel_path":    chunk.RelPath,
				"file_path":   chunk.FilePath,
				"chunk_index": chunk.Index,
				"chunk_type":  string(chunk.Kind),
				"sections":    strings.Join(chunk.Sections, ", "),
				"word_count":  chunk.WordCount,
			},
		}
	}

	if err := p.store.Upsert(ctx, p.collection, points); err != nil {
		return 0, fmt.Errorf("failed to upsert %s: %w", file.RelPath, err)
	}
	return len(points), nil
}
