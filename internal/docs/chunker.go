package docs

import (
	"fmt"
	"strings"
)

// ErrInvalidChunking is returned when the chunk size/overlap relationship
// would produce a non-positive window stride.
var ErrInvalidChunking = fmt.Errorf("chunk overlap must be strictly less than chunk size")

// ChunkDocument splits a document into retrievable chunks bounded by a
// word budget. A document that fits within chunkSize words becomes a
// single full_document chunk; larger documents are covered by a sliding
// window of chunkSize words advancing by chunkSize-overlap.
func ChunkDocument(doc *SourceDocument, chunkSize, overlap int) ([]Chunk, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d: %w", chunkSize, ErrInvalidChunking)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("overlap %d with chunk size %d: %w", overlap, chunkSize, ErrInvalidChunking)
	}

	sectionTitles := make([]string, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		sectionTitles = append(sectionTitles, s.Title)
	}

	words := strings.Fields(doc.Content)
	if len(words) <= chunkSize {
		return []Chunk{{
			Index:     0,
			Content:   doc.Content,
			Kind:      ChunkFullDocument,
			WordCount: len(words),
			Title:     doc.Title,
			RelPath:   doc.RelPath,
			FilePath:  doc.FilePath,
			Sections:  sectionTitles,
		}}, nil
	}

	stride := chunkSize - overlap
	var chunks []Chunk
	for start := 0; start < len(words); start += stride {
		end := start + chunkSize
		if end > len(words) {
			end = len(words)
		}
		window := words[start:end]
		chunks = append(chunks, Chunk{
			Index:     len(chunks),
			Content:   strings.Join(window, " "),
			Kind:      ChunkSection,
			WordCount: len(window),
			Title:     doc.Title,
			RelPath:   doc.RelPath,
			FilePath:  doc.FilePath,
			Sections:  sectionTitles,
		})
		if start+chunkSize >= len(words) {
			break
		}
	}
	return chunks, nil
}
