package docs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// makeDoc builds a document with exactly wordCount words.
func makeDoc(wordCount int) *SourceDocument {
	words := make([]string, wordCount)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	content := strings.Join(words, " ")
	return &SourceDocument{
		FilePath:  "/docs/big.md",
		RelPath:   "big.md",
		Title:     "Big Doc",
		Content:   content,
		WordCount: wordCount,
		Sections:  []Section{{Level: 1, Title: "Big Doc"}, {Level: 2, Title: "Details"}},
	}
}

func TestChunkDocument_SmallDocument(t *testing.T) {
	doc := makeDoc(50)
	chunks, err := ChunkDocument(doc, 100, 20)
	if err != nil {
		t.Fatalf("ChunkDocument() error = %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}

	c := chunks[0]
	if c.Kind != ChunkFullDocument {
		t.Errorf("Kind = %q, want %q", c.Kind, ChunkFullDocument)
	}
	if c.Content != doc.Content {
		t.Errorf("small document chunk must carry the original content verbatim")
	}
	if c.WordCount != 50 {
		t.Errorf("WordCount = %d, want 50", c.WordCount)
	}
	if c.Title != "Big Doc" || c.RelPath != "big.md" {
		t.Errorf("attribution = (%q, %q), want (Big Doc, big.md)", c.Title, c.RelPath)
	}
	if len(c.Sections) != 2 || c.Sections[1] != "Details" {
		t.Errorf("Sections = %v, want section titles carried over", c.Sections)
	}
}

func TestChunkDocument_ExactFit(t *testing.T) {
	chunks, err := ChunkDocument(makeDoc(100), 100, 20)
	if err != nil {
		t.Fatalf("ChunkDocument() error = %v", err)
	}
	if len(chunks) != 1 || chunks[0].Kind != ChunkFullDocument {
		t.Errorf("document of exactly chunkSize words should be one full_document chunk, got %d", len(chunks))
	}
}

func TestChunkDocument_SlidingWindow(t *testing.T) {
	const chunkSize, overlap = 100, 20
	doc := makeDoc(250)

	chunks, err := ChunkDocument(doc, chunkSize, overlap)
	if err != nil {
		t.Fatalf("ChunkDocument() error = %v", err)
	}
	// Stride 80: windows at 0, 80, 160 (160+100 >= 250 stops the walk).
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}

	words := strings.Fields(doc.Content)
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d Index = %d, want contiguous from 0", i, c.Index)
		}
		if c.Kind != ChunkSection {
			t.Errorf("chunk %d Kind = %q, want %q", i, c.Kind, ChunkSection)
		}
		if got := len(strings.Fields(c.Content)); got != c.WordCount {
			t.Errorf("chunk %d WordCount = %d, content has %d words", i, c.WordCount, got)
		}
		if c.WordCount > chunkSize {
			t.Errorf("chunk %d has %d words, exceeds budget %d", i, c.WordCount, chunkSize)
		}
	}

	// First window starts at the first word, last window ends at the last.
	if !strings.HasPrefix(chunks[0].Content, words[0]) {
		t.Errorf("first chunk must start the document")
	}
	if !strings.HasSuffix(chunks[len(chunks)-1].Content, words[len(words)-1]) {
		t.Errorf("last chunk must end the document")
	}

	// Adjacent windows share exactly overlap words.
	first := strings.Fields(chunks[0].Content)
	second := strings.Fields(chunks[1].Content)
	tail := first[len(first)-overlap:]
	head := second[:overlap]
	for i := range tail {
		if tail[i] != head[i] {
			t.Fatalf("overlap word %d: %q vs %q", i, tail[i], head[i])
		}
	}
}

func TestChunkDocument_InvalidParameters(t *testing.T) {
	doc := makeDoc(10)
	tests := []struct {
		name      string
		chunkSize int
		overlap   int
	}{
		{"zero chunk size", 0, 0},
		{"negative overlap", 100, -1},
		{"overlap equals chunk size", 100, 100},
		{"overlap exceeds chunk size", 100, 150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ChunkDocument(doc, tt.chunkSize, tt.overlap)
			if !errors.Is(err, ErrInvalidChunking) {
				t.Errorf("error = %v, want ErrInvalidChunking", err)
			}
		})
	}
}
