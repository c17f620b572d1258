package indexer_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/mock/gomock"

	"docubuddy/internal/indexer"
	"docubuddy/internal/vectorstore"
	vsmocks "docubuddy/internal/vectorstore/mocks"
)

func init() {
	// Set default logger to discard output for cleaner test output
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// fakeEmbedder returns a fixed-size vector per input text.
type fakeEmbedder struct {
	size  int
	calls int
}

func (f *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.size)
	}
	return out, nil
}

func writeCorpusFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestPipeline_IndexAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	root := t.TempDir()
	writeCorpusFile(t, root, "setup.md", "# Setup\n\nRun the installer.\n")
	writeCorpusFile(t, root, "guides/usage.md", "# Usage\n\nCall the API.\n")

	store := vsmocks.NewMockVectorStore(ctrl)
	var upserted [][]vectorstore.Point
	store.EXPECT().
		Upsert(gomock.Any(), "documentation", gomock.Any()).
		DoAndReturn(func(ctx context.Context, collection string, points []vectorstore.Point) error {
			upserted = append(upserted, points)
			return nil
		}).
		Times(2)

	embedder := &fakeEmbedder{size: 8}
	pipeline := indexer.NewPipeline(root, embedder, store, "documentation", 1000, 200)

	report, err := pipeline.IndexAll(context.Background())
	if err != nil {
		t.Fatalf("IndexAll() error = %v", err)
	}
	if report.DocsScanned != 2 || report.DocsIndexed != 2 || report.ParseFailures != 0 {
		t.Errorf("report = %+v", report)
	}
	if report.ChunksIndexed != 2 {
		t.Errorf("ChunksIndexed = %d, want 2 (one full_document chunk per small file)", report.ChunksIndexed)
	}
	if embedder.calls != 2 {
		t.Errorf("embedder called %d times, want once per document", embedder.calls)
	}

	// Every point carries full attribution metadata and a vector.
	for _, points := range upserted {
		for _, p := range points {
			if p.ID == "" {
				t.Error("point without id")
			}
			if len(p.Vec) != 8 {
				t.Errorf("vector size = %d, want 8", len(p.Vec))
			}
			for _, key := range []string{"content", "title", "rel_path", "file_path", "chunk_index", "chunk_type", "sections", "word_count"} {
				if _, ok := p.Meta[key]; !ok {
					t.Errorf("point missing metadata key %q", key)
				}
			}
			if p.Meta["chunk_type"] != "full_document" {
				t.Errorf("chunk_type = %v, want full_document for small files", p.Meta["chunk_type"])
			}
		}
	}
}

func TestPipeline_IndexAll_SkipsUnparseableFiles(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	root := t.TempDir()
	writeCorpusFile(t, root, "good.md", "# Good\n\nFine content.\n")
	// Invalid UTF-8 makes the file unparseable.
	if err := os.WriteFile(filepath.Join(root, "bad.md"), []byte{0xff, 0xfe, 0x00}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	store := vsmocks.NewMockVectorStore(ctrl)
	store.EXPECT().
		Upsert(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil).
		Times(1)

	pipeline := indexer.NewPipeline(root, &fakeEmbedder{size: 4}, store, "documentation", 1000, 200)
	report, err := pipeline.IndexAll(context.Background())
	if err != nil {
		t.Fatalf("IndexAll() error = %v", err)
	}
	if report.DocsScanned != 2 || report.DocsIndexed != 1 || report.ParseFailures != 1 {
		t.Errorf("report = %+v, want one failure and one indexed", report)
	}
}

func TestPipeline_IndexAll_EmptyCorpus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := vsmocks.NewMockVectorStore(ctrl)
	pipeline := indexer.NewPipeline(filepath.Join(t.TempDir(), "absent"), &fakeEmbedder{size: 4}, store, "documentation", 1000, 200)

	report, err := pipeline.IndexAll(context.Background())
	if err != nil {
		t.Fatalf("IndexAll() error = %v", err)
	}
	if report.DocsScanned != 0 || report.DocsIndexed != 0 {
		t.Errorf("report = %+v, want empty", report)
	}
}

func TestPipeline_IndexAll_LargeDocumentChunks(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	root := t.TempDir()
	content := "# Big\n\n"
	for i := 0; i < 300; i++ {
		content += "word "
	}
	writeCorpusFile(t, root, "big.md", content)

	store := vsmocks.NewMockVectorStore(ctrl)
	var got []vectorstore.Point
	store.EXPECT().
		Upsert(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, collection string, points []vectorstore.Point) error {
			got = points
			return nil
		})

	pipeline := indexer.NewPipeline(root, &fakeEmbedder{size: 4}, store, "documentation", 100, 20)
	report, err := pipeline.IndexAll(context.Background())
	if err != nil {
		t.Fatalf("IndexAll() error = %v", err)
	}
	if report.ChunksIndexed < 2 {
		t.Fatalf("ChunksIndexed = %d, want a multi-chunk split", report.ChunksIndexed)
	}
	if len(got) != report.ChunksIndexed {
		t.Errorf("upserted %d points, report says %d", len(got), report.ChunksIndexed)
	}
	if got[0].Meta["chunk_type"] != "section" {
		t.Errorf("chunk_type = %v, want section for windowed chunks", got[0].Meta["chunk_type"])
	}
}
