package retrieval_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"docubuddy/internal/retrieval"
	"docubuddy/internal/retrieval/mocks"
	"docubuddy/internal/vectorstore"
	vsmocks "docubuddy/internal/vectorstore/mocks"

	"go.uber.org/mock/gomock"
)

func init() {
	// Set default logger to discard output for cleaner test output
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRetriever_Retrieve(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	embedder := mocks.NewMockEmbedder(ctrl)
	store := vsmocks.NewMockVectorStore(ctrl)
	retriever := retrieval.NewRetriever(embedder, store, "documentation", 5)

	query := "how do I install"
	vec := []float32{0.1, 0.2, 0.3}

	embedder.EXPECT().
		EmbedTexts(gomock.Any(), []string{query}).
		Return([][]float32{vec}, nil)
	store.EXPECT().
		Search(gomock.Any(), "documentation", vec, 5).
		Return([]vectorstore.SearchResult{
			{
				PointID: "p1",
				Score:   0.92,
				Meta: map[string]any{
					"content":   "Run the installer.",
					"title":     "Setup Guide",
					"rel_path":  "guides/setup.md",
					"file_path": "/corpus/guides/setup.md",
					"sections":  "Install, Requirements",
				},
			},
			{
				PointID: "p2",
				Score:   0.80,
				Meta:    map[string]any{"content": "Orphan chunk."},
			},
		}, nil)

	hits, err := retriever.Retrieve(context.Background(), query, 0)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}

	h := hits[0]
	if h.Content != "Run the installer." || h.Title != "Setup Guide" || h.Score != 0.92 {
		t.Errorf("hit 0 = %+v", h)
	}
	if h.Source.URL != "/docs/guides/setup" {
		t.Errorf("Source.URL = %q, want %q", h.Source.URL, "/docs/guides/setup")
	}
	if h.Source.Section != "Install" {
		t.Errorf("Source.Section = %q, want first listed section", h.Source.Section)
	}
	if h.Source.Description != "Section from Setup Guide" {
		t.Errorf("Source.Description = %q", h.Source.Description)
	}
	if h.Source.FilePath != "/corpus/guides/setup.md" {
		t.Errorf("Source.FilePath = %q", h.Source.FilePath)
	}

	// Missing metadata degrades to placeholders, not failures.
	if hits[1].Title != "Unknown" {
		t.Errorf("hit without title = %q, want Unknown", hits[1].Title)
	}
	if hits[1].Source.Section != "" {
		t.Errorf("hit without sections = %q, want empty", hits[1].Source.Section)
	}
}

func TestRetriever_Retrieve_ExplicitTopK(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	embedder := mocks.NewMockEmbedder(ctrl)
	store := vsmocks.NewMockVectorStore(ctrl)
	retriever := retrieval.NewRetriever(embedder, store, "documentation", 5)

	embedder.EXPECT().
		EmbedTexts(gomock.Any(), gomock.Any()).
		Return([][]float32{{0.5}}, nil)
	store.EXPECT().
		Search(gomock.Any(), "documentation", gomock.Any(), 3).
		Return(nil, nil)

	hits, err := retriever.Retrieve(context.Background(), "q", 3)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("got %d hits, want 0", len(hits))
	}
}

func TestRetriever_Retrieve_Unavailable(t *testing.T) {
	tests := []struct {
		name  string
		setup func(e *mocks.MockEmbedder, s *vsmocks.MockVectorStore)
	}{
		{
			name: "embedder failure",
			setup: func(e *mocks.MockEmbedder, s *vsmocks.MockVectorStore) {
				e.EXPECT().
					EmbedTexts(gomock.Any(), gomock.Any()).
					Return(nil, errors.New("connection refused"))
			},
		},
		{
			name: "embedder returns nothing",
			setup: func(e *mocks.MockEmbedder, s *vsmocks.MockVectorStore) {
				e.EXPECT().
					EmbedTexts(gomock.Any(), gomock.Any()).
					Return([][]float32{}, nil)
			},
		},
		{
			name: "index failure",
			setup: func(e *mocks.MockEmbedder, s *vsmocks.MockVectorStore) {
				e.EXPECT().
					EmbedTexts(gomock.Any(), gomock.Any()).
					Return([][]float32{{0.1}}, nil)
				s.EXPECT().
					Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, errors.New("index down"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			embedder := mocks.NewMockEmbedder(ctrl)
			store := vsmocks.NewMockVectorStore(ctrl)
			tt.setup(embedder, store)

			retriever := retrieval.NewRetriever(embedder, store, "documentation", 5)
			_, err := retriever.Retrieve(context.Background(), "q", 0)
			if !errors.Is(err, retrieval.ErrUnavailable) {
				t.Errorf("error = %v, want ErrUnavailable", err)
			}
		})
	}
}
