package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks docubuddy/internal/vectorstore VectorStore

import "context"

// Point is a vector with its attribution payload.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult is a single similarity hit. Score is cosine similarity:
// higher is better.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// VectorStore is the retrieval index boundary: chunk insertion on the
// write path, similarity queries on the read path.
type VectorStore interface {
	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search returns the top k points ranked by similarity, best first.
	Search(ctx context.Context, collection string, query []float32, k int) ([]SearchResult, error)

	// Delete removes points by their IDs.
	Delete(ctx context.Context, collection string, ids []string) error

	// Count returns the number of points stored in the collection.
	Count(ctx context.Context, collection string) (int, error)
}
