package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// VectorStore holds the records of one document index and answers
// nearest-neighbour queries over them.
type VectorStore interface {
	// Add appends records to the store.
	Add(ctx context.Context, records []domain.IndexRecord) error

	// Search returns up to k records nearest to the query vector,
	// most similar first.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// Chunk is the matched chunk.
	Chunk domain.Chunk

	// Similarity is the cosine similarity score (-1 to 1).
	Similarity float64
}

// VectorStoreEngine creates and opens vector stores inside index directories.
// The directory layout below dir belongs to the engine; the index service
// owns dir itself and the completion metadata next to it.
type VectorStoreEngine interface {
	// Create initialises an empty store in dir, which must exist.
	Create(ctx context.Context, dir string) (VectorStore, error)

	// Open loads a previously created store from dir.
	Open(ctx context.Context, dir string) (VectorStore, error)

	// Name identifies the engine in logs and status output.
	Name() string
}
