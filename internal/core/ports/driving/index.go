package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// IndexService owns the persisted vector index of each document.
type IndexService interface {
	// LoadOrCreate returns a searchable index for doc. A completed index
	// whose metadata matches the document fingerprint is reused; otherwise
	// the index is built from scratch and marked complete only at the end.
	LoadOrCreate(ctx context.Context, doc *domain.Document) (SearchableIndex, error)

	// Status reports what is on disk for doc without modifying anything.
	Status(ctx context.Context, doc *domain.Document) (*domain.IndexStatus, error)

	// Remove deletes the index directory for fp.
	// Returns domain.ErrNotFound when there is nothing to remove.
	Remove(ctx context.Context, fp domain.Fingerprint) error

	// SaveUpload copies the document into the upload directory and returns its path.
	SaveUpload(ctx context.Context, doc *domain.Document) (string, error)
}

// SearchableIndex is an open handle on one completed index.
type SearchableIndex interface {
	// Fingerprint identifies the indexed document.
	Fingerprint() domain.Fingerprint

	// Search embeds query and returns up to k chunks, most similar first.
	Search(ctx context.Context, query string, k int) ([]domain.Chunk, error)

	// Len returns the number of indexed chunks.
	Len() int

	// Close releases the handle. Searches after Close fail with domain.ErrIndexClosed.
	Close() error
}
