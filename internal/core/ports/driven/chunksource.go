package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// ChunkSource turns a document into ordered chunks and into its full text.
// Both operations are deterministic for a given document and configuration.
type ChunkSource interface {
	// Split returns the document's chunks in document order.
	// A document with no extractable text returns an empty slice.
	Split(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)

	// FullText returns all page text joined by a single newline.
	FullText(ctx context.Context, doc *domain.Document) (string, error)
}
