package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ensure searchableIndex implements the interface.
var _ driving.SearchableIndex = (*searchableIndex)(nil)

// searchableIndex is an open, completed index bound to the embedder that built it.
type searchableIndex struct {
	fp       domain.Fingerprint
	embedder driven.EmbeddingService
	count    int

	mu     sync.RWMutex
	store  driven.VectorStore
	closed bool
}

func newSearchableIndex(
	fp domain.Fingerprint, store driven.VectorStore, embedder driven.EmbeddingService, count int,
) *searchableIndex {
	return &searchableIndex{
		fp:       fp,
		store:    store,
		embedder: embedder,
		count:    count,
	}
}

func (i *searchableIndex) Fingerprint() domain.Fingerprint {
	return i.fp
}

func (i *searchableIndex) Len() int {
	return i.count
}

// Search embeds the query once and returns the nearest chunks in
// descending similarity order.
func (i *searchableIndex) Search(ctx context.Context, query string, k int) ([]domain.Chunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}

	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return nil, domain.ErrIndexClosed
	}
	if i.count == 0 {
		return []domain.Chunk{}, nil
	}

	vec, err := i.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrEmbeddingService, err)
	}

	hits, err := i.store.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("search index %s: %w", i.fp, err)
	}

	chunks := make([]domain.Chunk, len(hits))
	for n, h := range hits {
		chunks[n] = h.Chunk
	}
	return chunks, nil
}

func (i *searchableIndex) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return nil
	}
	i.closed = true
	return i.store.Close()
}
