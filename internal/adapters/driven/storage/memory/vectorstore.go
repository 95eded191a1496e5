package memory

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/vecmath"
)

// Ensure the engine and store implement the interfaces.
var (
	_ driven.VectorStoreEngine = (*VectorEngine)(nil)
	_ driven.VectorStore       = (*VectorStore)(nil)
)

// VectorEngine keeps vector stores in process memory, keyed by directory.
// Stores survive Close and can be reopened until the engine is discarded.
type VectorEngine struct {
	mu     sync.Mutex
	stores map[string]*VectorStore
}

// NewVectorEngine creates an empty in-memory engine.
func NewVectorEngine() *VectorEngine {
	return &VectorEngine{stores: make(map[string]*VectorStore)}
}

// Name returns "memory".
func (e *VectorEngine) Name() string {
	return "memory"
}

// Create replaces any store registered for dir with an empty one.
func (e *VectorEngine) Create(_ context.Context, dir string) (driven.VectorStore, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := &VectorStore{}
	e.stores[filepath.Clean(dir)] = s
	return s, nil
}

// Open returns the store created for dir.
func (e *VectorEngine) Open(_ context.Context, dir string) (driven.VectorStore, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.stores[filepath.Clean(dir)]
	if !ok {
		return nil, fmt.Errorf("vector store %s: %w", dir, domain.ErrNotFound)
	}
	return s, nil
}

// VectorStore is an in-memory brute-force vector store.
type VectorStore struct {
	mu      sync.RWMutex
	records []domain.IndexRecord
}

// Add appends records.
func (s *VectorStore) Add(_ context.Context, records []domain.IndexRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return nil
}

// Search scores every record by cosine similarity.
func (s *VectorStore) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ranked := vecmath.NewTopK(k)
	for i := range s.records {
		ranked.Push(i, vecmath.Cosine(query, s.records[i].Embedding))
	}

	hits := make([]driven.VectorHit, 0, ranked.Len())
	for _, r := range ranked.Sorted() {
		hits = append(hits, driven.VectorHit{Chunk: s.records[r.ID].Chunk, Similarity: r.Score})
	}
	return hits, nil
}

// Count returns the number of stored records.
func (s *VectorStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Close is a no-op; the records stay available to Open.
func (s *VectorStore) Close() error {
	return nil
}
