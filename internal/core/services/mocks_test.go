package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

var errServiceDown = errors.New("service unavailable")

// mockChunkSource implements driven.ChunkSource for testing.
type mockChunkSource struct {
	chunks   []domain.Chunk
	fullText string
	splitErr error
	textErr  error
	splits   int
}

func newMockChunkSource(n int) *mockChunkSource {
	chunks := make([]domain.Chunk, n)
	for i := range chunks {
		chunks[i] = domain.Chunk{Text: fmt.Sprintf("chunk %d", i), Page: i/10 + 1, Index: i}
	}
	return &mockChunkSource{chunks: chunks, fullText: "full document text"}
}

func (m *mockChunkSource) Split(_ context.Context, _ *domain.Document) ([]domain.Chunk, error) {
	m.splits++
	if m.splitErr != nil {
		return nil, m.splitErr
	}
	return m.chunks, nil
}

func (m *mockChunkSource) FullText(_ context.Context, _ *domain.Document) (string, error) {
	if m.textErr != nil {
		return "", m.textErr
	}
	return m.fullText, nil
}

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Vectors are looked up by text; unknown texts map to a constant vector.
type mockEmbeddingService struct {
	mu         sync.Mutex
	vectors    map[string][]float32
	batchSizes []int
	embeds     int
	embedErr   error
	ok         int

	// failBatches fails this many EmbedBatch calls before succeeding.
	failBatches int
	// failAtBatch fails every call for the batch with this 1-based number.
	failAtBatch int
	// batchErr, when set, is returned by every EmbedBatch call.
	batchErr error
}

func (m *mockEmbeddingService) vector(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return v
	}
	return []float32{1, 0, 0}
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embeds++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchSizes = append(m.batchSizes, len(texts))
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	if m.failBatches > 0 {
		m.failBatches--
		return nil, errServiceDown
	}
	if m.failAtBatch > 0 && m.successfulBatches() == m.failAtBatch-1 {
		return nil, errServiceDown
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	m.ok++
	return out, nil
}

func (m *mockEmbeddingService) successfulBatches() int {
	return m.ok
}

func (m *mockEmbeddingService) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batchSizes)
}

func (m *mockEmbeddingService) Dimensions() int   { return 3 }
func (m *mockEmbeddingService) ModelName() string { return "mock-embed" }
func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return nil
}
func (m *mockEmbeddingService) Close() error { return nil }

// mockLLMService implements driven.LLMService for testing.
// Responses are returned in order; the last one repeats.
type mockLLMService struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	prompts   []string
	opts      []driven.GenerateOptions
}

func (m *mockLLMService) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.prompts)
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	if n < len(m.errs) && m.errs[n] != nil {
		return "", m.errs[n]
	}
	if len(m.responses) == 0 {
		return "", nil
	}
	if n >= len(m.responses) {
		return m.responses[len(m.responses)-1], nil
	}
	return m.responses[n], nil
}

func (m *mockLLMService) ModelName() string { return "mock-llm" }
func (m *mockLLMService) Ping(_ context.Context) error {
	return nil
}
func (m *mockLLMService) Close() error { return nil }

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
	err     error
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.prompts[name], nil
}

func (m *mockPromptStore) Reload() {}

// recordingObserver implements driven.Observer for testing.
type recordingObserver struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recordingObserver) OnEvent(_ context.Context, e domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingObserver) count(stage domain.Stage) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Stage == stage {
			n++
		}
	}
	return n
}

// stubIndex implements driving.SearchableIndex for testing.
type stubIndex struct {
	chunks    []domain.Chunk
	err       error
	searches  int
	requested int
}

func (s *stubIndex) Fingerprint() domain.Fingerprint { return "stub" }
func (s *stubIndex) Len() int                        { return len(s.chunks) }
func (s *stubIndex) Close() error                    { return nil }

func (s *stubIndex) Search(_ context.Context, _ string, k int) ([]domain.Chunk, error) {
	s.searches++
	s.requested = k
	if s.err != nil {
		return nil, s.err
	}
	return s.chunks[:min(k, len(s.chunks))], nil
}

var _ driving.SearchableIndex = (*stubIndex)(nil)
