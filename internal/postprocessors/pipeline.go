// Package postprocessors turns documents into chunks: a normaliser extracts
// the pages and a splitter cuts them into chunks.
package postprocessors

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure Pipeline implements the interface.
var _ driven.ChunkSource = (*Pipeline)(nil)

// Splitter cuts extracted pages into ordered chunks.
type Splitter interface {
	// Name returns the splitter name for logging and configuration.
	Name() string

	// Split returns chunks with dense indexes in page order.
	Split(ctx context.Context, pages []domain.Page) ([]domain.Chunk, error)
}

// Pipeline extracts pages with a normaliser registry and chunks them with
// a splitter. The pages of the most recent document are kept so that
// FullText and Split on the same content extract it once.
type Pipeline struct {
	normalisers driven.NormaliserRegistry
	splitter    Splitter

	mu       sync.Mutex
	cachedFP domain.Fingerprint
	cached   []domain.Page
}

// NewPipeline creates a new chunk pipeline.
func NewPipeline(normalisers driven.NormaliserRegistry, splitter Splitter) *Pipeline {
	return &Pipeline{
		normalisers: normalisers,
		splitter:    splitter,
	}
}

// NewFromSettings builds the default splitter from index settings.
func NewFromSettings(normalisers driven.NormaliserRegistry, settings domain.IndexSettings) (*Pipeline, error) {
	r := NewRegistry()
	RegisterDefaults(r)

	splitter, err := r.Build("chunker", map[string]any{
		"chunk_size": settings.ChunkSize,
		"overlap":    settings.ChunkOverlap,
	})
	if err != nil {
		return nil, err
	}
	return NewPipeline(normalisers, splitter), nil
}

// Split returns the document's chunks in document order.
func (p *Pipeline) Split(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	pages, err := p.pages(ctx, doc)
	if err != nil {
		return nil, err
	}

	chunks, err := p.splitter.Split(ctx, pages)
	if err != nil {
		return nil, fmt.Errorf("splitter %s: %w", p.splitter.Name(), err)
	}
	logger.Debug("Split %s into %d chunks from %d pages", doc.Name, len(chunks), len(pages))
	return chunks, nil
}

// FullText returns all page text joined by a single newline.
func (p *Pipeline) FullText(ctx context.Context, doc *domain.Document) (string, error) {
	pages, err := p.pages(ctx, doc)
	if err != nil {
		return "", err
	}

	texts := make([]string, len(pages))
	for i, page := range pages {
		texts[i] = page.Text
	}
	return strings.Join(texts, "\n"), nil
}

func (p *Pipeline) pages(ctx context.Context, doc *domain.Document) ([]domain.Page, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}

	fp := doc.Fingerprint()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached != nil && p.cachedFP == fp {
		return p.cached, nil
	}

	pages, err := p.normalisers.Normalise(ctx, doc)
	if err != nil {
		return nil, err
	}
	p.cachedFP = fp
	p.cached = pages
	return pages, nil
}
