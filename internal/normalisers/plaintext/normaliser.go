// Package plaintext provides the fallback Normaliser for text documents.
package plaintext

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/markdown",
		"text/x-markdown",
		"text/csv",
		"text/yaml",
		"text/toml",
		"text/x-rst",
		"application/json",
		"application/xml",
		"text/xml",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise returns the text as is. Form feeds, if present, separate pages.
// A UTF-8 byte order mark is dropped and carriage returns are normalised.
func (n *Normaliser) Normalise(_ context.Context, doc *domain.Document) ([]domain.Page, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}
	if !utf8.Valid(doc.Content) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8 text", domain.ErrUnsupportedType, doc.Name)
	}

	text := strings.TrimPrefix(string(doc.Content), "\uFEFF")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return domain.PagesFromText(text), nil
}
