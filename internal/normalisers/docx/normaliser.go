// Package docx provides a Normaliser for Word (OOXML) documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

const bodyPart = "word/document.xml"

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser
}

// Normalise extracts paragraph text. Explicit page breaks start a new page;
// a document without them is a single page.
func (n *Normaliser) Normalise(_ context.Context, doc *domain.Document) ([]domain.Page, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := zip.NewReader(bytes.NewReader(doc.Content), int64(len(doc.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a docx archive", domain.ErrSourceRead, doc.Name)
	}

	f, err := reader.Open(bodyPart)
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no %s", domain.ErrSourceRead, doc.Name, bodyPart)
	}
	defer f.Close()

	text, err := extractText(f)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", domain.ErrSourceRead, bodyPart, err)
	}
	return domain.PagesFromText(text), nil
}

// extractText streams document.xml, writing a newline between paragraphs,
// a tab for w:tab and a form feed for page breaks.
func extractText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var sb strings.Builder
	inText := false
	paragraphs := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				if paragraphs > 0 && !strings.HasSuffix(sb.String(), domain.PageBreak) {
					sb.WriteByte('\n')
				}
				paragraphs++
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br":
				if isPageBreak(t) {
					sb.WriteString(domain.PageBreak)
				} else {
					sb.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
}

func isPageBreak(el xml.StartElement) bool {
	for _, a := range el.Attr {
		if a.Name.Local == "type" && a.Value == "page" {
			return true
		}
	}
	return false
}
