package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// Document is a single uploaded document.
// Its identity is the fingerprint of Content, never Name or Path.
type Document struct {
	// Name is the display name (usually the uploaded file name).
	Name string

	// Path is where the bytes were read from, if they came from disk.
	Path string

	// Content is the raw document bytes.
	Content []byte

	// MIMEType is the detected or declared content type.
	MIMEType string
}

// Fingerprint returns the content fingerprint of the document.
func (d *Document) Fingerprint() Fingerprint {
	return ComputeFingerprint(d.Content)
}

// Title returns a human-readable title derived from the name.
func (d *Document) Title() string {
	name := d.Name
	if name == "" {
		name = filepath.Base(d.Path)
	}
	ext := filepath.Ext(name)
	if ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ReplaceAll(name, "-", " ")
}

// Page is the extracted text of one page of a document.
type Page struct {
	// Number is the 1-based page number.
	Number int

	// Text is the page content.
	Text string
}

// Chunk is a bounded span of document text, the unit of embedding and retrieval.
// Chunks are immutable once produced by a ChunkSource.
type Chunk struct {
	// Text is the chunk content.
	Text string

	// Page is the 1-based page the chunk was taken from.
	Page int

	// Index is the 0-based position of the chunk in the document.
	Index int
}

// IndexRecord is a chunk stored in a vector index together with its embedding.
type IndexRecord struct {
	// Chunk is the embedded chunk.
	Chunk Chunk

	// Embedding is the chunk's vector representation.
	Embedding []float32

	// IndexID is the fingerprint of the index that owns the record.
	IndexID Fingerprint
}

// IndexMetadata is persisted next to an index once its build has completed.
// Only Hash gates reuse; the remaining fields are informational.
type IndexMetadata struct {
	Hash           Fingerprint `json:"hash"`
	ChunkCount     int         `json:"chunk_count,omitempty"`
	EmbeddingModel string      `json:"embedding_model,omitempty"`
	CreatedAt      time.Time   `json:"created_at,omitzero"`
}

// Matches reports whether the metadata marks a completed build of fp.
func (m IndexMetadata) Matches(fp Fingerprint) bool {
	return m.Hash != "" && m.Hash == fp
}

// IndexStatus describes what is on disk for one document's index.
type IndexStatus struct {
	// Fingerprint identifies the document.
	Fingerprint Fingerprint

	// Dir is the index directory.
	Dir string

	// Exists is true when Dir is present.
	Exists bool

	// Complete is true when Dir holds metadata matching Fingerprint.
	Complete bool

	// Metadata is the parsed completion metadata, if any.
	Metadata *IndexMetadata
}

// PageBreak separates pages in extracted text.
const PageBreak = "\f"

// PagesFromText splits text on form feeds into 1-based pages.
// A trailing form feed does not start an empty page.
func PagesFromText(text string) []Page {
	text = strings.TrimSuffix(text, PageBreak)
	parts := strings.Split(text, PageBreak)
	pages := make([]Page, len(parts))
	for i, p := range parts {
		pages[i] = Page{Number: i + 1, Text: p}
	}
	return pages
}
