// Package domain defines the core business entities for docqa.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: The uploaded bytes plus a display name
//   - Fingerprint: The content hash that identifies a document's index
//   - Chunk: A span of document text with page provenance
//   - IndexRecord: A chunk together with its embedding
//   - AnswerResult: Generated answer text and the chunks it used
//   - Session: One document's question-answering session
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
