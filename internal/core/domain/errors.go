package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates no chunk source handles the document type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrConfiguration indicates the process cannot start with its settings,
	// for example a missing API key. It is raised before any document is read.
	ErrConfiguration = errors.New("configuration error")

	// ErrSourceRead indicates the document bytes could not be read.
	// The caller must ask for the document again.
	ErrSourceRead = errors.New("source read error")

	// ErrEmptyDocument indicates the document produced no text.
	ErrEmptyDocument = errors.New("document has no extractable text")

	// ErrEmbeddingService indicates an embedding call failed.
	// A build that hits it is aborted and left incomplete.
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrGenerativeService indicates a classification or answer call failed.
	ErrGenerativeService = errors.New("generative service error")

	// ErrIndexIncomplete indicates an index directory exists without valid
	// completion metadata.
	ErrIndexIncomplete = errors.New("index incomplete")

	// ErrIndexClosed indicates a search on a closed index.
	ErrIndexClosed = errors.New("index closed")

	// ErrSessionNotReady indicates a query against a session whose index is not built.
	ErrSessionNotReady = errors.New("session not ready")

	// ErrPDFToolNotFound indicates pdftotext is not installed.
	ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")
)
