package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// IntentClassifier labels a query as general or specific.
type IntentClassifier interface {
	// Classify makes one model call. Unrecognised output resolves to
	// domain.IntentSpecific.
	Classify(ctx context.Context, query string) (domain.Intent, error)
}

// AnswerComposer builds the intent-specific prompt and generates the answer.
type AnswerComposer interface {
	// Compose answers query along the path selected by intent. The general
	// path uses fullText and never touches index; the specific path
	// retrieves from index and never reads fullText.
	Compose(
		ctx context.Context,
		query string,
		intent domain.Intent,
		fullText string,
		index SearchableIndex,
	) (domain.AnswerResult, error)
}

// AnswerService answers one query end to end.
type AnswerService interface {
	// Answer classifies then composes. Each query is independent.
	Answer(ctx context.Context, query string, index SearchableIndex, fullText string) (domain.AnswerResult, error)
}

// SessionService manages document sessions for interactive callers.
type SessionService interface {
	// Open fingerprints doc, extracts its full text and loads or builds its
	// index, moving the session from NoIndex through Building to Ready.
	Open(ctx context.Context, doc *domain.Document) (*domain.Session, error)

	// Ask answers query against a ready session and records the turn,
	// including failed turns.
	Ask(ctx context.Context, session *domain.Session, query string) (domain.AnswerResult, error)

	// Sources returns the top-k chunks for query without generating an answer.
	Sources(ctx context.Context, session *domain.Session, query string, k int) ([]domain.Chunk, error)

	// Close releases the session's index handle.
	Close(session *domain.Session) error
}
