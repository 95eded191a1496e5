package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure SessionService implements the interface.
var _ driving.SessionService = (*SessionService)(nil)

// SessionService drives a document session from upload to answered questions.
// It keeps the open index handle for each session it has opened.
type SessionService struct {
	indexes driving.IndexService
	chunks  driven.ChunkSource
	answers driving.AnswerService

	mu      sync.Mutex
	handles map[string]driving.SearchableIndex
}

// NewSessionService creates a new session service.
func NewSessionService(
	indexes driving.IndexService, chunks driven.ChunkSource, answers driving.AnswerService,
) *SessionService {
	return &SessionService{
		indexes: indexes,
		chunks:  chunks,
		answers: answers,
		handles: make(map[string]driving.SearchableIndex),
	}
}

// Open extracts the document text and loads or builds its index.
// The returned session is Ready; on failure it is returned in the state it
// reached together with the error.
func (s *SessionService) Open(ctx context.Context, doc *domain.Document) (*domain.Session, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}

	session := domain.NewSession(uuid.NewString(), *doc)
	session.Fingerprint = doc.Fingerprint()
	logger.Debug("Session %s for %s (%s)", session.ID, doc.Name, session.Fingerprint)

	fullText, err := s.chunks.FullText(ctx, doc)
	if err != nil {
		return session, fmt.Errorf("extract text: %w", err)
	}
	if strings.TrimSpace(fullText) == "" {
		return session, fmt.Errorf("%s: %w", doc.Name, domain.ErrEmptyDocument)
	}
	session.FullText = fullText

	session.State = domain.SessionBuilding
	idx, err := s.indexes.LoadOrCreate(ctx, doc)
	if err != nil {
		session.State = domain.SessionNoIndex
		return session, err
	}

	s.mu.Lock()
	s.handles[session.ID] = idx
	s.mu.Unlock()

	session.State = domain.SessionReady
	return session, nil
}

// Ask answers one question and records the turn, including failed turns.
func (s *SessionService) Ask(ctx context.Context, session *domain.Session, query string) (domain.AnswerResult, error) {
	idx, err := s.handle(session)
	if err != nil {
		return domain.AnswerResult{}, err
	}

	result, err := s.answers.Answer(ctx, query, idx, session.FullText)
	session.Record(query, result, err)
	return result, err
}

// Sources returns the top-k chunks for query.
func (s *SessionService) Sources(
	ctx context.Context, session *domain.Session, query string, k int,
) ([]domain.Chunk, error) {
	idx, err := s.handle(session)
	if err != nil {
		return nil, err
	}
	return idx.Search(ctx, query, k)
}

// Close releases the session's index handle. Closing twice is a no-op.
func (s *SessionService) Close(session *domain.Session) error {
	if session == nil {
		return nil
	}

	s.mu.Lock()
	idx, ok := s.handles[session.ID]
	delete(s.handles, session.ID)
	s.mu.Unlock()

	if !ok {
		return nil
	}
	return idx.Close()
}

func (s *SessionService) handle(session *domain.Session) (driving.SearchableIndex, error) {
	if session == nil || session.State != domain.SessionReady {
		return nil, domain.ErrSessionNotReady
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.handles[session.ID]
	if !ok {
		return nil, domain.ErrSessionNotReady
	}
	return idx, nil
}
