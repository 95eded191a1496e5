package mcp

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// mockSessionService is a mock implementation of driving.SessionService.
// Ask records the turn on the session like the real service.
type mockSessionService struct {
	result domain.AnswerResult
	chunks []domain.Chunk
	err    error

	lastK int
}

func (m *mockSessionService) Open(_ context.Context, doc *domain.Document) (*domain.Session, error) {
	return domain.NewSession("s1", *doc), nil
}

func (m *mockSessionService) Ask(
	_ context.Context, session *domain.Session, query string,
) (domain.AnswerResult, error) {
	session.Record(query, m.result, m.err)
	return m.result, m.err
}

func (m *mockSessionService) Sources(
	_ context.Context, _ *domain.Session, _ string, k int,
) ([]domain.Chunk, error) {
	m.lastK = k
	if m.err != nil {
		return nil, m.err
	}
	return m.chunks, nil
}

func (m *mockSessionService) Close(*domain.Session) error {
	return nil
}

func readySession() *domain.Session {
	s := domain.NewSession("s1", domain.Document{Name: "handbook.pdf", Content: []byte("abc")})
	s.Fingerprint = domain.ComputeFingerprint([]byte("abc"))
	s.FullText = "Refunds are issued within 14 days."
	s.State = domain.SessionReady
	return s
}

func newTestServer(svc *mockSessionService) (*Server, error) {
	return NewServer(&Ports{Sessions: svc, Session: readySession()})
}
