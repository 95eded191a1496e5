package chat

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// mockSessionService implements driving.SessionService for chat tests.
type mockSessionService struct {
	askFunc func(ctx context.Context, session *domain.Session, query string) (domain.AnswerResult, error)
	asked   []string
}

func (m *mockSessionService) Open(_ context.Context, doc *domain.Document) (*domain.Session, error) {
	return domain.NewSession("s1", *doc), nil
}

func (m *mockSessionService) Ask(
	ctx context.Context, session *domain.Session, query string,
) (domain.AnswerResult, error) {
	m.asked = append(m.asked, query)
	if m.askFunc != nil {
		return m.askFunc(ctx, session, query)
	}
	return domain.AnswerResult{Text: "answer", Intent: domain.IntentGeneral}, nil
}

func (m *mockSessionService) Sources(context.Context, *domain.Session, string, int) ([]domain.Chunk, error) {
	return nil, nil
}

func (m *mockSessionService) Close(*domain.Session) error {
	return nil
}

func readySession() *domain.Session {
	s := domain.NewSession("s1", domain.Document{Name: "handbook.pdf"})
	s.State = domain.SessionReady
	return s
}

func newTestView(svc *mockSessionService) *View {
	v := NewView(nil, nil, svc)
	v.SetDimensions(100, 40)
	v.SetSession(readySession())
	return v
}

func pressEnter(t *testing.T, v *View) tea.Msg {
	t.Helper()
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	return cmd()
}

func TestView_NotReadyBeforeSizing(t *testing.T) {
	v := NewView(nil, nil, &mockSessionService{})
	assert.False(t, v.Ready())
	assert.Equal(t, "Initialising...", v.View())
}

func TestView_AskRoundTrip(t *testing.T) {
	svc := &mockSessionService{
		askFunc: func(context.Context, *domain.Session, string) (domain.AnswerResult, error) {
			return domain.AnswerResult{
				Text:    "Refunds take 14 days.",
				Intent:  domain.IntentSpecific,
				Sources: []domain.Chunk{{Text: "Refunds are issued within 14 days.", Page: 2}},
			}, nil
		},
	}
	v := newTestView(svc)
	v.SetQuery("  how long do refunds take?  ")

	msg := pressEnter(t, v)
	assert.True(t, v.Thinking())
	assert.Empty(t, v.Query())

	answer, ok := msg.(messages.AnswerReceived)
	require.True(t, ok)
	assert.Equal(t, "how long do refunds take?", answer.Query)
	assert.Equal(t, []string{"how long do refunds take?"}, svc.asked)

	v.Update(answer)
	assert.False(t, v.Thinking())
	assert.Equal(t, 1, v.Turns())
	assert.Len(t, v.Sources(), 1)

	view := v.View()
	assert.Contains(t, view, "> how long do refunds take?")
	assert.Contains(t, view, "Refunds take 14 days.")
	assert.Contains(t, view, "specific answer from p.2")
}

func TestView_EmptyQueryIgnored(t *testing.T) {
	svc := &mockSessionService{}
	v := newTestView(svc)
	v.SetQuery("   ")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Empty(t, svc.asked)
}

func TestView_SecondQuestionWhileThinkingIgnored(t *testing.T) {
	v := newTestView(&mockSessionService{})
	v.SetQuery("first")
	pressEnter(t, v)

	v.SetQuery("second")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, "second", v.Query())
}

func TestView_NoSessionRefusesQuestion(t *testing.T) {
	v := NewView(nil, nil, &mockSessionService{})
	v.SetDimensions(80, 24)
	v.SetQuery("anything")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.ErrorIs(t, v.Err(), domain.ErrSessionNotReady)
}

func TestView_FailedTurnKeepsSessionUsable(t *testing.T) {
	calls := 0
	svc := &mockSessionService{
		askFunc: func(context.Context, *domain.Session, string) (domain.AnswerResult, error) {
			calls++
			if calls == 1 {
				return domain.AnswerResult{}, domain.ErrGenerativeService
			}
			return domain.AnswerResult{Text: "fine", Intent: domain.IntentGeneral}, nil
		},
	}
	v := newTestView(svc)

	v.SetQuery("one")
	v.Update(pressEnter(t, v))
	assert.ErrorIs(t, v.Err(), domain.ErrGenerativeService)
	assert.Equal(t, status.StateError, v.statusbar.State())
	assert.Contains(t, v.View(), "Error: generative service error")

	v.SetQuery("two")
	v.Update(pressEnter(t, v))
	assert.NoError(t, v.Err())
	assert.Equal(t, 2, v.Turns())
	assert.Equal(t, status.StateReady, v.statusbar.State())
}

func TestView_DisclaimerRenderedSeparately(t *testing.T) {
	svc := &mockSessionService{
		askFunc: func(context.Context, *domain.Session, string) (domain.AnswerResult, error) {
			return domain.AnswerResult{
				Text:   "Paris is the capital of France. " + domain.Disclaimer,
				Intent: domain.IntentSpecific,
			}, nil
		},
	}
	v := newTestView(svc)
	v.SetQuery("capital of france?")
	v.Update(pressEnter(t, v))

	view := v.View()
	assert.Contains(t, view, "Paris is the capital of France.")
	assert.Contains(t, view, "Disclaimer:")
}

func TestView_ToggleSources(t *testing.T) {
	svc := &mockSessionService{
		askFunc: func(context.Context, *domain.Session, string) (domain.AnswerResult, error) {
			return domain.AnswerResult{
				Text:   "x",
				Intent: domain.IntentSpecific,
				Sources: []domain.Chunk{
					{Text: "first passage", Page: 1},
					{Text: "second passage", Page: 4},
				},
			}, nil
		},
	}
	v := newTestView(svc)

	// Nothing to browse yet.
	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.False(t, v.Browsing())

	v.SetQuery("q")
	v.Update(pressEnter(t, v))

	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.True(t, v.Browsing())
	assert.Contains(t, v.View(), "Sources (2)")

	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, v.sources.Selected())

	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.False(t, v.Browsing())
}

func TestView_ProgressShownInStatusBar(t *testing.T) {
	v := newTestView(&mockSessionService{})

	v.Update(messages.ProgressReported{Event: domain.Event{Stage: domain.StageRetrieve, Message: "searching 3 chunks"}})
	assert.Equal(t, "searching 3 chunks", v.statusbar.Message())
}

func TestView_ErrorOccurred(t *testing.T) {
	v := newTestView(&mockSessionService{})

	v.Update(messages.ErrorOccurred{Err: errors.New("boom")})
	assert.EqualError(t, v.Err(), "boom")
	assert.Equal(t, status.StateError, v.statusbar.State())
}

func TestView_EscClearsInput(t *testing.T) {
	v := newTestView(&mockSessionService{})
	v.SetQuery("draft")

	v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, v.Query())
}
