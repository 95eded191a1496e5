package domain

import "time"

// SessionState is the index lifecycle of a document session.
type SessionState string

// Session states. Building is entered only on a cache miss or an
// incomplete prior build; Ready is terminal for the session.
const (
	SessionNoIndex  SessionState = "no_index"
	SessionBuilding SessionState = "building"
	SessionReady    SessionState = "ready"
)

// String returns the string representation.
func (s SessionState) String() string {
	return string(s)
}

// Turn is one question and its outcome.
type Turn struct {
	Query  string
	Result AnswerResult
	Err    error
	At     time.Time
}

// Session is the explicit context of one document's question-answering session.
// It is owned by the caller (CLI, TUI or MCP server) and passed into the core.
type Session struct {
	ID          string
	Document    Document
	Fingerprint Fingerprint
	State       SessionState
	FullText    string
	Transcript  []Turn
	CreatedAt   time.Time
}

// NewSession creates a session for doc in the NoIndex state.
func NewSession(id string, doc Document) *Session {
	return &Session{
		ID:        id,
		Document:  doc,
		State:     SessionNoIndex,
		CreatedAt: time.Now(),
	}
}

// Record appends a turn to the transcript.
func (s *Session) Record(query string, result AnswerResult, err error) {
	s.Transcript = append(s.Transcript, Turn{
		Query:  query,
		Result: result,
		Err:    err,
		At:     time.Now(),
	})
}
