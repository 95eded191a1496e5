// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// SessionOpened carries the result of opening the document session.
// Session is set even on failure when the service got far enough to create it.
type SessionOpened struct {
	Session *domain.Session
	Err     error
}

// AnswerReceived carries the outcome of one question.
type AnswerReceived struct {
	Query  string
	Result domain.AnswerResult
	Err    error
}

// ProgressReported carries a pipeline event to the model.
type ProgressReported struct {
	Event domain.Event
}

// ErrorOccurred signals that an error happened outside a question turn.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
