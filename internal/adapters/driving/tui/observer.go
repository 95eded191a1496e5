package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// DefaultEventBuffer is the number of events held while the UI is busy.
const DefaultEventBuffer = 64

// Ensure EventObserver implements the interface.
var _ driven.Observer = (*EventObserver)(nil)

// EventObserver forwards pipeline events to the TUI.
// Events are dropped when the buffer is full.
type EventObserver struct {
	events chan domain.Event
}

// NewEventObserver creates an observer with the given buffer size.
func NewEventObserver(buffer int) *EventObserver {
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	return &EventObserver{events: make(chan domain.Event, buffer)}
}

// OnEvent queues the event without blocking.
func (o *EventObserver) OnEvent(_ context.Context, event domain.Event) {
	select {
	case o.events <- event:
	default:
	}
}

// wait returns a command that delivers the next event.
func (o *EventObserver) wait() tea.Cmd {
	return func() tea.Msg {
		return messages.ProgressReported{Event: <-o.events}
	}
}
