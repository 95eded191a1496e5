package logger

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Observer writes pipeline events to the verbose log.
type Observer struct{}

// NewObserver creates an observer that logs every event.
func NewObserver() *Observer {
	return &Observer{}
}

// OnEvent logs the event with its stage as a structured field.
func (o *Observer) OnEvent(_ context.Context, event domain.Event) {
	Infow(event.Message, "stage", event.Stage.String())
}
