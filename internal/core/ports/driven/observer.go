package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Observer receives progress events from the core.
// Implementations must not block; a nil Observer is never passed to services.
type Observer interface {
	OnEvent(ctx context.Context, event domain.Event)
}

// NopObserver discards all events.
type NopObserver struct{}

// OnEvent does nothing.
func (NopObserver) OnEvent(context.Context, domain.Event) {}

// Observers fans each event out to every observer in order.
type Observers []Observer

// OnEvent forwards event to each observer.
func (o Observers) OnEvent(ctx context.Context, event domain.Event) {
	for _, obs := range o {
		obs.OnEvent(ctx, event)
	}
}
