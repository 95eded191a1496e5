// Package tui provides an interactive chat over one document.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the TUI.
type Ports struct {
	// Session opens the document and answers questions.
	Session driving.SessionService
}

// NewPorts creates a new Ports aggregate.
func NewPorts(session driving.SessionService) *Ports {
	return &Ports{Session: session}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Session == nil {
		return ErrMissingSessionService
	}
	return nil
}
