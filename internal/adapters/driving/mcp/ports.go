package mcp

import (
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ports aggregates what the MCP server needs: the session service and the
// session it serves.
type Ports struct {
	// Sessions answers questions and retrieves chunks.
	Sessions driving.SessionService

	// Session is the opened document session.
	Session *domain.Session

	// SearchK is the default number of chunks returned by the sources tool.
	SearchK int
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Sessions == nil {
		return ErrMissingSessionService
	}
	if p.Session == nil || p.Session.State != domain.SessionReady {
		return ErrMissingSession
	}
	return nil
}
