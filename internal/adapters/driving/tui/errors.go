package tui

import "errors"

// ErrMissingSessionService is returned when the session service is not provided.
var ErrMissingSessionService = errors.New("tui: session service is required")

// ErrMissingDocument is returned when no document is given to chat about.
var ErrMissingDocument = errors.New("tui: document is required")
