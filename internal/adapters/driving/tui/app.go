package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// App is the chat application following the Elm architecture.
// It opens the document session on start and hands questions to the chat view.
type App struct {
	ports    *Ports
	ctx      context.Context
	keymap   *keymap.KeyMap
	doc      *domain.Document
	observer *EventObserver

	chatView *chat.View
	session  *domain.Session

	// opening is true until the session has been opened or has failed.
	opening bool

	err    error
	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a chat app for doc. Pass the observer the session service
// was built with to see indexing progress; nil disables progress.
func NewApp(ports *Ports, doc *domain.Document, observer *EventObserver) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("creating app: %w", ErrMissingDocument)
	}

	km := keymap.DefaultKeyMap()
	return &App{
		ports:    ports,
		ctx:      context.Background(),
		keymap:   km,
		doc:      doc,
		observer: observer,
		chatView: chat.NewView(styles.DefaultStyles(), km, ports.Session),
		opening:  true,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.SetWindowTitle("docqa - " + a.doc.Name),
		a.chatView.Init(),
		a.openSession(),
	}
	if a.observer != nil {
		cmds = append(cmds, a.observer.wait())
	}
	return tea.Batch(cmds...)
}

func (a *App) openSession() tea.Cmd {
	service, ctx, doc := a.ports.Session, a.ctx, a.doc
	return func() tea.Msg {
		session, err := service.Open(ctx, doc)
		return messages.SessionOpened{Session: session, Err: err}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if keymap.Matches(msg.String(), a.keymap.Quit) {
			return a, tea.Quit
		}

	case messages.Quit:
		return a, tea.Quit

	case messages.SessionOpened:
		a.opening = false
		if msg.Err != nil {
			a.err = msg.Err
			a.chatView, cmd = a.chatView.Update(messages.ErrorOccurred{Err: fmt.Errorf("open %s: %w", a.doc.Name, msg.Err)})
			return a, cmd
		}
		a.session = msg.Session
		a.chatView.SetSession(msg.Session)
		return a, nil

	case messages.ProgressReported:
		a.chatView, _ = a.chatView.Update(msg)
		if a.observer == nil {
			return a, nil
		}
		return a, a.observer.wait()
	}

	a.chatView, cmd = a.chatView.Update(msg)
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	return a.chatView.View()
}

// Close releases the session's index handle.
func (a *App) Close() error {
	if a.session == nil {
		return nil
	}
	return a.ports.Session.Close(a.session)
}

// Run starts the TUI application and closes the session on exit.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	if cerr := a.Close(); err == nil {
		err = cerr
	}
	return err
}

// Session returns the opened session, or nil while opening or after failure.
func (a *App) Session() *domain.Session {
	return a.session
}

// Opening reports whether the session is still being opened.
func (a *App) Opening() bool {
	return a.opening
}

// Err returns the session open error, if any.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been sized.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.chatView.SetDimensions(width, height)
}
