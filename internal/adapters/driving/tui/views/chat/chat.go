// Package chat provides the question-and-answer view for the TUI.
package chat

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// turn is one rendered exchange. The view keeps its own copy because the
// session transcript is written from the command goroutine.
type turn struct {
	query  string
	result domain.AnswerResult
	err    error
}

// View is the chat view: transcript, question input, sources and status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QuestionInput
	sources   *list.SourceList
	statusbar *status.Bar

	service driving.SessionService
	session *domain.Session
	ctx     context.Context

	turns    []turn
	thinking bool
	browsing bool
	showHelp bool

	width  int
	height int
	ready  bool
	err    error
}

// NewView creates a new chat view.
func NewView(s *styles.Styles, km *keymap.KeyMap, service driving.SessionService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:    s,
		keymap:    km,
		input:     input.NewQuestionInput(s),
		sources:   list.NewSourceList(s),
		statusbar: status.NewBar(s, km),
		service:   service,
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
}

// WithContext sets the context used for questions.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetSession attaches the opened session. Questions are refused until set.
func (v *View) SetSession(session *domain.Session) {
	v.session = session
	if session != nil {
		v.statusbar.SetDocument(session.Document.Name)
	}
}

// Session returns the attached session.
func (v *View) Session() *domain.Session {
	return v.session
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case messages.ProgressReported:
		v.statusbar.SetMessage(msg.Event.Message)
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()

	switch {
	case keymap.Matches(key, v.keymap.Help):
		v.showHelp = !v.showHelp
		return v, nil

	case keymap.Matches(key, v.keymap.Sources):
		v.toggleSources()
		return v, nil
	}

	if v.browsing {
		v.sources, _ = v.sources.Update(msg)
		return v, nil
	}

	switch {
	case keymap.Matches(key, v.keymap.Ask):
		return v, v.submit()

	case keymap.Matches(key, v.keymap.Clear):
		v.input.Reset()
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) toggleSources() {
	if v.browsing {
		v.browsing = false
		v.input.Focus()
		v.statusbar.SetState(v.idleState())
		return
	}
	if v.sources.IsEmpty() {
		return
	}
	v.browsing = true
	v.input.Blur()
	v.statusbar.SetState(status.StateSources)
}

// submit starts a question turn. Only one turn runs at a time.
func (v *View) submit() tea.Cmd {
	query := strings.TrimSpace(v.input.Value())
	if query == "" || v.thinking {
		return nil
	}
	if v.session == nil {
		v.err = domain.ErrSessionNotReady
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(v.err.Error())
		return nil
	}

	v.thinking = true
	v.err = nil
	v.input.Reset()
	v.statusbar.SetState(status.StateThinking)
	v.statusbar.SetMessage("")

	service, session, ctx := v.service, v.session, v.ctx
	return func() tea.Msg {
		result, err := service.Ask(ctx, session, query)
		return messages.AnswerReceived{Query: query, Result: result, Err: err}
	}
}

func (v *View) handleAnswer(msg messages.AnswerReceived) {
	v.thinking = false
	v.turns = append(v.turns, turn{query: msg.Query, result: msg.Result, err: msg.Err})
	v.statusbar.SetTurns(len(v.turns))
	v.statusbar.SetMessage("")

	if msg.Err != nil {
		// A failed turn leaves the session usable.
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return
	}

	v.err = nil
	v.sources.SetChunks(msg.Result.Sources)
	v.statusbar.SetState(status.StateReady)
}

func (v *View) idleState() status.State {
	if v.err != nil {
		return status.StateError
	}
	return status.StateReady
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	title := "docqa"
	if v.session != nil {
		title += " - " + v.session.Document.Name
	}

	sections := make([]string, 0, 8)
	sections = append(sections, v.styles.Title.Render(title), "")

	if v.browsing {
		sections = append(sections, v.sources.View())
	} else {
		sections = append(sections, v.renderTranscript())
	}

	sections = append(sections, "", v.input.View())
	if v.showHelp {
		sections = append(sections, v.renderHelp())
	}
	sections = append(sections, "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderTranscript renders the most recent turns that fit the height.
func (v *View) renderTranscript() string {
	if len(v.turns) == 0 {
		return v.styles.Muted.Render("Ask anything about the document. General questions get a summary; " +
			"specific ones are answered from the most relevant passages.")
	}

	blocks := make([]string, 0, len(v.turns))
	for i := range v.turns {
		blocks = append(blocks, v.renderTurn(&v.turns[i]))
	}

	out := strings.Join(blocks, "\n\n")
	lines := strings.Split(out, "\n")
	if budget := max(v.height-8, 4); len(lines) > budget {
		lines = lines[len(lines)-budget:]
	}
	return strings.Join(lines, "\n")
}

func (v *View) renderTurn(t *turn) string {
	var b strings.Builder
	b.WriteString(v.styles.Question.Render("> " + t.query))
	b.WriteString("\n")

	if t.err != nil {
		b.WriteString(v.styles.Error.Render("  Error: " + t.err.Error()))
		return b.String()
	}

	text := strings.TrimSpace(strings.Replace(t.result.Text, domain.Disclaimer, "", 1))
	b.WriteString(v.styles.Answer.Width(max(v.width-2, 20)).Render(text))

	if t.result.UsedFallbackKnowledge() {
		b.WriteString("\n")
		b.WriteString(v.styles.Warning.Render("  " + domain.Disclaimer))
	}
	if n := len(t.result.Sources); n > 0 {
		pages := make([]string, 0, n)
		for _, c := range t.result.Sources {
			pages = append(pages, fmt.Sprintf("p.%d", c.Page))
		}
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  %s answer from %s", t.result.Intent, strings.Join(pages, ", "))))
	}
	return b.String()
}

func (v *View) renderHelp() string {
	groups := v.keymap.FullHelp()
	parts := make([]string, 0, len(groups))
	for _, group := range groups {
		hints := make([]string, 0, len(group))
		for _, b := range group {
			hints = append(hints, b.Help().Key+" "+b.Help().Desc)
		}
		parts = append(parts, strings.Join(hints, ", "))
	}
	return v.styles.Help.Render(strings.Join(parts, "  |  "))
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.sources.SetDimensions(width, height-8) // header, input and status
	v.statusbar.SetWidth(width)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Thinking reports whether a question is in flight.
func (v *View) Thinking() bool {
	return v.thinking
}

// Browsing reports whether focus is on the source list.
func (v *View) Browsing() bool {
	return v.browsing
}

// Turns returns the number of rendered turns.
func (v *View) Turns() int {
	return len(v.turns)
}

// Query returns the text currently typed.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery sets the typed text.
func (v *View) SetQuery(query string) {
	v.input.SetValue(query)
}

// Sources returns the sources of the last successful answer.
func (v *View) Sources() []domain.Chunk {
	return v.sources.Chunks()
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}
