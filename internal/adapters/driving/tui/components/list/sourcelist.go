// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// SourceList displays the chunks an answer was grounded on.
// The selected chunk is expanded; the rest show a one-line preview.
type SourceList struct {
	chunks   []domain.Chunk
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewSourceList creates a new source list component.
func NewSourceList(s *styles.Styles) *SourceList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &SourceList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the list.
func (l *SourceList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *SourceList) Update(msg tea.Msg) (*SourceList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the list.
func (l *SourceList) View() string {
	if len(l.chunks) == 0 {
		return l.styles.Muted.Render("No sources for the last answer")
	}

	lines := make([]string, 0, len(l.chunks)+2)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Sources (%d)", len(l.chunks))), "")

	for i := range l.chunks {
		lines = append(lines, l.renderChunk(i, &l.chunks[i]))
	}
	return strings.Join(lines, "\n")
}

func (l *SourceList) renderChunk(index int, c *domain.Chunk) string {
	label := fmt.Sprintf("[%d] page %d", index+1, c.Page)
	if index != l.selected {
		return l.styles.Normal.Render("  "+label) + l.styles.Muted.Render("  "+truncate(oneLine(c.Text), l.width-len(label)-6))
	}

	body := c.Text
	if maxRunes := max(l.width, 20) * max(l.height-4, 1); len([]rune(body)) > maxRunes {
		body = truncate(body, maxRunes)
	}
	return l.styles.Selected.Render("> "+label) + "\n" + l.styles.Answer.Render(body)
}

// SetChunks replaces the listed chunks and resets the selection.
func (l *SourceList) SetChunks(chunks []domain.Chunk) {
	l.chunks = chunks
	l.selected = 0
}

// Chunks returns the listed chunks.
func (l *SourceList) Chunks() []domain.Chunk {
	return l.chunks
}

// Selected returns the index of the selected chunk.
func (l *SourceList) Selected() int {
	return l.selected
}

// SelectedChunk returns the selected chunk, or nil if the list is empty.
func (l *SourceList) SelectedChunk() *domain.Chunk {
	if l.selected < 0 || l.selected >= len(l.chunks) {
		return nil
	}
	return &l.chunks[l.selected]
}

// MoveUp moves selection up.
func (l *SourceList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *SourceList) MoveDown() {
	if l.selected < len(l.chunks)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *SourceList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// IsEmpty returns whether the list is empty.
func (l *SourceList) IsEmpty() bool {
	return len(l.chunks) == 0
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	n = max(n, 10)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
