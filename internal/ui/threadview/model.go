package threadview

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/perchapp/perch/internal/keys"
	"github.com/perchapp/perch/internal/model"
	"github.com/perchapp/perch/internal/theme"
)

// SendRequestedMsg is sent when the user submits a message.
type SendRequestedMsg struct {
	ThreadID string
	Content  string
}

// ClosedMsg is sent when the user leaves the thread view.
type ClosedMsg struct{}

// Model is the single-thread view: the latest message plus a compose
// field. Full history rendering is out of scope for the activity
// client; the web app owns that surface.
type Model struct {
	keys      *keys.KeyMap
	preview   model.ThreadPreview
	input     textinput.Model
	composing bool
	width     int
	height    int
}

// New creates a new thread view model.
func New(k *keys.KeyMap, width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "write a message..."
	ti.Prompt = "> "
	ti.CharLimit = 2000
	ti.Width = width - 6

	return Model{keys: k, input: ti, width: width, height: height}
}

// SetThread focuses the view on a thread preview.
func (m *Model) SetThread(preview model.ThreadPreview) {
	m.preview = preview
	m.composing = false
	m.input.SetValue("")
	m.input.Blur()
}

// Composing reports whether the input field has focus, in which case
// keystrokes must not be treated as global shortcuts.
func (m Model) Composing() bool {
	return m.composing
}

// SetSize resizes the view.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Update handles messages for the thread view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	if m.composing {
		switch keyMsg.String() {
		case "enter":
			content := m.input.Value()
			m.composing = false
			m.input.Blur()
			m.input.SetValue("")
			if content == "" {
				return m, nil
			}
			threadID := m.preview.ThreadID
			return m, func() tea.Msg {
				return SendRequestedMsg{ThreadID: threadID, Content: content}
			}
		case "esc":
			m.composing = false
			m.input.Blur()
			return m, nil
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(keyMsg, m.keys.Compose):
		m.composing = true
		return m, m.input.Focus()
	case key.Matches(keyMsg, m.keys.Back):
		return m, func() tea.Msg { return ClosedMsg{} }
	}

	return m, nil
}

// View renders the thread panel.
func (m Model) View() string {
	name := m.preview.OtherParticipant.DisplayName
	if name == "" {
		name = m.preview.OtherParticipant.Handle
	}

	var last string
	if msg := m.preview.LastMessage; msg != nil {
		last = fmt.Sprintf("%s\n%s",
			theme.DimmedStyle.Render(msg.CreatedAt.Format("Jan 02 15:04")),
			msg.Content,
		)
	} else {
		last = theme.DimmedStyle.Render("no messages yet")
	}

	body := lipgloss.JoinVertical(
		lipgloss.Left,
		theme.HeaderStyle.Render(name),
		"",
		last,
		"",
		m.input.View(),
	)

	return theme.PanelStyle.Width(m.width - 4).Render(body)
}
