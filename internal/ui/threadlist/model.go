package threadlist

import (
	"sort"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/perchapp/perch/internal/keys"
	"github.com/perchapp/perch/internal/model"
	"github.com/perchapp/perch/internal/theme"
)

// ThreadOpenedMsg is sent when the user opens a thread, which marks it
// read up to its last message.
type ThreadOpenedMsg struct {
	ThreadID string
}

// Model is the direct-message thread list view.
type Model struct {
	list   list.Model
	keys   *keys.KeyMap
	width  int
	height int
}

// New creates a new thread list model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, itemDelegate{}, width, height)
	l.Title = "Messages"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		keys:   k,
		width:  width,
		height: height,
	}
}

// SetData replaces the displayed previews, flagging unread threads from
// the latest badge. Unread threads sort first, then by recency.
func (m *Model) SetData(previews []model.ThreadPreview, unread map[string]bool) {
	sorted := make([]model.ThreadPreview, len(previews))
	copy(sorted, previews)
	sort.SliceStable(sorted, func(i, j int) bool {
		ui, uj := unread[sorted[i].ThreadID], unread[sorted[j].ThreadID]
		if ui != uj {
			return ui
		}
		var ti, tj int64
		if sorted[i].LastMessage != nil {
			ti = sorted[i].LastMessage.CreatedAt.UnixNano()
		}
		if sorted[j].LastMessage != nil {
			tj = sorted[j].LastMessage.CreatedAt.UnixNano()
		}
		return ti > tj
	})

	items := make([]list.Item, len(sorted))
	for i, p := range sorted {
		items[i] = ThreadItem{Preview: p, Unread: unread[p.ThreadID]}
	}
	m.list.SetItems(items)
}

// SetSize resizes the embedded list.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}

// Selected returns the currently highlighted preview, if any.
func (m Model) Selected() (model.ThreadPreview, bool) {
	item, ok := m.list.SelectedItem().(ThreadItem)
	if !ok {
		return model.ThreadPreview{}, false
	}
	return item.Preview, true
}

// Update handles messages for the thread list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(keyMsg, m.keys.Select) {
			if preview, ok := m.Selected(); ok {
				threadID := preview.ThreadID
				return m, func() tea.Msg {
					return ThreadOpenedMsg{ThreadID: threadID}
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the thread list.
func (m Model) View() string {
	return m.list.View()
}
