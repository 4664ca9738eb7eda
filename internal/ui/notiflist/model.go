package notiflist

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/perchapp/perch/internal/keys"
	"github.com/perchapp/perch/internal/model"
	"github.com/perchapp/perch/internal/theme"
)

// MarkAllReadMsg is sent when the user marks every notification read.
type MarkAllReadMsg struct{}

// DeleteRequestedMsg is sent when the user deletes a notification.
type DeleteRequestedMsg struct {
	ID string
}

// notifItem wraps a notification so it can be used in a bubbles/list.
type notifItem struct {
	n model.NotificationEvent
}

// FilterValue returns the string used for fuzzy filtering.
func (i notifItem) FilterValue() string { return i.n.ActorName }

// itemDelegate implements list.ItemDelegate for notification rows.
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd   { return nil }

// Render draws a single notification row.
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ni, ok := item.(notifItem)
	if !ok {
		return
	}

	marker := " "
	if ni.n.Unread() {
		marker = theme.UnreadMarkerStyle.Render("●")
	}

	actor := ni.n.ActorName
	if actor == "" {
		actor = "Someone"
	}

	line := fmt.Sprintf(
		"%s %s %s  %s",
		marker, actor, kindText(ni.n.Kind),
		theme.DimmedStyle.Render(relativeTime(ni.n.CreatedAt)),
	)

	if !ni.n.Unread() {
		line = theme.DimmedStyle.Render(line)
	}
	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// kindText is the list-row phrasing for each notification kind.
func kindText(kind model.NotificationKind) string {
	switch kind {
	case model.KindPostAlign:
		return "aligned with your post"
	case model.KindPostComment:
		return "commented on your post"
	case model.KindCommentAlign:
		return "aligned with your comment"
	case model.KindSyncApproved:
		return "approved your sync request"
	default:
		return "new activity"
	}
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// Model is the notification list view.
type Model struct {
	list   list.Model
	keys   *keys.KeyMap
	width  int
	height int
}

// New creates a new notification list model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, itemDelegate{}, width, height)
	l.Title = "Notifications"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{list: l, keys: k, width: width, height: height}
}

// SetData replaces the displayed notifications, newest first with
// unread entries on top.
func (m *Model) SetData(notifications []model.NotificationEvent) {
	sorted := make([]model.NotificationEvent, len(notifications))
	copy(sorted, notifications)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Unread() != sorted[j].Unread() {
			return sorted[i].Unread()
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	items := make([]list.Item, len(sorted))
	for i, n := range sorted {
		items[i] = notifItem{n: n}
	}
	m.list.SetItems(items)
}

// SetSize resizes the embedded list.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}

// Update handles messages for the notification list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.MarkAllRead):
			return m, func() tea.Msg { return MarkAllReadMsg{} }

		case key.Matches(keyMsg, m.keys.Delete):
			if item, ok := m.list.SelectedItem().(notifItem); ok {
				id := item.n.ID
				return m, func() tea.Msg {
					return DeleteRequestedMsg{ID: id}
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the notification list.
func (m Model) View() string {
	return m.list.View()
}
