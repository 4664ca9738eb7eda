package threadlist

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/perchapp/perch/internal/model"
	"github.com/perchapp/perch/internal/theme"
)

// ThreadItem wraps a thread preview so it can be used in a bubbles/list.
type ThreadItem struct {
	Preview model.ThreadPreview
	Unread  bool
}

// FilterValue returns the string used for fuzzy filtering.
func (i ThreadItem) FilterValue() string {
	return i.Preview.OtherParticipant.DisplayName
}

// itemDelegate implements list.ItemDelegate for thread rows.
type itemDelegate struct{}

// Height returns the number of lines each item takes.
func (d itemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d itemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single thread row: unread dot, participant, last
// message snippet, relative time.
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(ThreadItem)
	if !ok {
		return
	}

	marker := " "
	if ti.Unread {
		marker = theme.UnreadMarkerStyle.Render("●")
	}

	name := ti.Preview.OtherParticipant.DisplayName
	if name == "" {
		name = ti.Preview.OtherParticipant.Handle
	}
	if name == "" {
		name = ti.Preview.ThreadID
	}

	snippet := theme.DimmedStyle.Render("no messages yet")
	timeStr := ""
	if !ti.Preview.Known {
		snippet = theme.DimmedStyle.Render("preview unavailable")
	} else if msg := ti.Preview.LastMessage; msg != nil {
		snippet = truncate(msg.Content, 48)
		timeStr = theme.DimmedStyle.Render(relativeTime(msg.CreatedAt))
	}

	line := fmt.Sprintf("%s %s  %s  %s", marker, name, snippet, timeStr)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// truncate shortens s to at most n runes with an ellipsis.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
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
