package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/perchapp/perch/internal/model"
	"github.com/perchapp/perch/internal/theme"
)

// RenderToasts draws the toast stack, oldest first so the most recent
// toast sits at the bottom, right-aligned above the status bar. Returns
// an empty string when there is nothing to show.
func RenderToasts(toasts []model.Toast, width int) string {
	if len(toasts) == 0 {
		return ""
	}

	cards := make([]string, len(toasts))
	for i, t := range toasts {
		body := lipgloss.JoinVertical(
			lipgloss.Left,
			theme.ToastTitleStyle.Render(t.Title),
			t.Detail,
		)
		cards[i] = theme.ToastStyle.Render(body)
	}

	stack := lipgloss.JoinVertical(lipgloss.Right, cards...)
	return lipgloss.PlaceHorizontal(width, lipgloss.Right, stack)
}
