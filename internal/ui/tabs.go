package ui

import "github.com/perchapp/perch/internal/theme"

// Tab renders an inactive tab label.
func Tab(label string) string {
	return theme.TabStyle.Render(label)
}

// ActiveTab renders the focused tab label.
func ActiveTab(label string) string {
	return theme.ActiveTabStyle.Render(label)
}
