package app

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/perchapp/perch/internal/engine"
	"github.com/perchapp/perch/internal/keys"
	"github.com/perchapp/perch/internal/model"
	"github.com/perchapp/perch/internal/ui"
	"github.com/perchapp/perch/internal/ui/notiflist"
	"github.com/perchapp/perch/internal/ui/threadlist"
	"github.com/perchapp/perch/internal/ui/threadview"
)

// engineUpdateMsg carries one engine update into the Bubble Tea loop.
type engineUpdateMsg struct {
	update engine.Update
	ok     bool
}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewThreads ViewState = iota
	ViewNotifications
	ViewThread
	ViewHelp
)

// Model is the root Bubble Tea model: it routes keys to the active
// view, subscribes to engine updates, and renders the shared frame
// (header badge, tab bar badge, toast overlay, status bar).
type Model struct {
	eng    *engine.Engine
	keys   *keys.KeyMap
	layout ui.Layout
	log    zerolog.Logger

	currentView  ViewState
	previousView ViewState

	threadList threadlist.Model
	notifList  notiflist.Model
	threadView threadview.Model

	badge     model.Badge
	toasts    []model.Toast
	handle    string
	syncCount int
	ready     bool
}

// New creates the root application model bound to a running engine.
func New(eng *engine.Engine, log zerolog.Logger) Model {
	k := keys.DefaultKeyMap()

	return Model{
		eng:         eng,
		keys:        k,
		log:         log.With().Str("component", "app").Logger(),
		currentView: ViewThreads,
		threadList:  threadlist.New(k, 80, 24),
		notifList:   notiflist.New(k, 80, 24),
		threadView:  threadview.New(k, 80, 24),
	}
}

// Init subscribes to engine updates.
func (m Model) Init() tea.Cmd {
	return m.waitForUpdate()
}

// waitForUpdate blocks on the engine's update channel and feeds the
// next update into the Tea loop. It re-arms itself after every message.
func (m Model) waitForUpdate() tea.Cmd {
	ch := m.eng.Updates()
	return func() tea.Msg {
		update, ok := <-ch
		return engineUpdateMsg{update: update, ok: ok}
	}
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.threadList.SetSize(w, h)
		m.notifList.SetSize(w, h)
		m.threadView.SetSize(w, h)
		return m, nil

	case engineUpdateMsg:
		if !msg.ok {
			// Engine torn down; nothing more will arrive.
			return m, nil
		}
		m.badge = msg.update.Badge
		m.toasts = msg.update.Toasts
		m.handle = msg.update.Session.Account.Handle
		m.syncCount = len(msg.update.Syncs)
		m.threadList.SetData(
			msg.update.Snapshot.ThreadPreviews,
			msg.update.Badge.UnreadThreadIDs,
		)
		m.notifList.SetData(msg.update.Snapshot.Notifications)
		return m, m.waitForUpdate()

	case threadlist.ThreadOpenedMsg:
		if preview, ok := m.threadList.Selected(); ok && preview.ThreadID == msg.ThreadID {
			m.threadView.SetThread(preview)
		}
		m.previousView = m.currentView
		m.currentView = ViewThread
		return m, m.openThread(msg.ThreadID)

	case threadview.ClosedMsg:
		m.currentView = ViewThreads
		return m, nil

	case threadview.SendRequestedMsg:
		return m, m.sendMessage(msg.ThreadID, msg.Content)

	case notiflist.MarkAllReadMsg:
		return m, m.markAllRead()

	case notiflist.DeleteRequestedMsg:
		return m, m.deleteNotification(msg.ID)

	case tea.KeyMsg:
		if handled, next, cmd := m.handleGlobalKey(msg); handled {
			return next, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that apply regardless of the active
// view. Returns false when the key should fall through to the view.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	// While composing a message, every key belongs to the input field.
	if m.currentView == ViewThread && m.threadView.Composing() {
		switch msg.String() {
		case "ctrl+c":
			return true, m, tea.Quit
		default:
			return false, m, nil
		}
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return true, m, tea.Quit

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
		} else {
			m.previousView = m.currentView
			m.currentView = ViewHelp
		}
		return true, m, nil

	case "tab":
		switch m.currentView {
		case ViewThreads:
			m.currentView = ViewNotifications
		case ViewNotifications:
			m.currentView = ViewThreads
		}
		return true, m, nil

	case "r":
		m.eng.Refresh()
		return true, m, nil

	case "d":
		if len(m.toasts) > 0 {
			// Dismiss the most recent toast first.
			id := m.toasts[len(m.toasts)-1].ID
			m.eng.DismissToast(id)
		}
		return true, m, nil

	case "esc":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return true, m, nil
		}
	}

	return false, m, nil
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewThreads:
		m.threadList, cmd = m.threadList.Update(msg)
	case ViewNotifications:
		m.notifList, cmd = m.notifList.Update(msg)
	case ViewThread:
		m.threadView, cmd = m.threadView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Connecting..."
	}

	header := m.layout.RenderHeader("Perch", m.badge.Total(), m.pollStatus())
	tabBar := m.renderTabBar()
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	frame := m.layout.RenderWithFrame(header, tabBar, content, statusBar)

	if overlay := ui.RenderToasts(m.toasts, m.layout.Width); overlay != "" {
		frame = lipgloss.JoinVertical(lipgloss.Left, frame, overlay)
	}

	return frame
}

// renderTabBar draws the Threads / Notifications tabs. The tab bar is
// the second surface that displays the unread badge.
func (m Model) renderTabBar() string {
	threadsLabel := "Messages"
	if n := m.badge.Threads; n > 0 {
		threadsLabel = fmt.Sprintf("Messages (%d)", n)
	}
	notifLabel := "Notifications"
	if n := m.badge.Notifications + m.badge.SyncRequests; n > 0 {
		notifLabel = fmt.Sprintf("Notifications (%d)", n)
	}

	tabs := []string{threadsLabel, notifLabel}
	rendered := make([]string, len(tabs))
	for i, label := range tabs {
		active := (i == 0 && (m.currentView == ViewThreads || m.currentView == ViewThread)) ||
			(i == 1 && m.currentView == ViewNotifications)
		if active {
			rendered[i] = ui.ActiveTab(label)
		} else {
			rendered[i] = ui.Tab(label)
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// renderContent returns the rendered string for the current view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewThreads:
		return m.threadList.View()
	case ViewNotifications:
		return m.notifList.View()
	case ViewThread:
		return m.threadView.View()
	case ViewHelp:
		return m.renderHelp()
	default:
		return ""
	}
}

// renderHelp draws the full keybinding reference.
func (m Model) renderHelp() string {
	var lines []string
	for _, group := range m.keys.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			lines = append(lines, fmt.Sprintf("  %-10s %s", h.Key, h.Desc))
		}
		lines = append(lines, "")
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// pollStatus describes the engine state for the header.
func (m Model) pollStatus() string {
	switch m.eng.State() {
	case engine.StatePriming:
		return "syncing..."
	case engine.StatePolling:
		return "live"
	default:
		return "idle"
	}
}

// keyHints returns keyboard shortcut hints for the status bar,
// prefixed with the signed-in identity.
func (m Model) keyHints() string {
	prefix := ""
	if m.handle != "" {
		prefix = fmt.Sprintf("@%s · %d syncs | ", m.handle, m.syncCount)
	}
	return prefix + m.viewHints()
}

func (m Model) viewHints() string {
	switch m.currentView {
	case ViewThread:
		return "c compose | enter send | esc back"
	case ViewNotifications:
		return "m mark all read | x delete | tab messages | r refresh | q quit"
	case ViewHelp:
		return "? close help | esc back"
	default:
		return "enter open | tab notifications | r refresh | ? help | q quit"
	}
}

// openThread advances the thread's read cursor off the UI goroutine.
func (m Model) openThread(threadID string) tea.Cmd {
	eng := m.eng
	return func() tea.Msg {
		eng.OpenThread(context.Background(), threadID)
		return nil
	}
}

// sendMessage posts a reply; the engine keeps the thread read.
func (m Model) sendMessage(threadID, content string) tea.Cmd {
	eng := m.eng
	log := m.log
	return func() tea.Msg {
		if _, err := eng.SendMessage(context.Background(), threadID, content); err != nil {
			log.Warn().Err(err).Str("thread_id", threadID).Msg("send failed")
		}
		return nil
	}
}

// markAllRead marks every notification read.
func (m Model) markAllRead() tea.Cmd {
	eng := m.eng
	return func() tea.Msg {
		eng.MarkAllNotificationsRead(context.Background())
		return nil
	}
}

// deleteNotification removes one notification.
func (m Model) deleteNotification(id string) tea.Cmd {
	eng := m.eng
	log := m.log
	return func() tea.Msg {
		if err := eng.DeleteNotification(context.Background(), id); err != nil {
			log.Warn().Err(err).Str("notification_id", id).Msg("delete failed")
		}
		return nil
	}
}
