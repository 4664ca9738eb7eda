// Package engine implements the notification and unread-activity
// aggregation core: a session-scoped state object owning the poller,
// the toast queue, and the read-state store, publishing badge and toast
// updates to any number of UI surfaces.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/perchapp/perch/internal/api"
	"github.com/perchapp/perch/internal/model"
	"github.com/perchapp/perch/internal/source"
	"github.com/perchapp/perch/internal/store"
)

// ErrUnverified is returned by Init when the account's email address
// has not been verified; the engine stays idle in that case.
var ErrUnverified = errors.New("account email is not verified")

// Update is pushed to subscribers whenever the badge, the snapshot, or
// the toast stack changes.
type Update struct {
	// Badge is the current unread count, identical on every surface.
	Badge model.Badge

	// Toasts is the current toast stack, oldest first.
	Toasts []model.Toast

	// Snapshot holds the latest consistent fetch results.
	Snapshot source.Snapshot

	// Session is the signed-in account.
	Session model.Session

	// Syncs lists the account's established syncs, fetched once at
	// session start for display.
	Syncs []model.Profile
}

// Config holds the engine's tuning knobs.
type Config struct {
	// DBPath locates the local read-state database.
	DBPath string

	// PollInterval is the fixed poll cadence. No jitter, no backoff:
	// a missed cycle self-corrects on the next tick.
	PollInterval time.Duration

	// ToastTTL is how long an undismissed toast stays visible.
	ToastTTL time.Duration
}

// Engine is the session-scoped notification engine state. Construct it
// once per session, call Init when the session becomes eligible, and
// Teardown when it ends.
type Engine struct {
	client *api.Client
	cfg    Config
	log    zerolog.Logger

	store    store.Store
	fetchers source.Fetchers
	toasts   *ToastQueue
	poller   *Poller

	mu       sync.Mutex
	session  model.Session
	syncs    []model.Profile
	snapshot source.Snapshot
	badge    model.Badge
	torn     bool

	updateCh chan Update
}

// New creates an engine bound to an API client. Nothing runs until Init.
func New(client *api.Client, cfg Config, log zerolog.Logger) *Engine {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 45 * time.Second
	}
	if cfg.ToastTTL <= 0 {
		cfg.ToastTTL = DefaultToastTTL
	}
	return &Engine{
		client:   client,
		cfg:      cfg,
		log:      log.With().Str("component", "engine").Logger(),
		updateCh: make(chan Update, 16),
	}
}

// Init checks session eligibility and starts polling. It returns
// ErrUnverified (engine stays idle) for unverified accounts and the
// underlying error when the session cannot be established at all.
func (e *Engine) Init(ctx context.Context) error {
	wireSession, err := e.client.Session(ctx)
	if err != nil {
		return err
	}
	if !wireSession.Verified {
		return ErrUnverified
	}

	session := model.Session{
		Account: model.Profile{
			ID:          wireSession.Account.ID,
			Handle:      wireSession.Account.Handle,
			DisplayName: wireSession.Account.DisplayName,
			AvatarURL:   wireSession.Account.AvatarURL,
		},
		Verified: true,
	}

	e.mu.Lock()
	e.session = session
	e.mu.Unlock()

	// Established syncs are display-only; a failed fetch just leaves
	// the count blank.
	if wireSyncs, err := e.client.Syncs(ctx); err != nil {
		e.log.Warn().Err(err).Msg("fetching syncs failed")
	} else {
		syncs := make([]model.Profile, 0, len(wireSyncs))
		for _, w := range wireSyncs {
			syncs = append(syncs, model.Profile{
				ID:          w.ID,
				Handle:      w.Handle,
				DisplayName: w.DisplayName,
				AvatarURL:   w.AvatarURL,
			})
		}
		e.mu.Lock()
		e.syncs = syncs
		e.mu.Unlock()
	}

	e.store = store.Open(e.cfg.DBPath, session.Account.ID, e.log)
	e.fetchers = source.NewAPISource(e.client, session.Account.ID, e.log)
	e.toasts = NewToastQueue(e.cfg.ToastTTL, func([]model.Toast) { e.publish() })
	e.poller = NewPoller(
		e.fetchers, e.store, e.toasts,
		session.Account.ID, e.cfg.PollInterval, e.log,
		e.applyTick,
	)
	e.poller.Start(ctx)

	return nil
}

// Teardown stops the poller and toast timers and closes the store.
// Persisted read state is deliberately left in place; it is scoped by
// account id and harmless across sessions.
func (e *Engine) Teardown() {
	e.mu.Lock()
	if e.torn {
		e.mu.Unlock()
		return
	}
	e.torn = true
	e.mu.Unlock()

	if e.poller != nil {
		e.poller.Stop()
	}
	if e.toasts != nil {
		e.toasts.Stop()
	}
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			e.log.Debug().Err(err).Msg("closing state store")
		}
	}

	// Publishers check torn under the same lock, so closing here can
	// never race a send.
	e.mu.Lock()
	close(e.updateCh)
	e.mu.Unlock()
}

// Updates returns the channel UI surfaces subscribe to. Slow consumers
// drop intermediate updates rather than blocking the engine.
func (e *Engine) Updates() <-chan Update {
	return e.updateCh
}

// Session returns the signed-in account.
func (e *Engine) Session() model.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// Badge returns the latest computed badge.
func (e *Engine) Badge() model.Badge {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.badge
}

// Snapshot returns the latest consistent fetch results.
func (e *Engine) Snapshot() source.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot
}

// State returns the poller's lifecycle phase, StateIdle before Init.
func (e *Engine) State() State {
	if e.poller == nil {
		return StateIdle
	}
	return e.poller.State()
}

// Refresh requests an immediate poll tick.
func (e *Engine) Refresh() {
	if e.poller != nil {
		e.poller.Refresh()
	}
}

// DismissToast removes a toast before its TTL elapses.
func (e *Engine) DismissToast(id string) {
	if e.toasts != nil {
		e.toasts.Dismiss(id)
	}
}

// OpenThread records that the user has seen a thread's latest message:
// the read cursor advances to that message's timestamp and the badge is
// recomputed from the current snapshot.
func (e *Engine) OpenThread(ctx context.Context, threadID string) {
	e.mu.Lock()
	var lastAt time.Time
	for _, p := range e.snapshot.ThreadPreviews {
		if p.ThreadID == threadID && p.LastMessage != nil {
			lastAt = p.LastMessage.CreatedAt
			break
		}
	}
	e.mu.Unlock()

	if lastAt.IsZero() {
		return
	}

	e.store.AdvanceCursor(ctx, threadID, lastAt)
	e.recompute(ctx)
}

// SendMessage posts a message to a thread. The read cursor advances to
// the sent message so your own reply never marks the thread unread.
func (e *Engine) SendMessage(ctx context.Context, threadID, content string) (*model.Message, error) {
	wire, err := e.client.SendMessage(ctx, threadID, content)
	if err != nil {
		return nil, err
	}

	created := model.Message{
		ID:       wire.ID,
		ThreadID: threadID,
		SenderID: e.Session().Account.ID,
		Content:  wire.Content,
	}
	if ts, err := time.Parse(time.RFC3339, wire.CreatedAt); err == nil {
		created.CreatedAt = ts
	} else {
		created.CreatedAt = time.Now()
	}

	e.mu.Lock()
	for i, p := range e.snapshot.ThreadPreviews {
		if p.ThreadID == threadID {
			msg := created
			e.snapshot.ThreadPreviews[i].LastMessage = &msg
			e.snapshot.ThreadPreviews[i].Known = true
			break
		}
	}
	e.mu.Unlock()

	e.store.AdvanceCursor(ctx, threadID, created.CreatedAt)
	e.recompute(ctx)

	return &created, nil
}

// MarkAllNotificationsRead marks every notification read server-side,
// mirroring locally first so the badge reacts immediately. A failed
// request is only logged; the next tick restores the true state.
func (e *Engine) MarkAllNotificationsRead(ctx context.Context) {
	now := time.Now()

	e.mu.Lock()
	for i := range e.snapshot.Notifications {
		if e.snapshot.Notifications[i].ReadAt == nil {
			ts := now
			e.snapshot.Notifications[i].ReadAt = &ts
		}
	}
	e.mu.Unlock()

	e.recompute(ctx)

	if err := e.client.MarkNotificationsRead(ctx); err != nil {
		e.log.Warn().Err(err).Msg("mark-read request failed")
	}
}

// DeleteNotification removes one notification server-side and mirrors
// the removal locally on success.
func (e *Engine) DeleteNotification(ctx context.Context, id string) error {
	if err := e.client.DeleteNotification(ctx, id); err != nil {
		return err
	}

	e.mu.Lock()
	for i, n := range e.snapshot.Notifications {
		if n.ID == id {
			e.snapshot.Notifications = append(
				e.snapshot.Notifications[:i], e.snapshot.Notifications[i+1:]...,
			)
			break
		}
	}
	e.mu.Unlock()

	e.recompute(ctx)
	return nil
}

// applyTick installs a completed tick's snapshot and badge. A rejected
// session token halts polling entirely; the user has to sign in again,
// and hammering the server with a dead token helps nobody.
func (e *Engine) applyTick(res TickResult) {
	for _, err := range res.SourceErrs {
		if api.IsAuthError(err) {
			e.log.Warn().Err(err).Msg("session token rejected, polling stopped")
			e.poller.Stop()
			break
		}
	}

	e.mu.Lock()
	e.snapshot = res.Snapshot
	e.badge = res.Badge
	e.mu.Unlock()

	e.publish()
}

// recompute re-derives the badge from the current snapshot and cursors.
func (e *Engine) recompute(ctx context.Context) {
	e.mu.Lock()
	snap := e.snapshot
	selfID := e.session.Account.ID
	e.mu.Unlock()

	badge := Aggregate(ctx, snap, e.store, selfID)

	e.mu.Lock()
	e.badge = badge
	e.mu.Unlock()

	e.publish()
}

// publish sends the current state to subscribers without blocking.
func (e *Engine) publish() {
	var stack []model.Toast
	if e.toasts != nil {
		stack = e.toasts.Toasts()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.torn {
		return
	}

	update := Update{
		Badge:    e.badge,
		Toasts:   stack,
		Snapshot: e.snapshot,
		Session:  e.session,
		Syncs:    e.syncs,
	}

	select {
	case e.updateCh <- update:
	default:
		// Drop if the subscriber is behind; the next update carries
		// the full state anyway.
	}
}
