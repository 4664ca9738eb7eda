package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/perchapp/perch/internal/model"
	"github.com/perchapp/perch/internal/source"
	"github.com/perchapp/perch/internal/store"
)

// State is the poller's lifecycle phase.
type State int

const (
	// StateIdle: not running (signed out, unverified, or torn down).
	StateIdle State = iota

	// StatePriming: the first poll of the session is in flight; it
	// seeds the seen sets and emits no toasts.
	StatePriming

	// StatePolling: steady-state fixed-interval polling.
	StatePolling
)

// TickResult is published after every completed tick.
type TickResult struct {
	// Generation identifies which tick produced the result.
	Generation uint64

	// Snapshot holds the tick's fetch results, consistent as a set.
	Snapshot source.Snapshot

	// Badge is the freshly recomputed unread count.
	Badge model.Badge

	// SourceErrs collects the tick's failed fetches, if any. The owner
	// decides whether a failure is fatal to the session.
	SourceErrs []error
}

// Poller runs the repeating fetch-diff-toast-aggregate cycle. Each tick
// fans out the three source fetches concurrently, waits for all of them
// to settle, then diffs the seen sets, pushes toasts for newly seen
// items, and recomputes the badge. The interval timer is not re-armed
// until the previous tick settles, so ticks never overlap; a monotonic
// generation counter discards results from a tick that is no longer the
// latest one.
type Poller struct {
	fetchers source.Fetchers
	store    store.Store
	toasts   *ToastQueue
	selfID   string
	interval time.Duration
	log      zerolog.Logger
	onTick   func(TickResult)

	generation atomic.Uint64

	mu        sync.Mutex
	state     State
	running   bool
	stopCh    chan struct{}
	triggerCh chan struct{}
}

// NewPoller creates a poller. onTick is invoked after every applied
// tick; it may be nil.
func NewPoller(
	fetchers source.Fetchers,
	st store.Store,
	toasts *ToastQueue,
	selfID string,
	interval time.Duration,
	log zerolog.Logger,
	onTick func(TickResult),
) *Poller {
	return &Poller{
		fetchers:  fetchers,
		store:     st,
		toasts:    toasts,
		selfID:    selfID,
		interval:  interval,
		log:       log.With().Str("component", "poller").Logger(),
		onTick:    onTick,
		state:     StateIdle,
		triggerCh: make(chan struct{}, 1),
	}
}

// State returns the poller's current lifecycle phase.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Start launches the poll loop. It is a no-op when already running.
// The caller is responsible for the session eligibility gate.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.state = StatePriming
	p.stopCh = make(chan struct{})
	stopCh := p.stopCh
	p.mu.Unlock()

	go p.loop(ctx, stopCh)
}

// Stop halts the loop. In-flight fetches are allowed to resolve but
// their results are discarded.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	close(p.stopCh)
	p.running = false
	p.state = StateIdle

	// Invalidate any tick still in flight.
	p.generation.Add(1)
}

// Refresh requests an immediate tick without waiting for the interval.
func (p *Poller) Refresh() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

// loop runs ticks until stopped. The next tick is only scheduled after
// the previous one has fully settled.
func (p *Poller) loop(ctx context.Context, stopCh chan struct{}) {
	for {
		gen := p.generation.Add(1)
		p.tick(ctx, gen)

		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-time.After(p.interval):
		case <-p.triggerCh:
		}
	}
}

// tick performs one fetch-diff-toast-aggregate cycle.
func (p *Poller) tick(ctx context.Context, gen uint64) {
	var (
		snap                         source.Snapshot
		notifErr, syncErr, threadErr error
		wg                           sync.WaitGroup
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		snap.Notifications, notifErr = p.fetchers.FetchNotifications(ctx)
	}()
	go func() {
		defer wg.Done()
		snap.SyncRequests, syncErr = p.fetchers.FetchSyncRequests(ctx)
	}()
	go func() {
		defer wg.Done()
		snap.ThreadPreviews, threadErr = p.fetchers.FetchThreadPreviews(ctx)
	}()
	wg.Wait()

	if p.stale(gen) {
		return
	}

	p.warnOnce("notifications", notifErr)
	p.warnOnce("sync_requests", syncErr)
	p.warnOnce("threads", threadErr)

	if notifErr == nil {
		p.surfaceNotifications(ctx, snap.Notifications)
	}
	if syncErr == nil {
		p.surfaceSyncRequests(ctx, snap.SyncRequests)
	}

	p.mu.Lock()
	if p.running && p.store.Primed(store.CategoryNotifications) && p.store.Primed(store.CategorySyncRequests) {
		p.state = StatePolling
	}
	p.mu.Unlock()

	badge := Aggregate(ctx, snap, p.store, p.selfID)

	if p.stale(gen) {
		return
	}
	if p.onTick != nil {
		var errs []error
		for _, err := range []error{notifErr, syncErr, threadErr} {
			if err != nil {
				errs = append(errs, err)
			}
		}
		p.onTick(TickResult{Generation: gen, Snapshot: snap, Badge: badge, SourceErrs: errs})
	}
}

// surfaceNotifications primes the notification seen set on the first
// successful fetch of the session, or diffs it and toasts new items.
func (p *Poller) surfaceNotifications(ctx context.Context, notifications []model.NotificationEvent) {
	ids := make([]string, len(notifications))
	byID := make(map[string]model.NotificationEvent, len(notifications))
	for i, n := range notifications {
		ids[i] = n.ID
		byID[n.ID] = n
	}

	if !p.store.Primed(store.CategoryNotifications) {
		p.store.MarkPrimed(ctx, store.CategoryNotifications, ids)
		return
	}

	for _, id := range p.store.DiffAndMark(ctx, store.CategoryNotifications, ids) {
		p.toasts.Push(toastForNotification(byID[id]))
	}
}

// surfaceSyncRequests mirrors surfaceNotifications for sync requests.
func (p *Poller) surfaceSyncRequests(ctx context.Context, requests []model.SyncRequest) {
	ids := make([]string, len(requests))
	byID := make(map[string]model.SyncRequest, len(requests))
	for i, r := range requests {
		ids[i] = r.ID
		byID[r.ID] = r
	}

	if !p.store.Primed(store.CategorySyncRequests) {
		p.store.MarkPrimed(ctx, store.CategorySyncRequests, ids)
		return
	}

	for _, id := range p.store.DiffAndMark(ctx, store.CategorySyncRequests, ids) {
		p.toasts.Push(toastForSyncRequest(byID[id]))
	}
}

// stale reports whether a tick's results should be discarded, either
// because the poller stopped or a newer tick superseded it.
func (p *Poller) stale(gen uint64) bool {
	if p.generation.Load() != gen {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.running
}

// warnOnce logs a failed source fetch. The source contributes an empty
// result for this tick and is retried on the next one.
func (p *Poller) warnOnce(sourceName string, err error) {
	if err != nil {
		p.log.Warn().Err(err).Str("source", sourceName).Msg("source fetch failed, empty for this tick")
	}
}
