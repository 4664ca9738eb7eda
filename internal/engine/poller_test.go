package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perchapp/perch/internal/model"
	"github.com/perchapp/perch/internal/store"
)

// fakeFetchers is a Fetchers implementation with settable results so
// tests can script what each tick observes.
type fakeFetchers struct {
	mu            sync.Mutex
	notifications []model.NotificationEvent
	notifErr      error
	syncRequests  []model.SyncRequest
	syncErr       error
	previews      []model.ThreadPreview
}

func (f *fakeFetchers) FetchNotifications(ctx context.Context) ([]model.NotificationEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.notifErr != nil {
		return nil, f.notifErr
	}
	return append([]model.NotificationEvent(nil), f.notifications...), nil
}

func (f *fakeFetchers) FetchSyncRequests(ctx context.Context) ([]model.SyncRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.syncErr != nil {
		return nil, f.syncErr
	}
	return append([]model.SyncRequest(nil), f.syncRequests...), nil
}

func (f *fakeFetchers) FetchThreadPreviews(ctx context.Context) ([]model.ThreadPreview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ThreadPreview(nil), f.previews...), nil
}

func (f *fakeFetchers) set(fn func(*fakeFetchers)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

// pollerHarness wires a poller to in-memory collaborators and exposes
// the tick results as a channel.
type pollerHarness struct {
	fetchers *fakeFetchers
	store    *store.MemoryStore
	toasts   *ToastQueue
	poller   *Poller
	ticks    chan TickResult
}

func newPollerHarness(t *testing.T) *pollerHarness {
	t.Helper()

	h := &pollerHarness{
		fetchers: &fakeFetchers{},
		store:    store.NewMemoryStore(selfID),
		toasts:   NewToastQueue(time.Hour, nil),
		ticks:    make(chan TickResult, 16),
	}
	// A long interval so only Refresh drives ticks after the first one.
	h.poller = NewPoller(
		h.fetchers, h.store, h.toasts,
		selfID, time.Hour, zerolog.Nop(),
		func(res TickResult) { h.ticks <- res },
	)

	t.Cleanup(func() {
		h.poller.Stop()
		h.toasts.Stop()
	})

	return h
}

func (h *pollerHarness) waitTick(t *testing.T) TickResult {
	t.Helper()
	select {
	case res := <-h.ticks:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for poll tick")
		return TickResult{}
	}
}

func TestFirstPollPrimesWithoutToasts(t *testing.T) {
	h := newPollerHarness(t)
	h.fetchers.set(func(f *fakeFetchers) {
		f.notifications = []model.NotificationEvent{
			notif("n1", nil),
			notif("n2", nil),
		}
		f.syncRequests = []model.SyncRequest{
			{ID: "r1", TargetID: selfID, Status: model.SyncPending},
		}
	})

	h.poller.Start(context.Background())
	res := h.waitTick(t)

	// Existing items count toward the badge but never toast.
	assert.Empty(t, h.toasts.Toasts())
	assert.Equal(t, 2, res.Badge.Notifications)
	assert.Equal(t, 1, res.Badge.SyncRequests)
	assert.Equal(t, StatePolling, h.poller.State())
}

func TestNewItemToastsExactlyOnce(t *testing.T) {
	h := newPollerHarness(t)
	h.fetchers.set(func(f *fakeFetchers) {
		f.notifications = []model.NotificationEvent{notif("n1", nil)}
	})

	h.poller.Start(context.Background())
	h.waitTick(t)
	require.Empty(t, h.toasts.Toasts())

	h.fetchers.set(func(f *fakeFetchers) {
		f.notifications = append(f.notifications, notif("n99", nil))
	})
	h.poller.Refresh()
	h.waitTick(t)

	stack := h.toasts.Toasts()
	require.Len(t, stack, 1)
	assert.Equal(t, "Robin", stack[0].Title)
	assert.Equal(t, "Commented on your post", stack[0].Detail)

	// The same item never toasts again on later ticks.
	h.poller.Refresh()
	h.waitTick(t)
	assert.Len(t, h.toasts.Toasts(), 1)
}

func TestFailedSourceDoesNotPrimeOrToast(t *testing.T) {
	h := newPollerHarness(t)
	h.fetchers.set(func(f *fakeFetchers) {
		f.notifErr = errors.New("upstream down")
		f.syncRequests = []model.SyncRequest{
			{ID: "r1", TargetID: selfID, Status: model.SyncPending},
		}
	})

	h.poller.Start(context.Background())
	res := h.waitTick(t)

	// The failed source contributes nothing and stays unprimed; the
	// healthy one primes independently.
	assert.Equal(t, 0, res.Badge.Notifications)
	assert.Equal(t, 1, res.Badge.SyncRequests)
	assert.False(t, h.store.Primed(store.CategoryNotifications))
	assert.True(t, h.store.Primed(store.CategorySyncRequests))
	assert.NotEqual(t, StatePolling, h.poller.State())

	// Recovery: the first successful fetch primes without toasting,
	// even though the items are new to this session.
	h.fetchers.set(func(f *fakeFetchers) {
		f.notifErr = nil
		f.notifications = []model.NotificationEvent{notif("n1", nil)}
	})
	h.poller.Refresh()
	h.waitTick(t)

	assert.Empty(t, h.toasts.Toasts())
	assert.True(t, h.store.Primed(store.CategoryNotifications))
	assert.Equal(t, StatePolling, h.poller.State())

	// Only items arriving after priming toast.
	h.fetchers.set(func(f *fakeFetchers) {
		f.notifications = append(f.notifications, notif("n2", nil))
	})
	h.poller.Refresh()
	h.waitTick(t)
	assert.Len(t, h.toasts.Toasts(), 1)
}

func TestNewSyncRequestToasts(t *testing.T) {
	h := newPollerHarness(t)

	h.poller.Start(context.Background())
	h.waitTick(t)

	h.fetchers.set(func(f *fakeFetchers) {
		f.syncRequests = []model.SyncRequest{
			{
				ID:            "r1",
				RequesterID:   "u2",
				RequesterName: "Sam",
				TargetID:      selfID,
				Status:        model.SyncPending,
			},
		}
	})
	h.poller.Refresh()
	h.waitTick(t)

	stack := h.toasts.Toasts()
	require.Len(t, stack, 1)
	assert.Equal(t, "Sam", stack[0].Title)
	assert.Equal(t, "Sent a sync request", stack[0].Detail)
	assert.Equal(t, "u2", stack[0].SubjectProfileID)
}

func TestStopReturnsToIdleAndDiscardsResults(t *testing.T) {
	h := newPollerHarness(t)

	h.poller.Start(context.Background())
	h.waitTick(t)
	require.Equal(t, StatePolling, h.poller.State())

	h.poller.Stop()
	assert.Equal(t, StateIdle, h.poller.State())

	// No further ticks arrive once stopped.
	h.poller.Refresh()
	select {
	case res := <-h.ticks:
		t.Fatalf("unexpected tick after stop: generation %d", res.Generation)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStartIsIdempotent(t *testing.T) {
	h := newPollerHarness(t)

	h.poller.Start(context.Background())
	h.poller.Start(context.Background())
	h.waitTick(t)

	// A second Start must not spawn a second loop; only the single
	// initial tick shows up.
	select {
	case <-h.ticks:
		t.Fatal("duplicate poll loop detected")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestToastCopyFallsBackForUnknownActors(t *testing.T) {
	toast := toastForNotification(model.NotificationEvent{
		ID:   "n1",
		Kind: model.NotificationKind("brand_new_kind"),
	})

	assert.Equal(t, "Someone", toast.Title)
	assert.Equal(t, "New activity", toast.Detail)
	assert.NotEmpty(t, toast.ID)
}
