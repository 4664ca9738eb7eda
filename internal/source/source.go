// Package source exposes the three independent read paths the
// notification engine polls, normalizing loose server payloads into
// domain types before anything downstream sees them. The interface is
// transport-agnostic so a future push-based feed can satisfy the same
// contract without touching the aggregator or toast layers.
package source

import (
	"context"

	"github.com/perchapp/perch/internal/model"
)

// Fetchers groups the engine's three read-only accessors. Each call is
// independently fallible: a failure in one source never implies
// anything about the others.
type Fetchers interface {
	// FetchNotifications returns every notification for the current
	// account, in no particular order.
	FetchNotifications(ctx context.Context) ([]model.NotificationEvent, error)

	// FetchSyncRequests returns pending sync requests incoming to
	// the current account.
	FetchSyncRequests(ctx context.Context) ([]model.SyncRequest, error)

	// FetchThreadPreviews returns one preview per thread the account
	// participates in. A thread whose message fetch failed is
	// returned with Known=false rather than failing the batch.
	FetchThreadPreviews(ctx context.Context) ([]model.ThreadPreview, error)
}

// Snapshot holds one tick's worth of fetch results. The aggregator only
// ever sees results fetched together, never a mix of ticks.
type Snapshot struct {
	Notifications  []model.NotificationEvent
	SyncRequests   []model.SyncRequest
	ThreadPreviews []model.ThreadPreview
}
