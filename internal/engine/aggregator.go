package engine

import (
	"context"
	"time"

	"github.com/perchapp/perch/internal/model"
	"github.com/perchapp/perch/internal/source"
)

// CursorReader is the slice of the store the aggregator needs.
type CursorReader interface {
	Cursor(ctx context.Context, threadID string) (time.Time, bool)
}

// Aggregate computes the unread badge for one snapshot. It is a pure
// function of the snapshot plus current read cursors and is recomputed
// in full on every poll tick and every thread-open action; nothing is
// patched incrementally, so the three sources can never drift apart.
//
//	badge = unread notifications (server ReadAt is authoritative)
//	      + pending incoming sync requests
//	      + threads whose last message is unread against the cursor
func Aggregate(ctx context.Context, snap source.Snapshot, cursors CursorReader, selfID string) model.Badge {
	badge := model.Badge{
		UnreadThreadIDs: make(map[string]bool),
	}

	for _, n := range snap.Notifications {
		if n.Unread() {
			badge.Notifications++
		}
	}

	for _, r := range snap.SyncRequests {
		if r.Status == model.SyncPending && r.TargetID == selfID {
			badge.SyncRequests++
		}
	}

	for _, p := range snap.ThreadPreviews {
		watermark, ok := cursors.Cursor(ctx, p.ThreadID)
		if p.UnreadAgainst(selfID, watermark, ok) {
			badge.Threads++
			badge.UnreadThreadIDs[p.ThreadID] = true
		}
	}

	return badge
}
