package source

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perchapp/perch/internal/api"
	"github.com/perchapp/perch/internal/model"
)

func TestNormalizeNotificationDropsMalformed(t *testing.T) {
	_, ok := normalizeNotification(api.WireNotification{
		Kind:      "post_align",
		CreatedAt: "2026-08-01T12:00:00Z",
	})
	assert.False(t, ok, "missing id")

	_, ok = normalizeNotification(api.WireNotification{
		ID:        "n1",
		Kind:      "post_align",
		CreatedAt: "yesterday-ish",
	})
	assert.False(t, ok, "unparseable timestamp")

	_, ok = normalizeNotification(api.WireNotification{
		ID:   "n1",
		Kind: "post_align",
	})
	assert.False(t, ok, "missing timestamp")
}

func TestNormalizeNotificationTagsUnknownKinds(t *testing.T) {
	n, ok := normalizeNotification(api.WireNotification{
		ID:        "n1",
		Kind:      "video_mention",
		CreatedAt: "2026-08-01T12:00:00Z",
	})

	require.True(t, ok)
	assert.Equal(t, model.KindOther, n.Kind)
}

func TestNormalizeNotificationNestedActorWins(t *testing.T) {
	n, ok := normalizeNotification(api.WireNotification{
		ID:        "n1",
		ActorID:   "flat-id",
		ActorName: "Flat Name",
		Actor: &api.WireProfile{
			ID:          "nested-id",
			DisplayName: "Nested Name",
			AvatarURL:   "https://cdn.example.com/a.png",
		},
		Kind:      "post_comment",
		CreatedAt: "2026-08-01T12:00:00Z",
	})

	require.True(t, ok)
	assert.Equal(t, "nested-id", n.ActorID)
	assert.Equal(t, "Nested Name", n.ActorName)
	assert.Equal(t, "https://cdn.example.com/a.png", n.ActorAvatarURL)
}

func TestNormalizeNotificationFlatFieldsSurviveEmptyActor(t *testing.T) {
	n, ok := normalizeNotification(api.WireNotification{
		ID:        "n1",
		ActorID:   "flat-id",
		ActorName: "Flat Name",
		Actor:     &api.WireProfile{},
		Kind:      "post_comment",
		CreatedAt: "2026-08-01T12:00:00Z",
	})

	require.True(t, ok)
	assert.Equal(t, "flat-id", n.ActorID)
	assert.Equal(t, "Flat Name", n.ActorName)
}

func TestNormalizeNotificationReadState(t *testing.T) {
	unread, ok := normalizeNotification(api.WireNotification{
		ID: "n1", Kind: "post_align", CreatedAt: "2026-08-01T12:00:00Z",
	})
	require.True(t, ok)
	assert.True(t, unread.Unread())

	read, ok := normalizeNotification(api.WireNotification{
		ID: "n2", Kind: "post_align",
		CreatedAt: "2026-08-01T12:00:00Z",
		ReadAt:    "2026-08-01T13:00:00Z",
	})
	require.True(t, ok)
	assert.False(t, read.Unread())
	assert.Equal(t, time.Date(2026, 8, 1, 13, 0, 0, 0, time.UTC), read.ReadAt.UTC())
}

func TestNormalizeSyncRequestDefaultsToPending(t *testing.T) {
	r, ok := normalizeSyncRequest(api.WireSyncRequest{
		ID:        "r1",
		TargetID:  "me",
		CreatedAt: "2026-08-01T12:00:00Z",
		Requester: &api.WireProfile{ID: "u2", DisplayName: "Sam"},
	})

	require.True(t, ok)
	assert.Equal(t, model.SyncPending, r.Status)
	assert.Equal(t, "u2", r.RequesterID)
	assert.Equal(t, "Sam", r.RequesterName)
}

func TestNormalizeMessage(t *testing.T) {
	m, ok := normalizeMessage(api.WireMessage{
		ID:        "m1",
		ThreadID:  "t1",
		SenderID:  "u2",
		Content:   "hello",
		CreatedAt: "2026-08-01T12:00:00Z",
	})
	require.True(t, ok)
	assert.Equal(t, "hello", m.Content)

	_, ok = normalizeMessage(api.WireMessage{ID: "m2", CreatedAt: "not-a-time"})
	assert.False(t, ok)
}
